package model

import "context"

// Notification is the payload fanned out to every channel after commit.
type Notification struct {
	Kind        string  `json:"kind"`
	OrderID     string  `json:"order_id,omitempty"`
	PatientID   string  `json:"patient_id"`
	PatientName string  `json:"patient_name,omitempty"`
	Email       string  `json:"email,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity,omitempty"`
	TotalPrice  float64 `json:"total_price,omitempty"`
	Message     string  `json:"message"`
}

const (
	NotificationOrderPlaced = "order_placed"
	NotificationRefillDue   = "refill_due"
)

// Channel delivers one notification. Implementations must be safe for
// concurrent use.
type Channel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

type NotificationResult struct {
	Channel string `json:"channel"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Fulfiller is the terminal hook invoked after an order commits.
type Fulfiller interface {
	Trigger(ctx context.Context, order Order) error
}
