package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/sarthi-rx/server/internal/agent/model"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Email delivers through an authenticated SMTP relay.
type Email struct {
	addr     string
	host     string
	username string
	password string
	from     string
	sendMail sendMailFunc
}

func NewEmail(host string, port int, username, password, from string) *Email {
	if from == "" {
		from = username
	}
	return &Email{
		addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		host:     host,
		username: username,
		password: password,
		from:     from,
		sendMail: smtp.SendMail,
	}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Send(ctx context.Context, n model.Notification) error {
	if n.Email == "" {
		return ErrNoRecipient
	}
	msg := buildMessage(e.from, n.Email, subjectFor(n), n.Message)
	auth := smtp.PlainAuth("", e.username, e.password, e.host)

	done := make(chan error, 1)
	go func() { done <- e.sendMail(e.addr, auth, e.from, []string{n.Email}, msg) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func subjectFor(n model.Notification) string {
	switch n.Kind {
	case model.NotificationRefillDue:
		return "Refill reminder: " + n.ProductName
	default:
		return "Order confirmation " + n.OrderID
	}
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
