package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sarthi-rx/server/internal/agent/model"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

var seedProducts = []model.ProductRef{
	{Name: "Paracetamol 500mg", Description: "Pain relief and fever reducer for headache, body ache and cold", UnitPrice: 25, Stock: 200},
	{Name: "Ibuprofen 400mg", Description: "Anti-inflammatory pain relief for muscle pain, back pain and fever", UnitPrice: 40, Stock: 150},
	{Name: "Aspirin 100mg", Description: "Low dose aspirin for pain and heart protection", UnitPrice: 30, Stock: 120},
	{Name: "Omega-3", Description: "Fish oil capsules supporting heart and joint health", UnitPrice: 15, Stock: 10},
	{Name: "Vitamin D", Description: "Vitamin D3 supplement for bone health and immunity", UnitPrice: 12, Stock: 80},
	{Name: "Vitamin C", Description: "Vitamin C tablets for immunity, cold and flu support", UnitPrice: 10, Stock: 90},
	{Name: "Cetirizine 10mg", Description: "Antihistamine for allergy, sneezing, runny nose and itching", UnitPrice: 18, Stock: 100},
	{Name: "Cough Syrup", Description: "Soothing syrup for dry cough and sore throat", UnitPrice: 65, Stock: 40},
	{Name: "ORS Sachet", Description: "Oral rehydration salts for dehydration, diarrhea and vomiting", UnitPrice: 8, Stock: 300},
	{Name: "Antacid Gel", Description: "Relief from acidity, heartburn and indigestion", UnitPrice: 55, Stock: 60},
	{Name: "Loperamide 2mg", Description: "Short term relief from diarrhea", UnitPrice: 22, Stock: 70},
	{Name: "Diclofenac Gel", Description: "Topical gel for joint pain, sprain and muscle pain", UnitPrice: 95, Stock: 35},
	{Name: "Warfarin 5mg", Description: "Anticoagulant blood thinner", UnitPrice: 45, Stock: 50, PrescriptionRequired: true},
	{Name: "Amoxicillin 500mg", Description: "Antibiotic for bacterial infections", UnitPrice: 85, Stock: 60, PrescriptionRequired: true},
	{Name: "Metformin 500mg", Description: "Blood sugar control for type 2 diabetes", UnitPrice: 35, Stock: 110, PrescriptionRequired: true},
	{Name: "Atenolol 50mg", Description: "Beta blocker for high blood pressure", UnitPrice: 28, Stock: 0, PrescriptionRequired: true},
	{Name: "Multivitamin", Description: "Daily multivitamin for energy, fatigue and general wellness", UnitPrice: 20, Stock: 75},
	{Name: "Zinc Tablets", Description: "Zinc supplement for immunity and cold recovery", UnitPrice: 14, Stock: 65},
}

var seedPatients = []model.Patient{
	{ID: "PAT001", Name: "Ramesh Kumar", Age: 58, Gender: "M", Phone: "+919876543210", Email: "ramesh.kumar@example.com", Language: "en"},
	{ID: "PAT002", Name: "Sunita Devi", Age: 64, Gender: "F", Phone: "+919876543211", Email: "sunita.devi@example.com", Language: "hi"},
	{ID: "PAT003", Name: "Amit Singh", Age: 35, Gender: "M", Phone: "+919876543212", Email: "amit.singh@example.com", Language: "mr"},
}

type seedOrder struct {
	patientID string
	product   string
	quantity  int
	daysAgo   int
}

var seedOrders = []seedOrder{
	{"PAT001", "Vitamin D", 1, 25},
	{"PAT001", "Paracetamol 500mg", 2, 60},
	{"PAT002", "Warfarin 5mg", 1, 20},
	{"PAT002", "Metformin 500mg", 2, 28},
	{"PAT003", "Cetirizine 10mg", 1, 5},
}

// Seed loads the demo catalog, patients and order history into an empty
// database. A populated database is left alone.
func (s *SQLiteStore) Seed(ctx context.Context, now time.Time) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, p := range seedProducts {
		if err := s.UpsertProduct(ctx, p); err != nil {
			return err
		}
	}
	for _, p := range seedPatients {
		p.CreatedAt = now
		if err := s.UpsertPatient(ctx, p); err != nil {
			return err
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	for i, o := range seedOrders {
		price := 0.0
		for _, p := range seedProducts {
			if p.Name == o.product {
				price = p.UnitPrice
			}
		}
		at := now.Add(-time.Duration(o.daysAgo) * 24 * time.Hour)
		_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (order_id, idempotency_key, patient_id, product_name, quantity, unit_price, total_price, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			fmt.Sprintf("SEED-%03d", i+1), fmt.Sprintf("seed-%d", i+1), o.patientID, o.product, o.quantity,
			price, model.OrderTotal(price, o.quantity), string(model.OrderConfirmed), at.UnixNano())
		if err != nil {
			return fmt.Errorf("insert seed order: %w", err)
		}
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO prescriptions (patient_id, product_name, created_at) VALUES ('PAT002', 'Warfarin 5mg', ?), ('PAT002', 'Metformin 500mg', ?)`,
		now.Unix(), now.Unix()); err != nil {
		return fmt.Errorf("insert seed prescriptions: %w", err)
	}

	logx.Info().Int("products", len(seedProducts)).Int("patients", len(seedPatients)).Msg("seeded database")
	return nil
}
