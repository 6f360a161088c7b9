package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sarthi-rx/server/internal/agent/model"
	errx "github.com/sarthi-rx/server/internal/core/error"
)

const patientColumns = `id, name, age, gender, phone, email, language, created_at`

func scanPatient(row interface{ Scan(...any) error }) (*model.Patient, error) {
	var p model.Patient
	var created int64
	if err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.Phone, &p.Email, &p.Language, &created); err != nil {
		return nil, err
	}
	p.CreatedAt = time.Unix(created, 0).UTC()
	return &p, nil
}

func (s *SQLiteStore) GetPatient(ctx context.Context, patientID string) (*model.Patient, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = ?`, patientID)
	p, err := scanPatient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan patient row: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) ListPatients(ctx context.Context) ([]model.Patient, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+patientColumns+` FROM patients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	var out []model.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient row: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertPatient(ctx context.Context, p model.Patient) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.Language == "" {
		p.Language = "en"
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO patients (id, name, age, gender, phone, email, language, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		age = excluded.age,
		gender = excluded.gender,
		phone = excluded.phone,
		email = excluded.email,
		language = excluded.language`,
		p.ID, p.Name, p.Age, p.Gender, p.Phone, p.Email, p.Language, p.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert patient: %w", err)
	}
	return nil
}

func (s *SQLiteStore) HasPrescription(ctx context.Context, patientID, productName string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM prescriptions WHERE patient_id = ? AND product_name = ?`, patientID, productName).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errx.WrapStore(fmt.Errorf("query prescription: %w", err))
	}
	return true, nil
}

// AddPrescription records products the patient holds a prescription for.
// Re-adding a product is a no-op.
func (s *SQLiteStore) AddPrescription(ctx context.Context, patientID string, productNames []string) error {
	if len(productNames) == 0 {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errx.WrapStore(fmt.Errorf("begin prescription tx: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().Unix()
	for _, name := range productNames {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO prescriptions (patient_id, product_name, created_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
			patientID, name, now); err != nil {
			return errx.WrapStore(fmt.Errorf("insert prescription: %w", err))
		}
	}
	if err := tx.Commit(); err != nil {
		return errx.WrapStore(fmt.Errorf("commit prescription: %w", err))
	}
	return nil
}
