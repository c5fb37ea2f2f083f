package db

import (
	"context"
	"database/sql"
	"errors"

	"argo-assistant/pkg"
)

// Repository wraps database operations for appointments.  A single postgres
// database holds one row per patient key.
type Repository struct {
	DB *sql.DB
}

// NewRepository constructs a new Repository from an existing sql.DB.
// The caller is responsible for managing the DB connection lifecycle.
func NewRepository(db *sql.DB) *Repository { return &Repository{DB: db} }

// UpsertAppointment inserts or replaces the appointment for a patient key.
// Name, contact and time are all overwritten; no history is kept.
func (r *Repository) UpsertAppointment(ctx context.Context, a pkg.Appointment) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO appointments (patient_key, patient_name, whatsapp, scheduled_at, updated_at)
         VALUES ($1, $2, $3, $4, NOW())
         ON CONFLICT (patient_key) DO UPDATE SET
             patient_name = EXCLUDED.patient_name,
             whatsapp     = EXCLUDED.whatsapp,
             scheduled_at = EXCLUDED.scheduled_at,
             updated_at   = NOW()`,
		a.PatientKey, a.PatientName, a.WhatsApp, a.ScheduledAt,
	)
	return err
}

// GetAppointment retrieves the appointment for a patient key.  A missing
// record is not an error; it is reported as (nil, nil).
func (r *Repository) GetAppointment(ctx context.Context, patientKey string) (*pkg.Appointment, error) {
	var a pkg.Appointment
	err := r.DB.QueryRowContext(ctx,
		`SELECT patient_key, patient_name, whatsapp, scheduled_at
         FROM appointments
         WHERE patient_key = $1`,
		patientKey,
	).Scan(&a.PatientKey, &a.PatientName, &a.WhatsApp, &a.ScheduledAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
