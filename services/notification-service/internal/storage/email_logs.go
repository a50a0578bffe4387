package storage

import (
	"context"

	"github.com/jpcarranza/clinicagenda/libs/db"
)

// EmailLog records every delivery attempt, sent or failed, for audit and
// retry triage.
type EmailLog struct {
	AppointmentID string
	Kind          string
	Recipient     string
	Subject       string
	Status        string // sent | failed
	FailureReason string
}

type EmailLogRepository struct {
	pool *db.Pool
}

func NewEmailLogRepository(pool *db.Pool) *EmailLogRepository {
	return &EmailLogRepository{pool: pool}
}

func (r *EmailLogRepository) Insert(ctx context.Context, log EmailLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO email_logs (appointment_id, kind, recipient, subject, status, failure_reason)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
	`, log.AppointmentID, log.Kind, log.Recipient, log.Subject, log.Status, log.FailureReason)
	return err
}
