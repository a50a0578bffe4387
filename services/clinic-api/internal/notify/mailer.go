package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/model"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/outbox"
)

// Topic the notification service consumes. One topic per event kind, the
// outbox publisher routes on EventType.
const TopicEmailRequested = "clinic.email.requested"

const (
	KindConfirmation = "appointment_confirmation"
	KindEdited       = "appointment_edited"
)

// EmailRequest is the payload published for every queued email.
type EmailRequest struct {
	Kind        string            `json:"kind"`
	Appointment model.Appointment `json:"appointment"`
}

// OutboxMailer queues appointment emails through the transactional outbox.
// Queueing is fire-and-forget: a failed insert is logged and swallowed so a
// broken broker path never fails a booking transition.
type OutboxMailer struct {
	outbox *outbox.Repository
	logger *slog.Logger
}

func NewOutboxMailer(repo *outbox.Repository, logger *slog.Logger) *OutboxMailer {
	return &OutboxMailer{outbox: repo, logger: logger}
}

func (m *OutboxMailer) QueueConfirmation(ctx context.Context, appt model.Appointment) {
	m.queue(ctx, KindConfirmation, appt)
}

func (m *OutboxMailer) QueueEdited(ctx context.Context, appt model.Appointment) {
	m.queue(ctx, KindEdited, appt)
}

func (m *OutboxMailer) queue(ctx context.Context, kind string, appt model.Appointment) {
	payload, err := json.Marshal(EmailRequest{Kind: kind, Appointment: appt})
	if err != nil {
		m.logger.Error("email payload marshal failed", "kind", kind, "appointment_id", appt.ID, "err", err)
		return
	}
	err = m.outbox.Insert(ctx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     TopicEmailRequested,
		Payload:       payload,
	})
	if err != nil {
		m.logger.Error("email queue failed", "kind", kind, "appointment_id", appt.ID, "err", err)
		return
	}
	m.logger.Info("email queued", "kind", kind, "appointment_id", appt.ID)
}
