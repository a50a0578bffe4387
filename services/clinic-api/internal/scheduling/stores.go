// Package scheduling implements the appointment core: slot computation, the
// booking engine with its double-booking protection, and the appointment
// lifecycle state machine. It talks to persistence only through the narrow
// store interfaces below, which internal/storage implements with Postgres.
package scheduling

import (
	"context"
	"errors"

	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/model"
)

// ErrDuplicateSlot is returned by AppointmentStore.Create when the database
// rejects the insert on the active-slot uniqueness index. The index is the real
// double-booking guarantee; the engine's pre-commit re-check only exists to
// return a friendlier conflict before hitting it.
var ErrDuplicateSlot = errors.New("active appointment already exists for this slot")

type CatalogStore interface {
	GetSpecialty(ctx context.Context, id string) (model.Specialty, bool, error)
	GetSpecialist(ctx context.Context, id string) (model.Specialist, bool, error)
	// GetSpecialistInSpecialty resolves a specialist only when it belongs to
	// the given specialty.
	GetSpecialistInSpecialty(ctx context.Context, id, specialtyID string) (model.Specialist, bool, error)
}

type AvailabilityStore interface {
	// GetActiveAvailability returns an active availability record for the
	// specialist on the given weekday (0=Sunday..6=Saturday), if any.
	GetActiveAvailability(ctx context.Context, specialistID string, dayOfWeek int) (model.Availability, bool, error)
}

type AppointmentStore interface {
	// ListActiveByDay returns the specialist's appointments on the given
	// clinic-local date whose status occupies a slot.
	ListActiveByDay(ctx context.Context, specialistID, date string) ([]model.Appointment, error)
	// ActiveSlotExists reports whether an active appointment occupies the
	// exact (specialist, date, time) tuple.
	ActiveSlotExists(ctx context.Context, specialistID, date, timeHHMM string) (bool, error)
	// Create persists a new appointment, assigning its id. Returns
	// ErrDuplicateSlot when the active-slot uniqueness index rejects it.
	Create(ctx context.Context, appt model.Appointment) (model.Appointment, error)
	GetByID(ctx context.Context, id string) (model.Appointment, bool, error)
	GetByToken(ctx context.Context, token string) (model.Appointment, bool, error)
	Update(ctx context.Context, appt model.Appointment) error
}

// Mailer queues patient email. Implementations must be fire-and-forget: log
// failures, never fail the transition that triggered them.
type Mailer interface {
	QueueConfirmation(ctx context.Context, appt model.Appointment)
	QueueEdited(ctx context.Context, appt model.Appointment)
}

// Webhooks delivers appointment events to the configured automation endpoint.
// Best effort only; errors never reach the caller.
type Webhooks interface {
	Notify(ctx context.Context, event WebhookEvent, appt model.Appointment)
}

type WebhookEvent string

const (
	EventCreated   WebhookEvent = "appointment.created"
	EventConfirmed WebhookEvent = "appointment.confirmed"
	EventCancelled WebhookEvent = "appointment.cancelled"
	EventCompleted WebhookEvent = "appointment.completed"
)
