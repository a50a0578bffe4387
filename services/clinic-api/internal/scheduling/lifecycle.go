package scheduling

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/apperr"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/model"
)

// Manager enforces the appointment state machine:
//
//	pending   -> confirmed | cancelled
//	confirmed -> cancelled | completed
//	completed, cancelled: terminal
//
// It is the only writer allowed to change an appointment's status. Email and
// webhook collaborators are triggered on transitions but can never fail one.
type Manager struct {
	appointments AppointmentStore
	catalog      CatalogStore
	slots        *Calculator
	mailer       Mailer
	webhooks     Webhooks
	loc          *time.Location
	logger       *slog.Logger
	now          func() time.Time
}

func NewManager(appointments AppointmentStore, catalog CatalogStore, slots *Calculator, mailer Mailer, webhooks Webhooks, loc *time.Location, logger *slog.Logger) *Manager {
	return &Manager{
		appointments: appointments,
		catalog:      catalog,
		slots:        slots,
		mailer:       mailer,
		webhooks:     webhooks,
		loc:          loc,
		logger:       logger,
		now:          time.Now,
	}
}

// Confirm resolves a pending appointment: the admin either confirms it or
// rejects it (a rejection is a transition to cancelled). Any other starting
// status is a validation failure.
func (m *Manager) Confirm(ctx context.Context, id string, decision model.AppointmentStatus, adminID string) (model.Appointment, error) {
	if decision != model.StatusConfirmed && decision != model.StatusCancelled {
		return model.Appointment{}, apperr.Validation("decision must be confirmed or cancelled")
	}

	appt, ok, err := m.appointments.GetByID(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if !ok {
		return model.Appointment{}, apperr.NotFound("appointment not found")
	}
	if appt.Status != model.StatusPending {
		return model.Appointment{}, apperr.Validation("only pending appointments can be confirmed or rejected")
	}

	appt.Status = decision
	if decision == model.StatusConfirmed {
		confirmedAt := m.now()
		appt.ConfirmedAt = &confirmedAt
		appt.ConfirmedBy = adminID
	}
	if err := m.appointments.Update(ctx, appt); err != nil {
		return model.Appointment{}, err
	}

	m.logger.Info("appointment resolved", "appointment_id", appt.ID, "status", appt.Status, "admin_id", adminID)
	if decision == model.StatusConfirmed {
		if m.mailer != nil {
			m.mailer.QueueConfirmation(ctx, appt)
		}
		if m.webhooks != nil {
			m.webhooks.Notify(ctx, EventConfirmed, appt)
		}
	} else if m.webhooks != nil {
		m.webhooks.Notify(ctx, EventCancelled, appt)
	}
	return appt, nil
}

// Complete marks a confirmed appointment as attended. Pending appointments
// must be confirmed first; terminal ones cannot move.
func (m *Manager) Complete(ctx context.Context, id string) (model.Appointment, error) {
	appt, ok, err := m.appointments.GetByID(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if !ok {
		return model.Appointment{}, apperr.NotFound("appointment not found")
	}
	if appt.Status != model.StatusConfirmed {
		return model.Appointment{}, apperr.Validation("only confirmed appointments can be completed")
	}

	appt.Status = model.StatusCompleted
	if err := m.appointments.Update(ctx, appt); err != nil {
		return model.Appointment{}, err
	}

	m.logger.Info("appointment completed", "appointment_id", appt.ID)
	if m.webhooks != nil {
		m.webhooks.Notify(ctx, EventCompleted, appt)
	}
	return appt, nil
}

// CancelByToken is the unauthenticated patient path: the access token is the
// only credential. Cancelling frees the slot immediately because slot freedom
// is derived from status.
func (m *Manager) CancelByToken(ctx context.Context, token string) (model.Appointment, error) {
	appt, ok, err := m.appointments.GetByToken(ctx, token)
	if err != nil {
		return model.Appointment{}, err
	}
	if !ok {
		return model.Appointment{}, apperr.NotFound("appointment not found")
	}
	if appt.Status == model.StatusCompleted {
		return model.Appointment{}, apperr.Validation("a completed appointment cannot be cancelled")
	}
	if appt.Status == model.StatusCancelled {
		return model.Appointment{}, apperr.Validation("appointment is already cancelled")
	}

	appt.Status = model.StatusCancelled
	if err := m.appointments.Update(ctx, appt); err != nil {
		return model.Appointment{}, err
	}

	m.logger.Info("appointment cancelled by patient", "appointment_id", appt.ID)
	if m.webhooks != nil {
		m.webhooks.Notify(ctx, EventCancelled, appt)
	}
	return appt, nil
}

// EditRequest carries the admin-editable fields; nil means "leave unchanged".
// Status is deliberately absent: status only moves through Confirm, Complete
// and CancelByToken.
type EditRequest struct {
	SpecialtyID  *string
	SpecialistID *string
	Date         *string
	Time         *string
	PatientName  *string
	PatientEmail *string
	PatientPhone *string
	Notes        *string
}

// Edit updates an appointment that is still in play. Moving it to another
// specialist, date or time re-runs the same availability check as a fresh
// booking, except that re-submitting the appointment's own unchanged slot is
// allowed. Changing specialty reprices from the new specialty's base price.
func (m *Manager) Edit(ctx context.Context, id string, req EditRequest) (model.Appointment, error) {
	appt, ok, err := m.appointments.GetByID(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if !ok {
		return model.Appointment{}, apperr.NotFound("appointment not found")
	}
	if appt.Status.Terminal() {
		return model.Appointment{}, apperr.Validation("completed or cancelled appointments cannot be edited")
	}

	if req.SpecialtyID != nil && *req.SpecialtyID != appt.SpecialtyID {
		specialty, ok, err := m.catalog.GetSpecialty(ctx, *req.SpecialtyID)
		if err != nil {
			return model.Appointment{}, err
		}
		if !ok {
			return model.Appointment{}, apperr.NotFound("specialty not found")
		}
		appt.SpecialtyID = specialty.ID
		appt.Price = specialty.BasePrice
	}

	if req.SpecialistID != nil && *req.SpecialistID != appt.SpecialistID {
		if _, ok, err := m.catalog.GetSpecialistInSpecialty(ctx, *req.SpecialistID, appt.SpecialtyID); err != nil {
			return model.Appointment{}, err
		} else if !ok {
			return model.Appointment{}, apperr.NotFound("specialist not found or does not belong to this specialty")
		}
	}

	newSpecialist := appt.SpecialistID
	if req.SpecialistID != nil {
		newSpecialist = *req.SpecialistID
	}
	newDate := appt.Date
	if req.Date != nil {
		day, err := parseClinicDate(*req.Date, m.loc)
		if err != nil {
			return model.Appointment{}, err
		}
		newDate = day.Format(dateLayout)
	}
	newTime := normalizeTime(appt.Time)
	if req.Time != nil {
		hour, err := parseSlotTime(*req.Time)
		if err != nil {
			return model.Appointment{}, err
		}
		if !hourInGrid(hour) || !strings.HasSuffix(*req.Time, ":00") {
			return model.Appointment{}, apperr.Validation("time is outside the bookable range (08:00-21:00, hourly)")
		}
		newTime = *req.Time
	}

	slotMoved := newSpecialist != appt.SpecialistID || newDate != appt.Date || newTime != normalizeTime(appt.Time)
	if slotMoved {
		available, err := m.slots.AvailableSlots(ctx, newSpecialist, newDate)
		if err != nil {
			return model.Appointment{}, err
		}
		if !contains(available, newTime) {
			return model.Appointment{}, apperr.Conflict("slot not available")
		}
	}

	appt.SpecialistID = newSpecialist
	appt.Date = newDate
	appt.Time = newTime
	if req.PatientName != nil && strings.TrimSpace(*req.PatientName) != "" {
		appt.PatientName = strings.TrimSpace(*req.PatientName)
	}
	if req.PatientEmail != nil && strings.TrimSpace(*req.PatientEmail) != "" {
		appt.PatientEmail = strings.TrimSpace(*req.PatientEmail)
	}
	if req.PatientPhone != nil && strings.TrimSpace(*req.PatientPhone) != "" {
		appt.PatientPhone = strings.TrimSpace(*req.PatientPhone)
	}
	if req.Notes != nil {
		appt.Notes = *req.Notes
	}

	if err := m.appointments.Update(ctx, appt); err != nil {
		if errors.Is(err, ErrDuplicateSlot) {
			return model.Appointment{}, apperr.Conflict("this slot was just booked by someone else, please pick another")
		}
		return model.Appointment{}, err
	}

	m.logger.Info("appointment edited", "appointment_id", appt.ID)
	if m.mailer != nil {
		m.mailer.QueueEdited(ctx, appt)
	}
	return appt, nil
}
