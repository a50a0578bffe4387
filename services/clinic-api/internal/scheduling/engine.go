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

// Engine validates and commits new bookings. There is no global lock per slot:
// the availability check plus the pre-commit re-check narrow the race window,
// and the store's active-slot uniqueness index closes it.
type Engine struct {
	catalog      CatalogStore
	appointments AppointmentStore
	slots        *Calculator
	webhooks     Webhooks
	loc          *time.Location
	logger       *slog.Logger
}

func NewEngine(catalog CatalogStore, appointments AppointmentStore, slots *Calculator, webhooks Webhooks, loc *time.Location, logger *slog.Logger) *Engine {
	return &Engine{
		catalog:      catalog,
		appointments: appointments,
		slots:        slots,
		webhooks:     webhooks,
		loc:          loc,
		logger:       logger,
	}
}

type BookingRequest struct {
	SpecialtyID  string
	SpecialistID string
	Date         string // YYYY-MM-DD, clinic-local
	Time         string // HH:MM on the hourly grid
	PatientName  string
	PatientEmail string
	PatientPhone string
	Notes        string
}

// Validate checks the request fields that don't need store access. It runs
// before the engine is invoked so malformed input never reaches the stores.
func (r *BookingRequest) Validate() error {
	if strings.TrimSpace(r.SpecialtyID) == "" {
		return apperr.Validation("specialtyId is required")
	}
	if strings.TrimSpace(r.SpecialistID) == "" {
		return apperr.Validation("specialistId is required")
	}
	if strings.TrimSpace(r.PatientName) == "" {
		return apperr.Validation("patientName is required")
	}
	if strings.TrimSpace(r.PatientEmail) == "" || !strings.Contains(r.PatientEmail, "@") {
		return apperr.Validation("a valid patientEmail is required")
	}
	if strings.TrimSpace(r.PatientPhone) == "" {
		return apperr.Validation("patientPhone is required")
	}
	return nil
}

// Book runs the full validation sequence and persists the appointment in
// status pending. Each failure is distinct: unknown specialty/specialist are
// not found, an off-grid time is a validation failure, and an occupied slot is
// a conflict whether caught at the availability check, the pre-commit
// re-check, or the uniqueness index itself.
func (e *Engine) Book(ctx context.Context, req BookingRequest) (model.Appointment, error) {
	if err := req.Validate(); err != nil {
		return model.Appointment{}, err
	}

	specialty, ok, err := e.catalog.GetSpecialty(ctx, req.SpecialtyID)
	if err != nil {
		return model.Appointment{}, err
	}
	if !ok {
		return model.Appointment{}, apperr.NotFound("specialty not found")
	}

	if _, ok, err = e.catalog.GetSpecialistInSpecialty(ctx, req.SpecialistID, req.SpecialtyID); err != nil {
		return model.Appointment{}, err
	} else if !ok {
		return model.Appointment{}, apperr.NotFound("specialist not found or does not belong to this specialty")
	}

	day, err := parseClinicDate(req.Date, e.loc)
	if err != nil {
		return model.Appointment{}, err
	}
	date := day.Format(dateLayout)

	hour, err := parseSlotTime(req.Time)
	if err != nil {
		return model.Appointment{}, err
	}
	if !hourInGrid(hour) || !strings.HasSuffix(req.Time, ":00") {
		return model.Appointment{}, apperr.Validation("time is outside the bookable range (08:00-21:00, hourly)")
	}

	available, err := e.slots.AvailableSlots(ctx, req.SpecialistID, date)
	if err != nil {
		return model.Appointment{}, err
	}
	if !contains(available, req.Time) {
		return model.Appointment{}, apperr.Conflict("slot not available")
	}

	// Re-check right before the write. Another request may have taken the slot
	// between the availability read and now; catching it here returns a
	// friendlier conflict than the index violation below.
	taken, err := e.appointments.ActiveSlotExists(ctx, req.SpecialistID, date, req.Time)
	if err != nil {
		return model.Appointment{}, err
	}
	if taken {
		return model.Appointment{}, apperr.Conflict("this slot was just booked by someone else, please pick another")
	}

	token, err := NewAccessToken()
	if err != nil {
		return model.Appointment{}, err
	}

	appt, err := e.appointments.Create(ctx, model.Appointment{
		SpecialtyID:  req.SpecialtyID,
		SpecialistID: req.SpecialistID,
		Date:         date,
		Time:         req.Time,
		Status:       model.StatusPending,
		Price:        specialty.BasePrice,
		PatientName:  strings.TrimSpace(req.PatientName),
		PatientEmail: strings.TrimSpace(req.PatientEmail),
		PatientPhone: strings.TrimSpace(req.PatientPhone),
		AccessToken:  token,
		Notes:        strings.TrimSpace(req.Notes),
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateSlot) {
			return model.Appointment{}, apperr.Conflict("this slot was just booked by someone else, please pick another")
		}
		return model.Appointment{}, err
	}

	e.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"specialist_id", appt.SpecialistID,
		"date", appt.Date,
		"time", appt.Time,
	)
	if e.webhooks != nil {
		e.webhooks.Notify(ctx, EventCreated, appt)
	}
	return appt, nil
}

func contains(slots []string, want string) bool {
	for _, s := range slots {
		if s == want {
			return true
		}
	}
	return false
}
