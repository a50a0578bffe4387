package scheduling

import (
	"context"
	"time"

	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/apperr"
)

// Calculator derives the bookable slots for a specialist on a date from the
// weekly availability pattern and the appointments already on the books. It
// only reads; the booking engine and lifecycle manager are the writers.
type Calculator struct {
	catalog      CatalogStore
	availability AvailabilityStore
	appointments AppointmentStore
	loc          *time.Location
}

func NewCalculator(catalog CatalogStore, availability AvailabilityStore, appointments AppointmentStore, loc *time.Location) *Calculator {
	return &Calculator{
		catalog:      catalog,
		availability: availability,
		appointments: appointments,
		loc:          loc,
	}
}

// AvailableSlots returns the free HH:MM slots for the specialist on the given
// YYYY-MM-DD date, ascending. A weekday with no active availability yields an
// empty list, not an error. Two calls without intervening writes return the
// same result.
func (c *Calculator) AvailableSlots(ctx context.Context, specialistID, date string) ([]string, error) {
	if _, ok, err := c.catalog.GetSpecialist(ctx, specialistID); err != nil {
		return nil, err
	} else if !ok {
		return nil, apperr.NotFound("specialist not found")
	}

	day, err := parseClinicDate(date, c.loc)
	if err != nil {
		return nil, err
	}

	_, active, err := c.availability.GetActiveAvailability(ctx, specialistID, int(day.Weekday()))
	if err != nil {
		return nil, err
	}
	if !active {
		return []string{}, nil
	}

	booked, err := c.appointments.ListActiveByDay(ctx, specialistID, day.Format(dateLayout))
	if err != nil {
		return nil, err
	}

	occupied := make(map[string]bool, len(booked))
	for _, appt := range booked {
		occupied[normalizeTime(appt.Time)] = true
	}

	free := make([]string, 0, gridLastHour-gridFirstHour+1)
	for _, slot := range Grid() {
		if !occupied[slot] {
			free = append(free, slot)
		}
	}
	return free, nil
}
