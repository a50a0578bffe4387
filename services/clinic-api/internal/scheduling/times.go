package scheduling

import (
	"fmt"
	"time"

	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/apperr"
)

// The bookable grid is fixed: hourly slots from 08:00 to 21:00 inclusive,
// 14 per day. Availability records gate whether a weekday has slots at all;
// their start/end times do not clip the grid.
const (
	gridFirstHour = 8
	gridLastHour  = 21
	dateLayout    = "2006-01-02"
)

// Grid returns the canonical daily slot grid in ascending order.
func Grid() []string {
	slots := make([]string, 0, gridLastHour-gridFirstHour+1)
	for hour := gridFirstHour; hour <= gridLastHour; hour++ {
		slots = append(slots, fmt.Sprintf("%02d:00", hour))
	}
	return slots
}

// parseClinicDate parses a YYYY-MM-DD string as a calendar date in the clinic
// timezone. Parsing in the clinic location keeps the weekday correct; the date
// is never converted through UTC.
func parseClinicDate(raw string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, apperr.Validation(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw))
	}
	return d, nil
}

// normalizeTime reduces a stored time to minute precision: the database hands
// back "09:00:00" while the grid uses "09:00".
func normalizeTime(raw string) string {
	if len(raw) > 5 {
		return raw[:5]
	}
	return raw
}

// parseSlotTime validates an HH:MM input and returns its hour. Seconds are not
// accepted at the API boundary.
func parseSlotTime(raw string) (int, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(raw, "%02d:%02d", &hour, &minute); err != nil || len(raw) != 5 {
		return 0, apperr.Validation(fmt.Sprintf("invalid time %q, expected HH:MM", raw))
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, apperr.Validation(fmt.Sprintf("invalid time %q", raw))
	}
	return hour, nil
}

func hourInGrid(hour int) bool {
	return hour >= gridFirstHour && hour <= gridLastHour
}
