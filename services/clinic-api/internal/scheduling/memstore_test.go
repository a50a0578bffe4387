package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/model"
)

// memStore backs the core with maps so the engine and lifecycle manager can be
// exercised without Postgres. It enforces the same active-slot uniqueness rule
// the partial index enforces in production.
type memStore struct {
	mu          sync.Mutex
	specialties map[string]model.Specialty
	specialists map[string]model.Specialist
	avail       []model.Availability
	appts       map[string]model.Appointment
	seq         int

	createErr error // when set, Create fails with this error after all checks
	updateErr error // when set, Update fails with this error
}

func newMemStore() *memStore {
	return &memStore{
		specialties: map[string]model.Specialty{},
		specialists: map[string]model.Specialist{},
		appts:       map[string]model.Appointment{},
	}
}

func (s *memStore) addSpecialty(id, basePrice string) {
	s.specialties[id] = model.Specialty{ID: id, Name: "specialty-" + id, BasePrice: basePrice, IsActive: true}
}

func (s *memStore) addSpecialist(id, specialtyID string) {
	s.specialists[id] = model.Specialist{ID: id, FirstName: "spec", LastName: id, SpecialtyID: specialtyID, IsActive: true}
}

func (s *memStore) addAvailability(specialistID string, dayOfWeek int) {
	s.avail = append(s.avail, model.Availability{
		SpecialistID: specialistID,
		DayOfWeek:    dayOfWeek,
		StartTime:    "08:00",
		EndTime:      "22:00",
		IsActive:     true,
	})
}

func (s *memStore) GetSpecialty(_ context.Context, id string) (model.Specialty, bool, error) {
	sp, ok := s.specialties[id]
	return sp, ok, nil
}

func (s *memStore) GetSpecialist(_ context.Context, id string) (model.Specialist, bool, error) {
	sp, ok := s.specialists[id]
	return sp, ok, nil
}

func (s *memStore) GetSpecialistInSpecialty(_ context.Context, id, specialtyID string) (model.Specialist, bool, error) {
	sp, ok := s.specialists[id]
	if !ok || sp.SpecialtyID != specialtyID {
		return model.Specialist{}, false, nil
	}
	return sp, true, nil
}

func (s *memStore) GetActiveAvailability(_ context.Context, specialistID string, dayOfWeek int) (model.Availability, bool, error) {
	for _, a := range s.avail {
		if a.SpecialistID == specialistID && a.DayOfWeek == dayOfWeek && a.IsActive {
			return a, true, nil
		}
	}
	return model.Availability{}, false, nil
}

func (s *memStore) ListActiveByDay(_ context.Context, specialistID, date string) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Appointment
	for _, a := range s.appts {
		if a.SpecialistID == specialistID && a.Date == date && a.Status.Active() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) ActiveSlotExists(_ context.Context, specialistID, date, timeHHMM string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeSlotLocked(specialistID, date, timeHHMM), nil
}

func (s *memStore) activeSlotLocked(specialistID, date, timeHHMM string) bool {
	for _, a := range s.appts {
		if a.SpecialistID == specialistID && a.Date == date && normalizeTime(a.Time) == timeHHMM && a.Status.Active() {
			return true
		}
	}
	return false
}

func (s *memStore) Create(_ context.Context, appt model.Appointment) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return model.Appointment{}, s.createErr
	}
	if s.activeSlotLocked(appt.SpecialistID, appt.Date, normalizeTime(appt.Time)) {
		return model.Appointment{}, ErrDuplicateSlot
	}
	s.seq++
	appt.ID = fmt.Sprintf("appt-%d", s.seq)
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = appt.CreatedAt
	s.appts[appt.ID] = appt
	return appt, nil
}

func (s *memStore) GetByID(_ context.Context, id string) (model.Appointment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appts[id]
	return a, ok, nil
}

func (s *memStore) GetByToken(_ context.Context, token string) (model.Appointment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.appts {
		if a.AccessToken == token {
			return a, true, nil
		}
	}
	return model.Appointment{}, false, nil
}

func (s *memStore) Update(_ context.Context, appt model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	appt.UpdatedAt = time.Now()
	s.appts[appt.ID] = appt
	return nil
}

type recordedMail struct {
	kind string
	appt model.Appointment
}

type recordingMailer struct {
	mails []recordedMail
}

func (m *recordingMailer) QueueConfirmation(_ context.Context, appt model.Appointment) {
	m.mails = append(m.mails, recordedMail{kind: "confirmation", appt: appt})
}

func (m *recordingMailer) QueueEdited(_ context.Context, appt model.Appointment) {
	m.mails = append(m.mails, recordedMail{kind: "edited", appt: appt})
}

type recordedHook struct {
	event WebhookEvent
	appt  model.Appointment
}

type recordingWebhooks struct {
	hooks []recordedHook
}

func (w *recordingWebhooks) Notify(_ context.Context, event WebhookEvent, appt model.Appointment) {
	w.hooks = append(w.hooks, recordedHook{event: event, appt: appt})
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// mondayDate is a Monday (weekday 1) used across the tests.
const mondayDate = "2026-03-02"
