package scheduling

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/apperr"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/model"
)

func newBookedStore() *memStore {
	store := newMemStore()
	store.addSpecialty("spt-1", "50.00")
	store.addSpecialist("sp-1", "spt-1")
	store.addAvailability("sp-1", 1)
	return store
}

func newTestEngine(store *memStore, hooks Webhooks) *Engine {
	return NewEngine(store, store, newTestCalculator(store), hooks, time.UTC, testLogger())
}

func validRequest() BookingRequest {
	return BookingRequest{
		SpecialtyID:  "spt-1",
		SpecialistID: "sp-1",
		Date:         mondayDate,
		Time:         "10:00",
		PatientName:  "Ana Torres",
		PatientEmail: "ana@example.com",
		PatientPhone: "+51 999 888 777",
		Notes:        "knee pain",
	}
}

func TestBook_Success(t *testing.T) {
	store := newBookedStore()
	hooks := &recordingWebhooks{}
	engine := newTestEngine(store, hooks)

	appt, err := engine.Book(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if appt.Status != model.StatusPending {
		t.Errorf("expected status pending, got %s", appt.Status)
	}
	if appt.Price != "50.00" {
		t.Errorf("expected price copied from specialty, got %q", appt.Price)
	}
	if len(appt.AccessToken) != tokenLength {
		t.Errorf("expected %d-char access token, got %q", tokenLength, appt.AccessToken)
	}
	if appt.ID == "" {
		t.Error("expected an assigned id")
	}
	if len(hooks.hooks) != 1 || hooks.hooks[0].event != EventCreated {
		t.Errorf("expected a created webhook, got %+v", hooks.hooks)
	}
}

func TestBook_SpecialtyNotFound(t *testing.T) {
	engine := newTestEngine(newBookedStore(), nil)
	req := validRequest()
	req.SpecialtyID = "missing"
	if _, err := engine.Book(context.Background(), req); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBook_SpecialistMustBelongToSpecialty(t *testing.T) {
	store := newBookedStore()
	store.addSpecialty("spt-2", "80.00")
	engine := newTestEngine(store, nil)

	req := validRequest()
	req.SpecialtyID = "spt-2" // sp-1 belongs to spt-1
	if _, err := engine.Book(context.Background(), req); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBook_TimeOutsideGrid(t *testing.T) {
	engine := newTestEngine(newBookedStore(), nil)

	for _, tc := range []string{"07:00", "22:00", "23:00", "10:30", "8:00", "bogus"} {
		req := validRequest()
		req.Time = tc
		if _, err := engine.Book(context.Background(), req); !apperr.IsValidation(err) {
			t.Errorf("time %q: expected validation failure, got %v", tc, err)
		}
	}
}

func TestBook_MissingFields(t *testing.T) {
	engine := newTestEngine(newBookedStore(), nil)

	mutations := map[string]func(*BookingRequest){
		"specialty":  func(r *BookingRequest) { r.SpecialtyID = "" },
		"specialist": func(r *BookingRequest) { r.SpecialistID = " " },
		"name":       func(r *BookingRequest) { r.PatientName = "" },
		"email":      func(r *BookingRequest) { r.PatientEmail = "not-an-email" },
		"phone":      func(r *BookingRequest) { r.PatientPhone = "" },
	}
	for name, mutate := range mutations {
		req := validRequest()
		mutate(&req)
		if _, err := engine.Book(context.Background(), req); !apperr.IsValidation(err) {
			t.Errorf("%s: expected validation failure, got %v", name, err)
		}
	}
}

func TestBook_SlotAlreadyTaken(t *testing.T) {
	store := newBookedStore()
	engine := newTestEngine(store, nil)

	if _, err := engine.Book(context.Background(), validRequest()); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	_, err := engine.Book(context.Background(), validRequest())
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict for double booking, got %v", err)
	}
}

func TestBook_ConcurrentSameSlotOnlyOneWins(t *testing.T) {
	store := newBookedStore()
	engine := newTestEngine(store, nil)

	const racers = 8
	errs := make(chan error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Book(context.Background(), validRequest())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var won, lost int
	for err := range errs {
		switch {
		case err == nil:
			won++
		case apperr.IsConflict(err):
			lost++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if won != 1 || lost != racers-1 {
		t.Fatalf("expected exactly one winner and %d conflicts, got %d winners and %d conflicts", racers-1, won, lost)
	}
}

func TestBook_NoAvailabilityThatDayConflicts(t *testing.T) {
	store := newBookedStore()
	engine := newTestEngine(store, nil)

	req := validRequest()
	req.Date = "2026-03-03" // Tuesday, no availability configured
	if _, err := engine.Book(context.Background(), req); !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestBook_UniqueViolationTranslatedToConflict(t *testing.T) {
	store := newBookedStore()
	// Simulate the race the pre-check cannot see: the insert itself trips the
	// active-slot uniqueness index.
	store.createErr = ErrDuplicateSlot
	engine := newTestEngine(store, nil)

	_, err := engine.Book(context.Background(), validRequest())
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestBook_CancelledSlotIsRebookable(t *testing.T) {
	store := newBookedStore()
	engine := newTestEngine(store, nil)

	appt, err := engine.Book(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	appt.Status = model.StatusCancelled
	if err := store.Update(context.Background(), appt); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if _, err := engine.Book(context.Background(), validRequest()); err != nil {
		t.Fatalf("rebooking a cancelled slot should succeed, got %v", err)
	}
}

func TestBook_TokensAreUnique(t *testing.T) {
	store := newBookedStore()
	engine := newTestEngine(store, nil)

	seen := map[string]bool{}
	for _, slot := range []string{"08:00", "09:00", "10:00", "11:00", "12:00"} {
		req := validRequest()
		req.Time = slot
		appt, err := engine.Book(context.Background(), req)
		if err != nil {
			t.Fatalf("Book %s: %v", slot, err)
		}
		if seen[appt.AccessToken] {
			t.Fatalf("duplicate access token %q", appt.AccessToken)
		}
		seen[appt.AccessToken] = true
	}
}
