package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/apperr"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/model"
)

type lifecycleFixture struct {
	store   *memStore
	mailer  *recordingMailer
	hooks   *recordingWebhooks
	engine  *Engine
	manager *Manager
}

func newLifecycleFixture() *lifecycleFixture {
	store := newBookedStore()
	mailer := &recordingMailer{}
	hooks := &recordingWebhooks{}
	calc := newTestCalculator(store)
	return &lifecycleFixture{
		store:   store,
		mailer:  mailer,
		hooks:   hooks,
		engine:  NewEngine(store, store, calc, nil, time.UTC, testLogger()),
		manager: NewManager(store, store, calc, mailer, hooks, time.UTC, testLogger()),
	}
}

func (f *lifecycleFixture) book(t *testing.T, slot string) model.Appointment {
	t.Helper()
	req := validRequest()
	req.Time = slot
	appt, err := f.engine.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("Book %s: %v", slot, err)
	}
	return appt
}

func TestConfirm_PendingToConfirmed(t *testing.T) {
	f := newLifecycleFixture()
	appt := f.book(t, "10:00")

	before := time.Now()
	got, err := f.manager.Confirm(context.Background(), appt.ID, model.StatusConfirmed, "admin-1")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if got.Status != model.StatusConfirmed {
		t.Errorf("expected confirmed, got %s", got.Status)
	}
	if got.ConfirmedAt == nil || got.ConfirmedAt.Before(before) {
		t.Errorf("expected ConfirmedAt stamped, got %v", got.ConfirmedAt)
	}
	if got.ConfirmedBy != "admin-1" {
		t.Errorf("expected ConfirmedBy admin-1, got %q", got.ConfirmedBy)
	}
	if len(f.mailer.mails) != 1 || f.mailer.mails[0].kind != "confirmation" {
		t.Errorf("expected a confirmation mail, got %+v", f.mailer.mails)
	}
	if len(f.hooks.hooks) != 1 || f.hooks.hooks[0].event != EventConfirmed {
		t.Errorf("expected a confirmed webhook, got %+v", f.hooks.hooks)
	}
}

func TestConfirm_PendingRejectedToCancelled(t *testing.T) {
	f := newLifecycleFixture()
	appt := f.book(t, "10:00")

	got, err := f.manager.Confirm(context.Background(), appt.ID, model.StatusCancelled, "admin-1")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if got.Status != model.StatusCancelled {
		t.Errorf("expected cancelled, got %s", got.Status)
	}
	if got.ConfirmedAt != nil || got.ConfirmedBy != "" {
		t.Errorf("rejection must not stamp confirmation fields: %+v", got)
	}
	if len(f.mailer.mails) != 0 {
		t.Errorf("rejection must not queue mail, got %+v", f.mailer.mails)
	}
	if len(f.hooks.hooks) != 1 || f.hooks.hooks[0].event != EventCancelled {
		t.Errorf("expected a cancelled webhook, got %+v", f.hooks.hooks)
	}
}

func TestConfirm_InvalidDecision(t *testing.T) {
	f := newLifecycleFixture()
	appt := f.book(t, "10:00")

	for _, decision := range []model.AppointmentStatus{model.StatusPending, model.StatusCompleted, "bogus"} {
		if _, err := f.manager.Confirm(context.Background(), appt.ID, decision, "admin-1"); !apperr.IsValidation(err) {
			t.Errorf("decision %q: expected validation failure, got %v", decision, err)
		}
	}
}

func TestConfirm_OnlyFromPending(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()

	for _, status := range []model.AppointmentStatus{model.StatusConfirmed, model.StatusCancelled, model.StatusCompleted} {
		appt := f.book(t, "10:00")
		appt.Status = status
		if err := f.store.Update(ctx, appt); err != nil {
			t.Fatalf("Update: %v", err)
		}
		if _, err := f.manager.Confirm(ctx, appt.ID, model.StatusConfirmed, "admin-1"); !apperr.IsValidation(err) {
			t.Errorf("from %s: expected validation failure, got %v", status, err)
		}
		appt.Status = model.StatusCancelled
		if err := f.store.Update(ctx, appt); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
}

func TestConfirm_UnknownAppointment(t *testing.T) {
	f := newLifecycleFixture()
	if _, err := f.manager.Confirm(context.Background(), "missing", model.StatusConfirmed, "admin-1"); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestComplete_RequiresConfirmed(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()
	appt := f.book(t, "10:00")

	// Pending cannot complete without confirmation first.
	if _, err := f.manager.Complete(ctx, appt.ID); !apperr.IsValidation(err) {
		t.Fatalf("pending: expected validation failure, got %v", err)
	}

	if _, err := f.manager.Confirm(ctx, appt.ID, model.StatusConfirmed, "admin-1"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	got, err := f.manager.Complete(ctx, appt.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Status != model.StatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}

	// Terminal states stay terminal.
	if _, err := f.manager.Complete(ctx, appt.ID); !apperr.IsValidation(err) {
		t.Errorf("completed: expected validation failure, got %v", err)
	}
}

func TestComplete_UnknownAppointment(t *testing.T) {
	f := newLifecycleFixture()
	if _, err := f.manager.Complete(context.Background(), "missing"); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCancelByToken_ReleasesSlot(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()
	appt := f.book(t, "10:00")

	got, err := f.manager.CancelByToken(ctx, appt.AccessToken)
	if err != nil {
		t.Fatalf("CancelByToken: %v", err)
	}
	if got.Status != model.StatusCancelled {
		t.Errorf("expected cancelled, got %s", got.Status)
	}
	if len(f.hooks.hooks) != 1 || f.hooks.hooks[0].event != EventCancelled {
		t.Errorf("expected a cancelled webhook, got %+v", f.hooks.hooks)
	}

	// The slot is free again for new bookings.
	slots, err := newTestCalculator(f.store).AvailableSlots(ctx, "sp-1", mondayDate)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if !contains(slots, "10:00") {
		t.Errorf("expected 10:00 freed after cancellation, got %v", slots)
	}
}

func TestCancelByToken_ConfirmedCanCancel(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()
	appt := f.book(t, "10:00")
	if _, err := f.manager.Confirm(ctx, appt.ID, model.StatusConfirmed, "admin-1"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, err := f.manager.CancelByToken(ctx, appt.AccessToken); err != nil {
		t.Fatalf("CancelByToken: %v", err)
	}
}

func TestCancelByToken_TerminalStates(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()
	appt := f.book(t, "10:00")

	if _, err := f.manager.CancelByToken(ctx, appt.AccessToken); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if _, err := f.manager.CancelByToken(ctx, appt.AccessToken); !apperr.IsValidation(err) {
		t.Errorf("already cancelled: expected validation failure, got %v", err)
	}

	done := f.book(t, "11:00")
	done.Status = model.StatusCompleted
	if err := f.store.Update(ctx, done); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := f.manager.CancelByToken(ctx, done.AccessToken); !apperr.IsValidation(err) {
		t.Errorf("completed: expected validation failure, got %v", err)
	}
}

func TestCancelByToken_UnknownToken(t *testing.T) {
	f := newLifecycleFixture()
	if _, err := f.manager.CancelByToken(context.Background(), "nope"); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func strptr(s string) *string { return &s }

func TestEdit_TerminalRejected(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()
	appt := f.book(t, "10:00")
	appt.Status = model.StatusCompleted
	if err := f.store.Update(ctx, appt); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := f.manager.Edit(ctx, appt.ID, EditRequest{Notes: strptr("x")}); !apperr.IsValidation(err) {
		t.Fatalf("expected validation failure, got %v", err)
	}
}

func TestEdit_SpecialtyChangeReprices(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()
	f.store.addSpecialty("spt-2", "120.00")
	f.store.addSpecialist("sp-2", "spt-2")
	f.store.addAvailability("sp-2", 1)
	appt := f.book(t, "10:00")

	got, err := f.manager.Edit(ctx, appt.ID, EditRequest{
		SpecialtyID:  strptr("spt-2"),
		SpecialistID: strptr("sp-2"),
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if got.SpecialtyID != "spt-2" || got.SpecialistID != "sp-2" {
		t.Errorf("expected move to spt-2/sp-2, got %s/%s", got.SpecialtyID, got.SpecialistID)
	}
	if got.Price != "120.00" {
		t.Errorf("expected reprice to 120.00, got %q", got.Price)
	}
	if len(f.mailer.mails) != 1 || f.mailer.mails[0].kind != "edited" {
		t.Errorf("expected an edited mail, got %+v", f.mailer.mails)
	}
}

func TestEdit_SpecialistMustBelongToSpecialty(t *testing.T) {
	f := newLifecycleFixture()
	f.store.addSpecialty("spt-2", "120.00")
	f.store.addSpecialist("sp-2", "spt-2")
	appt := f.book(t, "10:00")

	// sp-2 does not belong to the appointment's current specialty.
	if _, err := f.manager.Edit(context.Background(), appt.ID, EditRequest{SpecialistID: strptr("sp-2")}); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEdit_OwnSlotUnchangedIsAllowed(t *testing.T) {
	f := newLifecycleFixture()
	appt := f.book(t, "10:00")

	// Re-submitting the same slot is not a conflict with itself.
	got, err := f.manager.Edit(context.Background(), appt.ID, EditRequest{
		Date:        strptr(mondayDate),
		Time:        strptr("10:00"),
		PatientName: strptr("Ana T. Quispe"),
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if got.PatientName != "Ana T. Quispe" {
		t.Errorf("expected name updated, got %q", got.PatientName)
	}
}

func TestEdit_MoveToOccupiedSlotConflicts(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()
	f.book(t, "10:00")
	second := f.book(t, "11:00")

	if _, err := f.manager.Edit(ctx, second.ID, EditRequest{Time: strptr("10:00")}); !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestEdit_UniqueViolationTranslatedToConflict(t *testing.T) {
	f := newLifecycleFixture()
	appt := f.book(t, "10:00")

	// Another booking wins the slot between the availability check and the
	// write, so the store surfaces the index rejection.
	f.store.updateErr = ErrDuplicateSlot
	if _, err := f.manager.Edit(context.Background(), appt.ID, EditRequest{Time: strptr("15:00")}); !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestEdit_MoveToFreeSlot(t *testing.T) {
	f := newLifecycleFixture()
	appt := f.book(t, "10:00")

	got, err := f.manager.Edit(context.Background(), appt.ID, EditRequest{Time: strptr("15:00")})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if got.Time != "15:00" {
		t.Errorf("expected move to 15:00, got %s", got.Time)
	}

	slots, err := newTestCalculator(f.store).AvailableSlots(context.Background(), "sp-1", mondayDate)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if !contains(slots, "10:00") || contains(slots, "15:00") {
		t.Errorf("expected 10:00 freed and 15:00 taken, got %v", slots)
	}
}

func TestEdit_OffGridTimeRejected(t *testing.T) {
	f := newLifecycleFixture()
	appt := f.book(t, "10:00")

	for _, tc := range []string{"07:00", "22:00", "10:30"} {
		if _, err := f.manager.Edit(context.Background(), appt.ID, EditRequest{Time: strptr(tc)}); !apperr.IsValidation(err) {
			t.Errorf("time %q: expected validation failure, got %v", tc, err)
		}
	}
}
