package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/model"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/scheduling"
)

// fakeClinic backs the public handler tests with one specialty, one
// specialist, and availability every day of the week.
type fakeClinic struct {
	specialty  model.Specialty
	specialist model.Specialist
	appts      map[string]model.Appointment
	seq        int
}

func newFakeClinic() *fakeClinic {
	return &fakeClinic{
		specialty:  model.Specialty{ID: "spt-1", Name: "Dermatology", BasePrice: "50.00", DurationMinutes: 60, IsActive: true},
		specialist: model.Specialist{ID: "sp-1", FirstName: "Rosa", LastName: "Mendoza", SpecialtyID: "spt-1", IsActive: true},
		appts:      map[string]model.Appointment{},
	}
}

func (f *fakeClinic) GetSpecialty(_ context.Context, id string) (model.Specialty, bool, error) {
	if id == f.specialty.ID {
		return f.specialty, true, nil
	}
	return model.Specialty{}, false, nil
}

func (f *fakeClinic) GetSpecialist(_ context.Context, id string) (model.Specialist, bool, error) {
	if id == f.specialist.ID {
		return f.specialist, true, nil
	}
	return model.Specialist{}, false, nil
}

func (f *fakeClinic) GetSpecialistInSpecialty(_ context.Context, id, specialtyID string) (model.Specialist, bool, error) {
	if id == f.specialist.ID && specialtyID == f.specialist.SpecialtyID {
		return f.specialist, true, nil
	}
	return model.Specialist{}, false, nil
}

func (f *fakeClinic) GetActiveAvailability(_ context.Context, specialistID string, dayOfWeek int) (model.Availability, bool, error) {
	if specialistID != f.specialist.ID {
		return model.Availability{}, false, nil
	}
	return model.Availability{SpecialistID: specialistID, DayOfWeek: dayOfWeek, StartTime: "08:00", EndTime: "21:00", IsActive: true}, true, nil
}

func (f *fakeClinic) ListActiveByDay(_ context.Context, specialistID, date string) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range f.appts {
		if a.SpecialistID == specialistID && a.Date == date && a.Status.Active() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeClinic) ActiveSlotExists(_ context.Context, specialistID, date, timeHHMM string) (bool, error) {
	for _, a := range f.appts {
		if a.SpecialistID == specialistID && a.Date == date && a.Time == timeHHMM && a.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeClinic) Create(_ context.Context, appt model.Appointment) (model.Appointment, error) {
	f.seq++
	appt.ID = fmt.Sprintf("appt-%d", f.seq)
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = appt.CreatedAt
	f.appts[appt.ID] = appt
	return appt, nil
}

func (f *fakeClinic) GetByID(_ context.Context, id string) (model.Appointment, bool, error) {
	a, ok := f.appts[id]
	return a, ok, nil
}

func (f *fakeClinic) GetByToken(_ context.Context, token string) (model.Appointment, bool, error) {
	for _, a := range f.appts {
		if a.AccessToken == token {
			return a, true, nil
		}
	}
	return model.Appointment{}, false, nil
}

func (f *fakeClinic) Update(_ context.Context, appt model.Appointment) error {
	f.appts[appt.ID] = appt
	return nil
}

func newPublicFixture() (*fakeClinic, http.Handler) {
	clinic := newFakeClinic()
	logger := slog.New(slog.DiscardHandler)
	slots := scheduling.NewCalculator(clinic, clinic, clinic, time.UTC)
	engine := scheduling.NewEngine(clinic, clinic, slots, nil, time.UTC, logger)
	lifecycle := scheduling.NewManager(clinic, clinic, slots, nil, nil, time.UTC, logger)

	mux := http.NewServeMux()
	h := NewPublicHandler(slots, engine, lifecycle, nil, clinic, logger)
	mux.HandleFunc("GET /api/v1/public/slots", h.Slots)
	mux.HandleFunc("POST /api/v1/public/book", h.Book)
	mux.HandleFunc("GET /api/v1/public/appointments/{token}", h.GetByToken)
	mux.HandleFunc("POST /api/v1/public/appointments/{token}/cancel", h.CancelByToken)
	return clinic, mux
}

func TestPublicSlots(t *testing.T) {
	_, mux := newPublicFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?specialistId=sp-1&date=2026-03-02", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Slots []string `json:"slots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Slots) != 14 {
		t.Errorf("expected the full 14-slot grid, got %d: %v", len(resp.Slots), resp.Slots)
	}
}

func TestPublicSlots_MissingParams(t *testing.T) {
	_, mux := newPublicFixture()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?specialistId=sp-1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func bookBody() []byte {
	body, _ := json.Marshal(map[string]string{
		"specialtyId":     "spt-1",
		"specialistId":    "sp-1",
		"appointmentDate": "2026-03-02",
		"appointmentTime": "10:00",
		"patientName":     "Ana Torres",
		"patientEmail":    "ana@example.com",
		"patientPhone":    "+51 999 888 777",
	})
	return body
}

func TestPublicBook(t *testing.T) {
	_, mux := newPublicFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/book", bytes.NewReader(bookBody()))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var appt model.Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if appt.Status != model.StatusPending {
		t.Errorf("expected pending, got %s", appt.Status)
	}
	if len(appt.AccessToken) != 12 {
		t.Errorf("expected a 12-char access token, got %q", appt.AccessToken)
	}

	// Same slot again is a conflict.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/public/book", bytes.NewReader(bookBody())))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on double booking, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPublicBook_BadJSON(t *testing.T) {
	_, mux := newPublicFixture()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/book", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPublicAppointmentByToken(t *testing.T) {
	clinic, mux := newPublicFixture()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/public/book", bytes.NewReader(bookBody())))
	if rec.Code != http.StatusCreated {
		t.Fatalf("book: expected 201, got %d", rec.Code)
	}
	var appt model.Appointment
	_ = json.Unmarshal(rec.Body.Bytes(), &appt)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/public/appointments/"+appt.AccessToken, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get by token: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/public/appointments/"+appt.AccessToken+"/cancel", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := clinic.appts[appt.ID].Status; got != model.StatusCancelled {
		t.Errorf("expected cancelled, got %s", got)
	}

	// Cancelling again is a validation failure.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/public/appointments/"+appt.AccessToken+"/cancel", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("double cancel: expected 400, got %d", rec.Code)
	}
}

func TestPublicAppointmentByToken_Unknown(t *testing.T) {
	_, mux := newPublicFixture()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/public/appointments/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
