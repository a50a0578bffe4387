package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/model"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/scheduling"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/storage"
)

// PublicHandler serves the unauthenticated patient surface: slot discovery,
// booking, and token-based appointment access.
type PublicHandler struct {
	slots     *scheduling.Calculator
	engine    *scheduling.Engine
	lifecycle *scheduling.Manager
	catalog   *storage.CatalogRepository
	appts     scheduling.AppointmentStore
	logger    *slog.Logger
}

func NewPublicHandler(slots *scheduling.Calculator, engine *scheduling.Engine, lifecycle *scheduling.Manager, catalog *storage.CatalogRepository, appts scheduling.AppointmentStore, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{
		slots:     slots,
		engine:    engine,
		lifecycle: lifecycle,
		catalog:   catalog,
		appts:     appts,
		logger:    logger,
	}
}

type slotsResponse struct {
	SpecialistID string   `json:"specialistId"`
	Date         string   `json:"date"`
	Slots        []string `json:"slots"`
}

// Slots handles GET /api/v1/public/slots?specialistId=...&date=YYYY-MM-DD.
func (h *PublicHandler) Slots(w http.ResponseWriter, r *http.Request) {
	specialistID := strings.TrimSpace(r.URL.Query().Get("specialistId"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if specialistID == "" || date == "" {
		http.Error(w, "specialistId and date are required", http.StatusBadRequest)
		return
	}

	slots, err := h.slots.AvailableSlots(r.Context(), specialistID, date)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, slotsResponse{SpecialistID: specialistID, Date: date, Slots: slots})
}

type bookRequest struct {
	SpecialtyID  string `json:"specialtyId"`
	SpecialistID string `json:"specialistId"`
	Date         string `json:"appointmentDate"`
	Time         string `json:"appointmentTime"`
	PatientName  string `json:"patientName"`
	PatientEmail string `json:"patientEmail"`
	PatientPhone string `json:"patientPhone"`
	Notes        string `json:"notes"`
}

// Book handles POST /api/v1/public/book.
func (h *PublicHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	appt, err := h.engine.Book(r.Context(), scheduling.BookingRequest{
		SpecialtyID:  req.SpecialtyID,
		SpecialistID: req.SpecialistID,
		Date:         req.Date,
		Time:         req.Time,
		PatientName:  req.PatientName,
		PatientEmail: req.PatientEmail,
		PatientPhone: req.PatientPhone,
		Notes:        req.Notes,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// GetByToken handles GET /api/v1/public/appointments/{token}.
func (h *PublicHandler) GetByToken(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	appt, ok, err := h.appts.GetByToken(r.Context(), token)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !ok {
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// CancelByToken handles POST /api/v1/public/appointments/{token}/cancel.
func (h *PublicHandler) CancelByToken(w http.ResponseWriter, r *http.Request) {
	appt, err := h.lifecycle.CancelByToken(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Specialties handles GET /api/v1/public/specialties: the active catalog a
// booking form needs.
func (h *PublicHandler) Specialties(w http.ResponseWriter, r *http.Request) {
	specialties, err := h.catalog.ListSpecialties(r.Context(), true)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if specialties == nil {
		specialties = []model.Specialty{}
	}
	writeJSON(w, http.StatusOK, specialties)
}

// Specialists handles GET /api/v1/public/specialists?specialtyId=...
func (h *PublicHandler) Specialists(w http.ResponseWriter, r *http.Request) {
	specialists, err := h.catalog.ListSpecialists(r.Context(), strings.TrimSpace(r.URL.Query().Get("specialtyId")), true)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if specialists == nil {
		specialists = []model.Specialist{}
	}
	writeJSON(w, http.StatusOK, specialists)
}
