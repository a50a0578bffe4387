package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/model"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/scheduling"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/storage"
)

// AppointmentHandler serves the authenticated admin appointment surface.
type AppointmentHandler struct {
	repo      *storage.AppointmentRepository
	lifecycle *scheduling.Manager
	logger    *slog.Logger
}

func NewAppointmentHandler(repo *storage.AppointmentRepository, lifecycle *scheduling.Manager, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{repo: repo, lifecycle: lifecycle, logger: logger}
}

type listResponse struct {
	Appointments []model.Appointment `json:"appointments"`
	Total        int                 `json:"total"`
}

// List handles GET /api/v1/admin/appointments with optional status,
// specialist, specialty, date range and paging filters.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status := strings.TrimSpace(q.Get("status"))
	if status != "" {
		if _, ok := model.ParseStatus(status); !ok {
			http.Error(w, "unknown status", http.StatusBadRequest)
			return
		}
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}

	appts, total, err := h.repo.List(r.Context(), storage.ListFilter{
		Status:       status,
		SpecialistID: strings.TrimSpace(q.Get("specialistId")),
		SpecialtyID:  strings.TrimSpace(q.Get("specialtyId")),
		DateFrom:     strings.TrimSpace(q.Get("dateFrom")),
		DateTo:       strings.TrimSpace(q.Get("dateTo")),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if appts == nil {
		appts = []model.Appointment{}
	}
	writeJSON(w, http.StatusOK, listResponse{Appointments: appts, Total: total})
}

// Calendar handles GET /api/v1/admin/appointments/calendar?dateFrom=&dateTo=.
// Only active appointments show on the calendar.
func (h *AppointmentHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	from := strings.TrimSpace(r.URL.Query().Get("dateFrom"))
	to := strings.TrimSpace(r.URL.Query().Get("dateTo"))
	if from == "" || to == "" {
		http.Error(w, "dateFrom and dateTo are required", http.StatusBadRequest)
		return
	}

	appts, err := h.repo.ListCalendar(r.Context(), from, to)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if appts == nil {
		appts = []model.Appointment{}
	}
	writeJSON(w, http.StatusOK, appts)
}

// Get handles GET /api/v1/admin/appointments/{id}.
func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	appt, ok, err := h.repo.GetByID(r.Context(), r.PathValue("id"))
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

type editRequest struct {
	SpecialtyID  *string `json:"specialtyId"`
	SpecialistID *string `json:"specialistId"`
	Date         *string `json:"appointmentDate"`
	Time         *string `json:"appointmentTime"`
	PatientName  *string `json:"patientName"`
	PatientEmail *string `json:"patientEmail"`
	PatientPhone *string `json:"patientPhone"`
	Notes        *string `json:"notes"`
}

// Edit handles PATCH /api/v1/admin/appointments/{id}.
func (h *AppointmentHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	appt, err := h.lifecycle.Edit(r.Context(), r.PathValue("id"), scheduling.EditRequest{
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
	writeJSON(w, http.StatusOK, appt)
}

type confirmRequest struct {
	Decision string `json:"decision"`
}

// Confirm handles POST /api/v1/admin/appointments/{id}/confirm. The decision
// is "confirmed" or "cancelled"; the acting admin comes from the token.
func (h *AppointmentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	adminID := ""
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		adminID = claims.Sub
	}

	appt, err := h.lifecycle.Confirm(r.Context(), r.PathValue("id"), model.AppointmentStatus(req.Decision), adminID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Complete handles POST /api/v1/admin/appointments/{id}/complete.
func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	appt, err := h.lifecycle.Complete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}
