package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/model"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/storage"
)

// CatalogHandler serves the admin CRUD for specialties, specialists and
// availability windows.
type CatalogHandler struct {
	repo   *storage.CatalogRepository
	logger *slog.Logger
}

func NewCatalogHandler(repo *storage.CatalogRepository, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{repo: repo, logger: logger}
}

type specialtyRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	BasePrice       string `json:"basePrice"`
	DurationMinutes int    `json:"durationMinutes"`
	IsActive        *bool  `json:"isActive"`
}

func (req *specialtyRequest) validate() string {
	if strings.TrimSpace(req.Name) == "" {
		return "name is required"
	}
	if strings.TrimSpace(req.BasePrice) == "" {
		return "basePrice is required"
	}
	if req.DurationMinutes <= 0 {
		return "durationMinutes must be positive"
	}
	return ""
}

func (h *CatalogHandler) ListSpecialties(w http.ResponseWriter, r *http.Request) {
	specialties, err := h.repo.ListSpecialties(r.Context(), false)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if specialties == nil {
		specialties = []model.Specialty{}
	}
	writeJSON(w, http.StatusOK, specialties)
}

func (h *CatalogHandler) CreateSpecialty(w http.ResponseWriter, r *http.Request) {
	var req specialtyRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	specialty, err := h.repo.CreateSpecialty(r.Context(), model.Specialty{
		Name:            strings.TrimSpace(req.Name),
		Description:     strings.TrimSpace(req.Description),
		BasePrice:       strings.TrimSpace(req.BasePrice),
		DurationMinutes: req.DurationMinutes,
		IsActive:        active,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, specialty)
}

func (h *CatalogHandler) UpdateSpecialty(w http.ResponseWriter, r *http.Request) {
	var req specialtyRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	specialty, ok, err := h.repo.UpdateSpecialty(r.Context(), model.Specialty{
		ID:              r.PathValue("id"),
		Name:            strings.TrimSpace(req.Name),
		Description:     strings.TrimSpace(req.Description),
		BasePrice:       strings.TrimSpace(req.BasePrice),
		DurationMinutes: req.DurationMinutes,
		IsActive:        active,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !ok {
		http.Error(w, "specialty not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, specialty)
}

func (h *CatalogHandler) DeleteSpecialty(w http.ResponseWriter, r *http.Request) {
	ok, err := h.repo.DeactivateSpecialty(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !ok {
		http.Error(w, "specialty not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type specialistRequest struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Bio           string `json:"bio"`
	PhotoURL      string `json:"photoUrl"`
	MonthlySalary string `json:"monthlySalary"`
	SpecialtyID   string `json:"specialtyId"`
	IsActive      *bool  `json:"isActive"`
}

func (req *specialistRequest) validate() string {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return "firstName and lastName are required"
	}
	if !strings.Contains(req.Email, "@") {
		return "a valid email is required"
	}
	if strings.TrimSpace(req.SpecialtyID) == "" {
		return "specialtyId is required"
	}
	return ""
}

func (req *specialistRequest) toModel(id string) model.Specialist {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return model.Specialist{
		ID:            id,
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		Email:         strings.TrimSpace(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		Bio:           strings.TrimSpace(req.Bio),
		PhotoURL:      strings.TrimSpace(req.PhotoURL),
		MonthlySalary: strings.TrimSpace(req.MonthlySalary),
		SpecialtyID:   strings.TrimSpace(req.SpecialtyID),
		IsActive:      active,
	}
}

func (h *CatalogHandler) ListSpecialists(w http.ResponseWriter, r *http.Request) {
	specialists, err := h.repo.ListSpecialists(r.Context(), strings.TrimSpace(r.URL.Query().Get("specialtyId")), false)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if specialists == nil {
		specialists = []model.Specialist{}
	}
	writeJSON(w, http.StatusOK, specialists)
}

func (h *CatalogHandler) CreateSpecialist(w http.ResponseWriter, r *http.Request) {
	var req specialistRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	if _, ok, err := h.repo.GetSpecialty(r.Context(), req.SpecialtyID); err != nil {
		writeError(w, h.logger, err)
		return
	} else if !ok {
		http.Error(w, "specialty not found", http.StatusNotFound)
		return
	}

	specialist, err := h.repo.CreateSpecialist(r.Context(), req.toModel(""))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, specialist)
}

func (h *CatalogHandler) UpdateSpecialist(w http.ResponseWriter, r *http.Request) {
	var req specialistRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	specialist, ok, err := h.repo.UpdateSpecialist(r.Context(), req.toModel(r.PathValue("id")))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !ok {
		http.Error(w, "specialist not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, specialist)
}

func (h *CatalogHandler) DeleteSpecialist(w http.ResponseWriter, r *http.Request) {
	ok, err := h.repo.DeactivateSpecialist(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !ok {
		http.Error(w, "specialist not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type availabilityRequest struct {
	DayOfWeek int    `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	IsActive  *bool  `json:"isActive"`
}

func (h *CatalogHandler) ListAvailability(w http.ResponseWriter, r *http.Request) {
	windows, err := h.repo.ListAvailability(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if windows == nil {
		windows = []model.Availability{}
	}
	writeJSON(w, http.StatusOK, windows)
}

func (h *CatalogHandler) UpsertAvailability(w http.ResponseWriter, r *http.Request) {
	var req availabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.DayOfWeek < 0 || req.DayOfWeek > 6 {
		http.Error(w, "dayOfWeek must be 0 (Sunday) through 6 (Saturday)", http.StatusBadRequest)
		return
	}
	if req.StartTime == "" || req.EndTime == "" {
		http.Error(w, "startTime and endTime are required", http.StatusBadRequest)
		return
	}

	specialistID := r.PathValue("id")
	if _, ok, err := h.repo.GetSpecialist(r.Context(), specialistID); err != nil {
		writeError(w, h.logger, err)
		return
	} else if !ok {
		http.Error(w, "specialist not found", http.StatusNotFound)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	window, err := h.repo.UpsertAvailability(r.Context(), model.Availability{
		SpecialistID: specialistID,
		DayOfWeek:    req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		IsActive:     active,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, window)
}

func (h *CatalogHandler) DeleteAvailability(w http.ResponseWriter, r *http.Request) {
	day, err := strconv.Atoi(r.PathValue("day"))
	if err != nil || day < 0 || day > 6 {
		http.Error(w, "invalid day", http.StatusBadRequest)
		return
	}
	ok, err := h.repo.DeleteAvailability(r.Context(), r.PathValue("id"), day)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !ok {
		http.Error(w, "availability not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
