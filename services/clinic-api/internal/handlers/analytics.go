package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/analytics"
)

// AnalyticsHandler serves the admin reporting endpoints.
type AnalyticsHandler struct {
	repo   *analytics.Repository
	loc    *time.Location
	logger *slog.Logger
}

func NewAnalyticsHandler(repo *analytics.Repository, loc *time.Location, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{repo: repo, loc: loc, logger: logger}
}

func rangeFromQuery(r *http.Request) analytics.Range {
	return analytics.Range{
		From: strings.TrimSpace(r.URL.Query().Get("dateFrom")),
		To:   strings.TrimSpace(r.URL.Query().Get("dateTo")),
	}
}

// Dashboard handles GET /api/v1/admin/analytics/dashboard.
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	today := time.Now().In(h.loc).Format("2006-01-02")
	stats, err := h.repo.Dashboard(r.Context(), today)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ByStatus handles GET /api/v1/admin/analytics/appointments-by-status.
func (h *AnalyticsHandler) ByStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := h.repo.CountByStatus(r.Context(), rangeFromQuery(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if counts == nil {
		counts = []analytics.StatusCount{}
	}
	writeJSON(w, http.StatusOK, counts)
}

// TopSpecialists handles GET /api/v1/admin/analytics/top-specialists.
func (h *AnalyticsHandler) TopSpecialists(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	top, err := h.repo.TopSpecialists(r.Context(), rangeFromQuery(r), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if top == nil {
		top = []analytics.SpecialistLoad{}
	}
	writeJSON(w, http.StatusOK, top)
}

// RevenueBySpecialty handles GET /api/v1/admin/analytics/revenue-by-specialty.
func (h *AnalyticsHandler) RevenueBySpecialty(w http.ResponseWriter, r *http.Request) {
	revenue, err := h.repo.RevenueBySpecialty(r.Context(), rangeFromQuery(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if revenue == nil {
		revenue = []analytics.SpecialtyRevenue{}
	}
	writeJSON(w, http.StatusOK, revenue)
}
