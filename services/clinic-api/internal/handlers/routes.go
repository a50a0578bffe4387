package handlers

import "net/http"

// Routes groups the API handlers for registration on a mux.
type Routes struct {
	Public      *PublicHandler
	Auth        *AuthHandler
	Appointment *AppointmentHandler
	Catalog     *CatalogHandler
	Analytics   *AnalyticsHandler
	Guard       *AdminGuard
}

// Register mounts the public and admin surfaces. Everything under
// /api/v1/admin/ except login goes through the bearer guard.
func (rt Routes) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/public/slots", rt.Public.Slots)
	mux.HandleFunc("POST /api/v1/public/book", rt.Public.Book)
	mux.HandleFunc("GET /api/v1/public/appointments/{token}", rt.Public.GetByToken)
	mux.HandleFunc("POST /api/v1/public/appointments/{token}/cancel", rt.Public.CancelByToken)
	mux.HandleFunc("GET /api/v1/public/specialties", rt.Public.Specialties)
	mux.HandleFunc("GET /api/v1/public/specialists", rt.Public.Specialists)

	guard := rt.Guard.RequireAdmin

	mux.HandleFunc("POST /api/v1/admin/auth/login", rt.Auth.Login)
	mux.HandleFunc("POST /api/v1/admin/auth/register", guard(rt.Auth.Register))
	mux.HandleFunc("GET /api/v1/admin/auth/me", guard(rt.Auth.Me))

	mux.HandleFunc("GET /api/v1/admin/appointments", guard(rt.Appointment.List))
	mux.HandleFunc("GET /api/v1/admin/appointments/calendar", guard(rt.Appointment.Calendar))
	mux.HandleFunc("GET /api/v1/admin/appointments/{id}", guard(rt.Appointment.Get))
	mux.HandleFunc("PATCH /api/v1/admin/appointments/{id}", guard(rt.Appointment.Edit))
	mux.HandleFunc("POST /api/v1/admin/appointments/{id}/confirm", guard(rt.Appointment.Confirm))
	mux.HandleFunc("POST /api/v1/admin/appointments/{id}/complete", guard(rt.Appointment.Complete))

	mux.HandleFunc("GET /api/v1/admin/specialties", guard(rt.Catalog.ListSpecialties))
	mux.HandleFunc("POST /api/v1/admin/specialties", guard(rt.Catalog.CreateSpecialty))
	mux.HandleFunc("PUT /api/v1/admin/specialties/{id}", guard(rt.Catalog.UpdateSpecialty))
	mux.HandleFunc("DELETE /api/v1/admin/specialties/{id}", guard(rt.Catalog.DeleteSpecialty))

	mux.HandleFunc("GET /api/v1/admin/specialists", guard(rt.Catalog.ListSpecialists))
	mux.HandleFunc("POST /api/v1/admin/specialists", guard(rt.Catalog.CreateSpecialist))
	mux.HandleFunc("PUT /api/v1/admin/specialists/{id}", guard(rt.Catalog.UpdateSpecialist))
	mux.HandleFunc("DELETE /api/v1/admin/specialists/{id}", guard(rt.Catalog.DeleteSpecialist))

	mux.HandleFunc("GET /api/v1/admin/specialists/{id}/availability", guard(rt.Catalog.ListAvailability))
	mux.HandleFunc("PUT /api/v1/admin/specialists/{id}/availability", guard(rt.Catalog.UpsertAvailability))
	mux.HandleFunc("DELETE /api/v1/admin/specialists/{id}/availability/{day}", guard(rt.Catalog.DeleteAvailability))

	mux.HandleFunc("GET /api/v1/admin/analytics/dashboard", guard(rt.Analytics.Dashboard))
	mux.HandleFunc("GET /api/v1/admin/analytics/appointments-by-status", guard(rt.Analytics.ByStatus))
	mux.HandleFunc("GET /api/v1/admin/analytics/top-specialists", guard(rt.Analytics.TopSpecialists))
	mux.HandleFunc("GET /api/v1/admin/analytics/revenue-by-specialty", guard(rt.Analytics.RevenueBySpecialty))
}
