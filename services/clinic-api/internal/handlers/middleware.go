package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jpcarranza/clinicagenda/libs/auth"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/model"
)

type claimsKey struct{}

// ClaimsFromContext returns the admin claims set by RequireAdmin.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok
}

// AdminDirectory resolves a token subject to an active admin account.
type AdminDirectory interface {
	GetByID(ctx context.Context, id string) (model.Admin, bool, error)
}

// AdminGuard verifies bearer tokens on the admin surface and rechecks the
// account on every request, so deactivating an admin takes effect immediately
// instead of waiting out the token's lifetime.
type AdminGuard struct {
	secret string
	admins AdminDirectory
	logger *slog.Logger
}

func NewAdminGuard(secret string, admins AdminDirectory, logger *slog.Logger) *AdminGuard {
	return &AdminGuard{secret: secret, admins: admins, logger: logger}
}

func (g *AdminGuard) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") || len(strings.TrimSpace(header)) <= len("Bearer ") {
			http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		claims, err := auth.ParseAndVerifyHS256(token, g.secret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		_, ok, err := g.admins.GetByID(r.Context(), claims.Sub)
		if err != nil {
			g.logger.Error("admin lookup failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	}
}
