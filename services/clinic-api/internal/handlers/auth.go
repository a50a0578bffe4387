package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jpcarranza/clinicagenda/libs/auth"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/model"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/storage"
)

// AuthHandler issues admin tokens. There is no self-service signup: register
// is itself an admin-guarded endpoint, the first admin comes from a seed.
type AuthHandler struct {
	admins   *storage.AdminRepository
	secret   string
	tokenTTL time.Duration
	logger   *slog.Logger
}

func NewAuthHandler(admins *storage.AdminRepository, secret string, tokenTTL time.Duration, logger *slog.Logger) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	return &AuthHandler{admins: admins, secret: secret, tokenTTL: tokenTTL, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string      `json:"accessToken"`
	TokenType   string      `json:"tokenType"`
	Admin       model.Admin `json:"admin"`
}

// Login handles POST /api/v1/admin/auth/login. Unknown email and wrong
// password are indistinguishable to the caller.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	admin, ok, err := h.admins.GetByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !ok || bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	now := time.Now()
	token, err := auth.SignHS256(auth.Claims{
		Sub:   admin.ID,
		Email: admin.Email,
		Role:  string(admin.Role),
		Iat:   now.Unix(),
		Exp:   now.Add(h.tokenTTL).Unix(),
	}, h.secret)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("admin logged in", "admin_id", admin.ID)
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token, TokenType: "Bearer", Admin: admin})
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// Register handles POST /api/v1/admin/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		http.Error(w, "a valid email is required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 8 {
		http.Error(w, "password must be at least 8 characters", http.StatusBadRequest)
		return
	}
	role := model.AdminRole(req.Role)
	if role == "" {
		role = model.RoleAdmin
	}
	if role != model.RoleAdmin && role != model.RoleSuperAdmin {
		http.Error(w, "unknown role", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	admin, err := h.admins.Create(r.Context(), model.Admin{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         role,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("admin registered", "admin_id", admin.ID, "role", admin.Role)
	writeJSON(w, http.StatusCreated, admin)
}

// Me handles GET /api/v1/admin/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	admin, ok, err := h.admins.GetByID(r.Context(), claims.Sub)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !ok {
		http.Error(w, "admin not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, admin)
}
