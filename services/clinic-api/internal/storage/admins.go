package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/jpcarranza/clinicagenda/libs/db"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/model"
)

// ErrEmailTaken is returned when registering an admin with an email that
// already exists.
var ErrEmailTaken = errors.New("email already registered")

type AdminRepository struct {
	pool *db.Pool
}

func NewAdminRepository(pool *db.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

const adminColumns = `
	id, email, password_hash, first_name, last_name, role, is_active,
	created_at, updated_at`

func scanAdmin(row rowScanner) (model.Admin, error) {
	var a model.Admin
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.PasswordHash,
		&a.FirstName,
		&a.LastName,
		&a.Role,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

func (r *AdminRepository) Create(ctx context.Context, a model.Admin) (model.Admin, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO admins (id, email, password_hash, first_name, last_name, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+adminColumns+`
	`, uuid.NewString(), strings.ToLower(a.Email), a.PasswordHash, a.FirstName, a.LastName, a.Role, a.IsActive)
	created, err := scanAdmin(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return model.Admin{}, ErrEmailTaken
		}
		return model.Admin{}, err
	}
	return created, nil
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (model.Admin, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+adminColumns+`
		FROM admins
		WHERE email = $1 AND is_active
	`, strings.ToLower(email))
	a, err := scanAdmin(row)
	if db.IsNoRows(err) {
		return model.Admin{}, false, nil
	}
	if err != nil {
		return model.Admin{}, false, err
	}
	return a, true, nil
}

func (r *AdminRepository) GetByID(ctx context.Context, id string) (model.Admin, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+adminColumns+`
		FROM admins
		WHERE id = $1 AND is_active
	`, id)
	a, err := scanAdmin(row)
	if db.IsNoRows(err) {
		return model.Admin{}, false, nil
	}
	if err != nil {
		return model.Admin{}, false, err
	}
	return a, true, nil
}
