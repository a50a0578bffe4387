package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/jpcarranza/clinicagenda/libs/db"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/model"
)

// CatalogRepository covers the clinic's reference data: specialties,
// specialists and their weekly availability windows.
type CatalogRepository struct {
	pool *db.Pool
}

func NewCatalogRepository(pool *db.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

const specialtyColumns = `
	id, name, COALESCE(description, ''), base_price::text, duration_minutes,
	is_active, created_at, updated_at`

func scanSpecialty(row rowScanner) (model.Specialty, error) {
	var s model.Specialty
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Description,
		&s.BasePrice,
		&s.DurationMinutes,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

func (r *CatalogRepository) GetSpecialty(ctx context.Context, id string) (model.Specialty, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+specialtyColumns+`
		FROM specialties
		WHERE id = $1 AND is_active
	`, id)
	s, err := scanSpecialty(row)
	if db.IsNoRows(err) {
		return model.Specialty{}, false, nil
	}
	if err != nil {
		return model.Specialty{}, false, err
	}
	return s, true, nil
}

func (r *CatalogRepository) ListSpecialties(ctx context.Context, activeOnly bool) ([]model.Specialty, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+specialtyColumns+`
		FROM specialties
		WHERE NOT $1::bool OR is_active
		ORDER BY name ASC
	`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Specialty
	for rows.Next() {
		s, err := scanSpecialty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) CreateSpecialty(ctx context.Context, s model.Specialty) (model.Specialty, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO specialties (id, name, description, base_price, duration_minutes, is_active)
		VALUES ($1, $2, NULLIF($3, ''), $4::numeric, $5, $6)
		RETURNING `+specialtyColumns+`
	`, uuid.NewString(), s.Name, s.Description, s.BasePrice, s.DurationMinutes, s.IsActive)
	return scanSpecialty(row)
}

func (r *CatalogRepository) UpdateSpecialty(ctx context.Context, s model.Specialty) (model.Specialty, bool, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE specialties
		SET name = $2,
			description = NULLIF($3, ''),
			base_price = $4::numeric,
			duration_minutes = $5,
			is_active = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING `+specialtyColumns+`
	`, s.ID, s.Name, s.Description, s.BasePrice, s.DurationMinutes, s.IsActive)
	updated, err := scanSpecialty(row)
	if db.IsNoRows(err) {
		return model.Specialty{}, false, nil
	}
	if err != nil {
		return model.Specialty{}, false, err
	}
	return updated, true, nil
}

// DeactivateSpecialty is a soft delete: history keeps its rows, the booking
// path stops seeing it.
func (r *CatalogRepository) DeactivateSpecialty(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE specialties SET is_active = false, updated_at = now() WHERE id = $1
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const specialistColumns = `
	id, first_name, last_name, email, COALESCE(phone, ''), COALESCE(bio, ''),
	COALESCE(photo_url, ''), COALESCE(monthly_salary::text, ''), is_active,
	specialty_id, created_at, updated_at`

func scanSpecialist(row rowScanner) (model.Specialist, error) {
	var s model.Specialist
	err := row.Scan(
		&s.ID,
		&s.FirstName,
		&s.LastName,
		&s.Email,
		&s.Phone,
		&s.Bio,
		&s.PhotoURL,
		&s.MonthlySalary,
		&s.IsActive,
		&s.SpecialtyID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

func (r *CatalogRepository) GetSpecialist(ctx context.Context, id string) (model.Specialist, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+specialistColumns+`
		FROM specialists
		WHERE id = $1 AND is_active
	`, id)
	s, err := scanSpecialist(row)
	if db.IsNoRows(err) {
		return model.Specialist{}, false, nil
	}
	if err != nil {
		return model.Specialist{}, false, err
	}
	return s, true, nil
}

func (r *CatalogRepository) GetSpecialistInSpecialty(ctx context.Context, id, specialtyID string) (model.Specialist, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+specialistColumns+`
		FROM specialists
		WHERE id = $1 AND specialty_id = $2 AND is_active
	`, id, specialtyID)
	s, err := scanSpecialist(row)
	if db.IsNoRows(err) {
		return model.Specialist{}, false, nil
	}
	if err != nil {
		return model.Specialist{}, false, err
	}
	return s, true, nil
}

func (r *CatalogRepository) ListSpecialists(ctx context.Context, specialtyID string, activeOnly bool) ([]model.Specialist, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+specialistColumns+`
		FROM specialists
		WHERE ($1 = '' OR specialty_id = $1::uuid)
			AND (NOT $2::bool OR is_active)
		ORDER BY last_name ASC, first_name ASC
	`, specialtyID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Specialist
	for rows.Next() {
		s, err := scanSpecialist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) CreateSpecialist(ctx context.Context, s model.Specialist) (model.Specialist, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO specialists
			(id, first_name, last_name, email, phone, bio, photo_url, monthly_salary, is_active, specialty_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, '')::numeric, $9, $10)
		RETURNING `+specialistColumns+`
	`, uuid.NewString(), s.FirstName, s.LastName, s.Email, s.Phone, s.Bio, s.PhotoURL,
		s.MonthlySalary, s.IsActive, s.SpecialtyID)
	return scanSpecialist(row)
}

func (r *CatalogRepository) UpdateSpecialist(ctx context.Context, s model.Specialist) (model.Specialist, bool, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE specialists
		SET first_name = $2,
			last_name = $3,
			email = $4,
			phone = NULLIF($5, ''),
			bio = NULLIF($6, ''),
			photo_url = NULLIF($7, ''),
			monthly_salary = NULLIF($8, '')::numeric,
			is_active = $9,
			specialty_id = $10,
			updated_at = now()
		WHERE id = $1
		RETURNING `+specialistColumns+`
	`, s.ID, s.FirstName, s.LastName, s.Email, s.Phone, s.Bio, s.PhotoURL,
		s.MonthlySalary, s.IsActive, s.SpecialtyID)
	updated, err := scanSpecialist(row)
	if db.IsNoRows(err) {
		return model.Specialist{}, false, nil
	}
	if err != nil {
		return model.Specialist{}, false, err
	}
	return updated, true, nil
}

func (r *CatalogRepository) DeactivateSpecialist(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE specialists SET is_active = false, updated_at = now() WHERE id = $1
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const availabilityColumns = `
	id, specialist_id,
	day_of_week,
	to_char(start_time, 'HH24:MI'),
	to_char(end_time, 'HH24:MI'),
	is_active, created_at, updated_at`

func scanAvailability(row rowScanner) (model.Availability, error) {
	var a model.Availability
	err := row.Scan(
		&a.ID,
		&a.SpecialistID,
		&a.DayOfWeek,
		&a.StartTime,
		&a.EndTime,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

// GetActiveAvailability reports whether the specialist accepts bookings on the
// given weekday (0=Sunday). At most one active window per specialist per day
// is enforced by a uniqueness index.
func (r *CatalogRepository) GetActiveAvailability(ctx context.Context, specialistID string, dayOfWeek int) (model.Availability, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+availabilityColumns+`
		FROM specialist_availability
		WHERE specialist_id = $1 AND day_of_week = $2 AND is_active
	`, specialistID, dayOfWeek)
	a, err := scanAvailability(row)
	if db.IsNoRows(err) {
		return model.Availability{}, false, nil
	}
	if err != nil {
		return model.Availability{}, false, err
	}
	return a, true, nil
}

func (r *CatalogRepository) ListAvailability(ctx context.Context, specialistID string) ([]model.Availability, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+availabilityColumns+`
		FROM specialist_availability
		WHERE specialist_id = $1
		ORDER BY day_of_week ASC
	`, specialistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Availability
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpsertAvailability creates or replaces the specialist's window for that
// weekday.
func (r *CatalogRepository) UpsertAvailability(ctx context.Context, a model.Availability) (model.Availability, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO specialist_availability
			(id, specialist_id, day_of_week, start_time, end_time, is_active)
		VALUES ($1, $2, $3, $4::time, $5::time, $6)
		ON CONFLICT (specialist_id, day_of_week) DO UPDATE
		SET start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			is_active = EXCLUDED.is_active,
			updated_at = now()
		RETURNING `+availabilityColumns+`
	`, uuid.NewString(), a.SpecialistID, a.DayOfWeek, a.StartTime, a.EndTime, a.IsActive)
	return scanAvailability(row)
}

func (r *CatalogRepository) DeleteAvailability(ctx context.Context, specialistID string, dayOfWeek int) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM specialist_availability
		WHERE specialist_id = $1 AND day_of_week = $2
	`, specialistID, dayOfWeek)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
