package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jpcarranza/clinicagenda/libs/db"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/model"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/scheduling"
)

const appointmentColumns = `
	id,
	specialty_id,
	specialist_id,
	to_char(appointment_date, 'YYYY-MM-DD'),
	to_char(appointment_time, 'HH24:MI'),
	status,
	price::text,
	patient_name,
	patient_email,
	patient_phone,
	access_token,
	COALESCE(notes, ''),
	confirmed_at,
	COALESCE(confirmed_by::text, ''),
	created_at,
	updated_at`

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

// Create inserts the appointment and returns it with server-assigned fields.
// A violation of the active-slot uniqueness index surfaces as
// scheduling.ErrDuplicateSlot so the caller can treat the race as a conflict.
func (r *AppointmentRepository) Create(ctx context.Context, appt model.Appointment) (model.Appointment, error) {
	id := uuid.NewString()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(id, specialty_id, specialist_id, appointment_date, appointment_time,
			 status, price, patient_name, patient_email, patient_phone, access_token, notes)
		VALUES ($1, $2, $3, $4::date, $5::time, $6, $7::numeric, $8, $9, $10, $11, NULLIF($12, ''))
		RETURNING `+appointmentColumns+`
	`, id, appt.SpecialtyID, appt.SpecialistID, appt.Date, appt.Time,
		appt.Status, appt.Price, appt.PatientName, appt.PatientEmail, appt.PatientPhone,
		appt.AccessToken, appt.Notes)

	created, err := scanAppointment(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return model.Appointment{}, scheduling.ErrDuplicateSlot
		}
		return model.Appointment{}, err
	}
	return created, nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (model.Appointment, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	appt, err := scanAppointment(row)
	if db.IsNoRows(err) {
		return model.Appointment{}, false, nil
	}
	if err != nil {
		return model.Appointment{}, false, err
	}
	return appt, true, nil
}

func (r *AppointmentRepository) GetByToken(ctx context.Context, token string) (model.Appointment, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE access_token = $1
	`, token)
	appt, err := scanAppointment(row)
	if db.IsNoRows(err) {
		return model.Appointment{}, false, nil
	}
	if err != nil {
		return model.Appointment{}, false, err
	}
	return appt, true, nil
}

func (r *AppointmentRepository) Update(ctx context.Context, appt model.Appointment) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET specialty_id = $2,
			specialist_id = $3,
			appointment_date = $4::date,
			appointment_time = $5::time,
			status = $6,
			price = $7::numeric,
			patient_name = $8,
			patient_email = $9,
			patient_phone = $10,
			notes = NULLIF($11, ''),
			confirmed_at = $12,
			confirmed_by = NULLIF($13, '')::uuid,
			updated_at = now()
		WHERE id = $1
	`, appt.ID, appt.SpecialtyID, appt.SpecialistID, appt.Date, appt.Time,
		appt.Status, appt.Price, appt.PatientName, appt.PatientEmail, appt.PatientPhone,
		appt.Notes, appt.ConfirmedAt, appt.ConfirmedBy)
	if err != nil && db.IsUniqueViolation(err) {
		return scheduling.ErrDuplicateSlot
	}
	return err
}

func (r *AppointmentRepository) ListActiveByDay(ctx context.Context, specialistID, date string) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE specialist_id = $1
			AND appointment_date = $2::date
			AND status = ANY($3)
		ORDER BY appointment_time ASC
	`, specialistID, date, statusStrings(model.ActiveStatuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (r *AppointmentRepository) ActiveSlotExists(ctx context.Context, specialistID, date, timeHHMM string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE specialist_id = $1
				AND appointment_date = $2::date
				AND appointment_time = $3::time
				AND status = ANY($4)
		)
	`, specialistID, date, timeHHMM, statusStrings(model.ActiveStatuses)).Scan(&exists)
	return exists, err
}

// ListFilter narrows the admin appointment listing. Zero values mean "any".
type ListFilter struct {
	Status       string
	SpecialistID string
	SpecialtyID  string
	DateFrom     string // YYYY-MM-DD inclusive
	DateTo       string // YYYY-MM-DD inclusive
	Limit        int
	Offset       int
}

// List returns a filtered page of appointments plus the unpaged total.
func (r *AppointmentRepository) List(ctx context.Context, f ListFilter) ([]model.Appointment, int, error) {
	where, args := buildListFilter(f)

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM appointments`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, f.Offset)
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments`+where+`
		ORDER BY appointment_date DESC, appointment_time DESC
		LIMIT $`+fmt.Sprint(len(args)-1)+` OFFSET $`+fmt.Sprint(len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	appts, err := collectAppointments(rows)
	if err != nil {
		return nil, 0, err
	}
	return appts, total, nil
}

// ListCalendar returns the active appointments in a date range, for the admin
// calendar view.
func (r *AppointmentRepository) ListCalendar(ctx context.Context, dateFrom, dateTo string) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE appointment_date BETWEEN $1::date AND $2::date
			AND status = ANY($3)
		ORDER BY appointment_date ASC, appointment_time ASC
	`, dateFrom, dateTo, statusStrings(model.ActiveStatuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func buildListFilter(f ListFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.SpecialistID != "" {
		add("specialist_id = $%d", f.SpecialistID)
	}
	if f.SpecialtyID != "" {
		add("specialty_id = $%d", f.SpecialtyID)
	}
	if f.DateFrom != "" {
		add("appointment_date >= $%d::date", f.DateFrom)
	}
	if f.DateTo != "" {
		add("appointment_date <= $%d::date", f.DateTo)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (model.Appointment, error) {
	var appt model.Appointment
	err := row.Scan(
		&appt.ID,
		&appt.SpecialtyID,
		&appt.SpecialistID,
		&appt.Date,
		&appt.Time,
		&appt.Status,
		&appt.Price,
		&appt.PatientName,
		&appt.PatientEmail,
		&appt.PatientPhone,
		&appt.AccessToken,
		&appt.Notes,
		&appt.ConfirmedAt,
		&appt.ConfirmedBy,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	return appt, err
}

type appointmentRows interface {
	rowScanner
	Next() bool
	Err() error
}

func collectAppointments(rows appointmentRows) ([]model.Appointment, error) {
	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func statusStrings(statuses []model.AppointmentStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
