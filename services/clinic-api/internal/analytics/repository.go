package analytics

import (
	"context"

	"github.com/jpcarranza/clinicagenda/libs/db"
)

// Repository answers the admin dashboard queries. Revenue figures only count
// confirmed and completed appointments; pending money is not money.
type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Range bounds a report to clinic-local calendar days, both inclusive. Empty
// bounds mean all time.
type Range struct {
	From string // YYYY-MM-DD
	To   string // YYYY-MM-DD
}

func (r Range) args() (string, string) {
	from := r.From
	if from == "" {
		from = "0001-01-01"
	}
	to := r.To
	if to == "" {
		to = "9999-12-31"
	}
	return from, to
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

func (r *Repository) CountByStatus(ctx context.Context, rng Range) ([]StatusCount, error) {
	from, to := rng.args()
	rows, err := r.pool.Query(ctx, `
		SELECT status, count(*)
		FROM appointments
		WHERE appointment_date BETWEEN $1::date AND $2::date
		GROUP BY status
		ORDER BY status
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

type SpecialistLoad struct {
	SpecialistID string `json:"specialistId"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Appointments int    `json:"appointments"`
	Revenue      string `json:"revenue"`
}

// TopSpecialists ranks specialists by confirmed and completed appointment
// volume in the range.
func (r *Repository) TopSpecialists(ctx context.Context, rng Range, limit int) ([]SpecialistLoad, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	from, to := rng.args()
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.first_name, s.last_name,
			count(a.id),
			COALESCE(sum(a.price), 0)::text
		FROM specialists s
		JOIN appointments a ON a.specialist_id = s.id
		WHERE a.appointment_date BETWEEN $1::date AND $2::date
			AND a.status IN ('confirmed', 'completed')
		GROUP BY s.id, s.first_name, s.last_name
		ORDER BY count(a.id) DESC, s.last_name ASC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SpecialistLoad
	for rows.Next() {
		var sl SpecialistLoad
		if err := rows.Scan(&sl.SpecialistID, &sl.FirstName, &sl.LastName, &sl.Appointments, &sl.Revenue); err != nil {
			return nil, err
		}
		out = append(out, sl)
	}
	return out, rows.Err()
}

type SpecialtyRevenue struct {
	SpecialtyID  string `json:"specialtyId"`
	Name         string `json:"name"`
	Appointments int    `json:"appointments"`
	Revenue      string `json:"revenue"`
}

func (r *Repository) RevenueBySpecialty(ctx context.Context, rng Range) ([]SpecialtyRevenue, error) {
	from, to := rng.args()
	rows, err := r.pool.Query(ctx, `
		SELECT sp.id, sp.name,
			count(a.id),
			COALESCE(sum(a.price), 0)::text
		FROM specialties sp
		JOIN appointments a ON a.specialty_id = sp.id
		WHERE a.appointment_date BETWEEN $1::date AND $2::date
			AND a.status IN ('confirmed', 'completed')
		GROUP BY sp.id, sp.name
		ORDER BY sum(a.price) DESC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SpecialtyRevenue
	for rows.Next() {
		var sr SpecialtyRevenue
		if err := rows.Scan(&sr.SpecialtyID, &sr.Name, &sr.Appointments, &sr.Revenue); err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

type DashboardStats struct {
	TotalAppointments  int    `json:"totalAppointments"`
	PendingReview      int    `json:"pendingReview"`
	ConfirmedUpcoming  int    `json:"confirmedUpcoming"`
	CompletedThisMonth int    `json:"completedThisMonth"`
	RevenueThisMonth   string `json:"revenueThisMonth"`
	ActiveSpecialists  int    `json:"activeSpecialists"`
}

// Dashboard computes the landing-page counters. "today" is the clinic-local
// calendar day supplied by the caller so the query never does timezone math.
func (r *Repository) Dashboard(ctx context.Context, today string) (DashboardStats, error) {
	var stats DashboardStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM appointments),
			(SELECT count(*) FROM appointments WHERE status = 'pending'),
			(SELECT count(*) FROM appointments
				WHERE status = 'confirmed' AND appointment_date >= $1::date),
			(SELECT count(*) FROM appointments
				WHERE status = 'completed'
				AND date_trunc('month', appointment_date) = date_trunc('month', $1::date)),
			(SELECT COALESCE(sum(price), 0)::text FROM appointments
				WHERE status IN ('confirmed', 'completed')
				AND date_trunc('month', appointment_date) = date_trunc('month', $1::date)),
			(SELECT count(*) FROM specialists WHERE is_active)
	`, today).Scan(
		&stats.TotalAppointments,
		&stats.PendingReview,
		&stats.ConfirmedUpcoming,
		&stats.CompletedThisMonth,
		&stats.RevenueThisMonth,
		&stats.ActiveSpecialists,
	)
	return stats, err
}
