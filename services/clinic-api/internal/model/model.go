package model

import "time"

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// ActiveStatuses are the statuses that occupy a slot. A cancelled appointment
// releases its slot immediately; slot freedom is derived from status, never
// cached.
var ActiveStatuses = []AppointmentStatus{StatusPending, StatusConfirmed, StatusCompleted}

func (s AppointmentStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCompleted
}

// Terminal statuses admit no further status transitions.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

func ParseStatus(raw string) (AppointmentStatus, bool) {
	switch AppointmentStatus(raw) {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return AppointmentStatus(raw), true
	}
	return "", false
}

// Appointment is a booked visit. Date is the clinic-local calendar day in
// YYYY-MM-DD form and Time the HH:MM slot start on the hourly grid; both are
// kept as strings end to end so a date never crosses a UTC boundary on the way
// through the stack.
type Appointment struct {
	ID           string            `json:"id"`
	SpecialtyID  string            `json:"specialtyId"`
	SpecialistID string            `json:"specialistId"`
	Date         string            `json:"appointmentDate"`
	Time         string            `json:"appointmentTime"`
	Status       AppointmentStatus `json:"status"`
	Price        string            `json:"price"`
	PatientName  string            `json:"patientName"`
	PatientEmail string            `json:"patientEmail"`
	PatientPhone string            `json:"patientPhone"`
	AccessToken  string            `json:"accessToken"`
	Notes        string            `json:"notes,omitempty"`
	ConfirmedAt  *time.Time        `json:"confirmedAt,omitempty"`
	ConfirmedBy  string            `json:"confirmedBy,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

type Specialty struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	BasePrice       string    `json:"basePrice"`
	DurationMinutes int       `json:"durationMinutes"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Specialist struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	Bio           string    `json:"bio,omitempty"`
	PhotoURL      string    `json:"photoUrl,omitempty"`
	MonthlySalary string    `json:"monthlySalary,omitempty"`
	IsActive      bool      `json:"isActive"`
	SpecialtyID   string    `json:"specialtyId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Availability is a recurring weekly window during which a specialist accepts
// bookings. DayOfWeek uses 0=Sunday..6=Saturday.
type Availability struct {
	ID           string    `json:"id"`
	SpecialistID string    `json:"specialistId"`
	DayOfWeek    int       `json:"dayOfWeek"`
	StartTime    string    `json:"startTime"`
	EndTime      string    `json:"endTime"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type AdminRole string

const (
	RoleSuperAdmin AdminRole = "super_admin"
	RoleAdmin      AdminRole = "admin"
)

type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Role         AdminRole `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
