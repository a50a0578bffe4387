package email

import (
	"fmt"
	"strings"
	"text/template"
)

// AppointmentView is the slice of an appointment the templates need. It is
// filled from the event payload, not from the booking database.
type AppointmentView struct {
	PatientName  string
	Date         string // YYYY-MM-DD
	Time         string // HH:MM
	Price        string
	AccessToken  string
	Notes        string
	ClinicName   string
	ManageURL    string // link to the token page; empty hides the line
}

const (
	KindConfirmation = "appointment_confirmation"
	KindEdited       = "appointment_edited"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(
	`Hello {{.PatientName}},

Your appointment at {{.ClinicName}} has been confirmed.

Date:  {{.Date}}
Time:  {{.Time}}
Price: {{.Price}}
{{if .Notes}}
Notes: {{.Notes}}
{{end}}{{if .ManageURL}}
You can view or cancel your appointment here:
{{.ManageURL}}
{{end}}
See you soon,
{{.ClinicName}}
`))

var editedTmpl = template.Must(template.New("edited").Parse(
	`Hello {{.PatientName}},

Your appointment at {{.ClinicName}} has been updated. The current details are:

Date:  {{.Date}}
Time:  {{.Time}}
Price: {{.Price}}
{{if .ManageURL}}
You can view or cancel your appointment here:
{{.ManageURL}}
{{end}}
See you soon,
{{.ClinicName}}
`))

// Render produces the subject and plain-text body for an email kind.
func Render(kind string, view AppointmentView) (subject, body string, err error) {
	var tmpl *template.Template
	switch kind {
	case KindConfirmation:
		subject = fmt.Sprintf("Appointment confirmed for %s at %s", view.Date, view.Time)
		tmpl = confirmationTmpl
	case KindEdited:
		subject = fmt.Sprintf("Appointment updated: %s at %s", view.Date, view.Time)
		tmpl = editedTmpl
	default:
		return "", "", fmt.Errorf("unknown email kind %q", kind)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, view); err != nil {
		return "", "", err
	}
	return subject, sb.String(), nil
}
