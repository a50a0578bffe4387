package email

import (
	"strings"
	"testing"
)

func sampleView() AppointmentView {
	return AppointmentView{
		PatientName: "Ana Torres",
		Date:        "2026-03-02",
		Time:        "10:00",
		Price:       "50.00",
		ClinicName:  "Clinica Agenda",
		ManageURL:   "https://clinic.example/appointments/a1B2c3D4e5F6",
	}
}

func TestRender_Confirmation(t *testing.T) {
	subject, body, err := Render(KindConfirmation, sampleView())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(subject, "2026-03-02") || !strings.Contains(subject, "10:00") {
		t.Errorf("subject missing slot details: %q", subject)
	}
	for _, want := range []string{"Ana Torres", "confirmed", "50.00", "https://clinic.example"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestRender_Edited(t *testing.T) {
	_, body, err := Render(KindEdited, sampleView())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(body, "updated") {
		t.Errorf("body should mention the update:\n%s", body)
	}
}

func TestRender_OptionalLinesHidden(t *testing.T) {
	view := sampleView()
	view.ManageURL = ""
	view.Notes = ""
	_, body, err := Render(KindConfirmation, view)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(body, "cancel your appointment") {
		t.Errorf("manage link should be hidden:\n%s", body)
	}
	if strings.Contains(body, "Notes:") {
		t.Errorf("notes line should be hidden:\n%s", body)
	}
}

func TestRender_UnknownKind(t *testing.T) {
	if _, _, err := Render("bogus", sampleView()); err == nil {
		t.Fatal("expected an error for an unknown kind")
	}
}

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("from@clinic.test", "to@patient.test", "Subject line", "Body text")
	for _, want := range []string{"From: from@clinic.test", "To: to@patient.test", "Subject: Subject line", "Body text"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}
