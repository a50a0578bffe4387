package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/model"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/scheduling"
)

// Dispatcher posts appointment events to a single configured webhook URL.
// Delivery is best effort: failures are logged, never returned, and an empty
// URL disables the dispatcher entirely.
type Dispatcher struct {
	url    string
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

func NewDispatcher(url string, client *http.Client, logger *slog.Logger) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Dispatcher{url: url, client: client, logger: logger, now: time.Now}
}

type payload struct {
	Event     string            `json:"event"`
	Timestamp string            `json:"timestamp"`
	Data      model.Appointment `json:"data"`
}

func (d *Dispatcher) Notify(ctx context.Context, event scheduling.WebhookEvent, appt model.Appointment) {
	if d.url == "" {
		return
	}

	body, err := json.Marshal(payload{
		Event:     string(event),
		Timestamp: d.now().UTC().Format(time.RFC3339),
		Data:      appt,
	})
	if err != nil {
		d.logger.Error("webhook payload marshal failed", "event", event, "err", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		d.logger.Error("webhook request build failed", "event", event, "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn("webhook delivery failed", "event", event, "appointment_id", appt.ID, "err", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		d.logger.Warn("webhook rejected", "event", event, "appointment_id", appt.ID, "status", resp.StatusCode)
		return
	}
	d.logger.Debug("webhook delivered", "event", event, "appointment_id", appt.ID)
}
