package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jpcarranza/clinicagenda/libs/config"
	"github.com/jpcarranza/clinicagenda/libs/db"
	"github.com/jpcarranza/clinicagenda/libs/httpx"
	"github.com/jpcarranza/clinicagenda/libs/kafkax"
	otelx "github.com/jpcarranza/clinicagenda/libs/otel"
	"github.com/jpcarranza/clinicagenda/libs/runtime"
	"github.com/jpcarranza/clinicagenda/services/notification-service/internal/consumer"
	"github.com/jpcarranza/clinicagenda/services/notification-service/internal/email"
	"github.com/jpcarranza/clinicagenda/services/notification-service/internal/inbox"
	"github.com/jpcarranza/clinicagenda/services/notification-service/internal/storage"
)

// emailRequested mirrors the clinic-api outbox payload for the
// clinic.email.requested topic.
type emailRequested struct {
	Kind        string `json:"kind"`
	Appointment struct {
		ID           string `json:"id"`
		Date         string `json:"appointmentDate"`
		Time         string `json:"appointmentTime"`
		Price        string `json:"price"`
		PatientName  string `json:"patientName"`
		PatientEmail string `json:"patientEmail"`
		AccessToken  string `json:"accessToken"`
		Notes        string `json:"notes"`
	} `json:"appointment"`
}

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8081")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	inboxRepo := inbox.NewRepository(pool)
	emailLogs := storage.NewEmailLogRepository(pool)

	sender := email.NewSMTPSender(
		config.String("SMTP_HOST", "mailpit"),
		config.String("SMTP_PORT", "1025"),
		config.String("SMTP_FROM", "no-reply@clinicagenda.local"),
	)
	clinicName := config.String("CLINIC_NAME", "Clinica Agenda")
	manageBaseURL := config.String("PUBLIC_APPOINTMENT_URL", "")

	eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: config.String("KAFKA_BROKERS", ""),
		GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
		Topic:   config.String("KAFKA_CONSUME_TOPIC", "clinic.email.requested"),
	}, func(ctx context.Context, msg kafka.Message) error {
		return handleEmailRequested(ctx, msg, sender, emailLogs, logger, clinicName, manageBaseURL)
	})
	go eventConsumer.Run(ctx)

	mux := runtime.NewBaseMux(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithTimeout(10*time.Second),
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func handleEmailRequested(ctx context.Context, msg kafka.Message, sender email.Sender, emailLogs *storage.EmailLogRepository, logger *slog.Logger, clinicName, manageBaseURL string) error {
	var payload emailRequested
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		logger.Error("invalid email payload", "err", err)
		return nil
	}
	if payload.Kind == "" || payload.Appointment.ID == "" || payload.Appointment.PatientEmail == "" {
		logger.Error("missing email fields", "kind", payload.Kind, "appointment_id", payload.Appointment.ID)
		return nil
	}

	manageURL := ""
	if manageBaseURL != "" && payload.Appointment.AccessToken != "" {
		manageURL = manageBaseURL + "/" + payload.Appointment.AccessToken
	}
	subject, body, err := email.Render(payload.Kind, email.AppointmentView{
		PatientName: payload.Appointment.PatientName,
		Date:        payload.Appointment.Date,
		Time:        payload.Appointment.Time,
		Price:       payload.Appointment.Price,
		AccessToken: payload.Appointment.AccessToken,
		Notes:       payload.Appointment.Notes,
		ClinicName:  clinicName,
		ManageURL:   manageURL,
	})
	if err != nil {
		logger.Error("email render failed", "err", err, "kind", payload.Kind)
		return nil
	}

	status := "sent"
	failureReason := ""
	if err := sender.Send(payload.Appointment.PatientEmail, subject, body); err != nil {
		status = "failed"
		failureReason = err.Error()
		logger.Error("email send failed", "err", err, "recipient", payload.Appointment.PatientEmail)
	}

	if err := emailLogs.Insert(ctx, storage.EmailLog{
		AppointmentID: payload.Appointment.ID,
		Kind:          payload.Kind,
		Recipient:     payload.Appointment.PatientEmail,
		Subject:       subject,
		Status:        status,
		FailureReason: failureReason,
	}); err != nil {
		logger.Error("email log insert failed", "err", err)
		return err
	}

	logger.Info("email processed", "kind", payload.Kind, "appointment_id", payload.Appointment.ID, "status", status)
	return nil
}
