// Package processor turns one email-requested event into an SMTP send plus
// bookkeeping: a notifications row and a sent/failed outcome event.
package processor

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/garagebook/garagebook/libs/db"
	"github.com/garagebook/garagebook/libs/events"
	"github.com/garagebook/garagebook/services/notification-service/internal/email"
	"github.com/garagebook/garagebook/services/notification-service/internal/metrics"
	"github.com/garagebook/garagebook/services/notification-service/internal/storage"
	"github.com/garagebook/garagebook/services/notification-service/internal/templates"
)

const (
	SentTopic   = "notification.sent.v1"
	FailedTopic = "notification.failed.v1"
)

// EmailRequest mirrors the payload reminder-service publishes.
type EmailRequest struct {
	BookingID    string         `json:"booking_id"`
	Kind         string         `json:"kind"`
	To           string         `json:"to"`
	Subject      string         `json:"subject"`
	TemplateType string         `json:"template_type"`
	Data         map[string]any `json:"data"`
}

type Store interface {
	Insert(ctx context.Context, n storage.Notification) error
}

type Outbox interface {
	InsertOne(ctx context.Context, pool *db.Pool, ev events.Event) error
}

type Processor struct {
	pool    *db.Pool
	sender  email.Sender
	store   Store
	outbox  Outbox
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(pool *db.Pool, sender email.Sender, store Store, outbox Outbox, m *metrics.Metrics, logger *slog.Logger) *Processor {
	return &Processor{pool: pool, sender: sender, store: store, outbox: outbox, metrics: m, logger: logger}
}

// Process handles one request. Malformed requests are dropped (logged, nil
// return); infrastructure failures return an error so the caller can decide.
func (p *Processor) Process(ctx context.Context, req EmailRequest) error {
	if req.BookingID == "" || req.To == "" || req.TemplateType == "" {
		p.logger.Error("email request missing required fields",
			"booking_id", req.BookingID, "to", req.To, "template_type", req.TemplateType)
		return nil
	}
	log := p.logger.With("booking_id", req.BookingID, "template_type", req.TemplateType)

	status := "sent"
	failureReason := ""

	body, err := templates.Render(req.TemplateType, req.Data)
	if err != nil {
		status = "failed"
		failureReason = err.Error()
		log.Error("template render failed", "err", err)
	} else if err := p.sender.Send(req.To, req.Subject, body); err != nil {
		status = "failed"
		failureReason = err.Error()
		log.Error("email send failed", "err", err, "recipient", req.To)
	}

	if status == "sent" {
		p.metrics.IncSent(req.TemplateType)
	} else {
		p.metrics.IncFailed(req.TemplateType)
	}

	if err := p.store.Insert(ctx, storage.Notification{
		BookingID: req.BookingID,
		Recipient: req.To,
		Subject:   req.Subject,
		Template:  req.TemplateType,
		Payload:   req.Data,
		Status:    status,
	}); err != nil {
		log.Error("failed to persist notification", "err", err)
		return err
	}

	if err := p.writeOutcome(ctx, req, status, failureReason); err != nil {
		log.Error("failed to enqueue notification outcome", "err", err)
		return err
	}

	log.Info("email request processed", "status", status)
	return nil
}

func (p *Processor) writeOutcome(ctx context.Context, req EmailRequest, status, reason string) error {
	topic := SentTopic
	payload := map[string]any{
		"booking_id": req.BookingID,
		"kind":       req.Kind,
		"recipient":  req.To,
		"at":         time.Now().UTC().Format(time.RFC3339),
	}
	if status != "sent" {
		topic = FailedTopic
		payload["error_reason"] = reason
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.outbox.InsertOne(ctx, p.pool, events.Event{
		AggregateType: "notification",
		AggregateID:   req.BookingID,
		EventType:     topic,
		Payload:       raw,
	})
}
