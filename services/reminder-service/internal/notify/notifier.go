// Package notify is the boundary to the mail dispatch collaborator. Sending
// here means initiating dispatch; actual delivery happens asynchronously in
// notification-service.
package notify

import (
	"context"
	"encoding/json"

	"github.com/garagebook/garagebook/libs/db"
	"github.com/garagebook/garagebook/libs/events"
)

const EmailRequestedTopic = "notification.email.requested.v1"

type Notification struct {
	BookingID    string         `json:"booking_id"`
	Kind         string         `json:"kind"`
	To           string         `json:"to"`
	Subject      string         `json:"subject"`
	TemplateType string         `json:"template_type"`
	Data         map[string]any `json:"data"`
}

type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// OutboxNotifier writes the email request to the outbox; the publisher moves
// it to Kafka and notification-service takes it from there.
type OutboxNotifier struct {
	pool *db.Pool
	repo *events.OutboxRepository
}

func NewOutboxNotifier(pool *db.Pool, repo *events.OutboxRepository) *OutboxNotifier {
	return &OutboxNotifier{pool: pool, repo: repo}
}

func (n *OutboxNotifier) Send(ctx context.Context, notification Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	return n.repo.InsertOne(ctx, n.pool, events.Event{
		AggregateType: "booking",
		AggregateID:   notification.BookingID,
		EventType:     EmailRequestedTopic,
		Payload:       payload,
	})
}
