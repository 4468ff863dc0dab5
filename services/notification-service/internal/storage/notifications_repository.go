package storage

import (
	"context"
	"encoding/json"

	"github.com/garagebook/garagebook/libs/db"
)

type Notification struct {
	BookingID string
	Recipient string
	Subject   string
	Template  string
	Payload   map[string]any
	Status    string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO notifications (booking_id, recipient, subject, template, payload, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, n.BookingID, n.Recipient, n.Subject, n.Template, payload, n.Status)
	return err
}
