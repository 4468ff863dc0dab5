package triggers

import (
	"context"
	"time"

	"github.com/garagebook/garagebook/libs/db"
	"github.com/garagebook/garagebook/libs/otelx"
	"github.com/garagebook/garagebook/services/reminder-service/internal/policy"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert persists a trigger for a future fire time. No uniqueness is enforced
// here; the orchestrator cancels existing triggers for the booking first.
func (r *Repository) Insert(ctx context.Context, kind policy.Kind, bookingID string, fireAt time.Time) error {
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reminder_triggers (kind, booking_id, fire_at, traceparent, tracestate)
		VALUES ($1, $2, $3, $4, $5)
	`, string(kind), bookingID, fireAt, traceparent, tracestate)
	return err
}

// InsertDue persists a trigger that is already due, so the next poll picks it
// up. This is the fire-immediately path for a missed 1h lead.
func (r *Repository) InsertDue(ctx context.Context, kind policy.Kind, bookingID string) error {
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reminder_triggers (kind, booking_id, fire_at, traceparent, tracestate)
		VALUES ($1, $2, now(), $3, $4)
	`, string(kind), bookingID, traceparent, tracestate)
	return err
}

// Cancel deletes unclaimed triggers of the given kinds for a booking. Claimed
// triggers are left alone; their handler re-checks the booking before sending.
// Deleting nothing is not an error.
func (r *Repository) Cancel(ctx context.Context, bookingID string, kinds ...policy.Kind) error {
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}
	if len(names) == 0 {
		for _, k := range policy.Kinds {
			names = append(names, string(k))
		}
	}
	_, err := r.pool.Exec(ctx, `
		DELETE FROM reminder_triggers
		WHERE booking_id = $1
		  AND kind = ANY($2)
		  AND (lock_owner IS NULL OR locked_until <= now())
	`, bookingID, names)
	return err
}

// ClaimDue atomically claims triggers whose fire time has arrived and whose
// lock is free or expired, stamping them with the owner and a lease deadline.
// Two concurrent instances never claim the same trigger: the inner select
// takes row locks and skips rows another transaction already holds.
func (r *Repository) ClaimDue(ctx context.Context, owner string, now time.Time, lockFor time.Duration, limit int) ([]Trigger, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE reminder_triggers
		SET lock_owner = $1, locked_until = $2
		WHERE id IN (
			SELECT id FROM reminder_triggers
			WHERE fire_at <= $3
			  AND (lock_owner IS NULL OR locked_until <= $3)
			ORDER BY fire_at
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, kind, booking_id, fire_at, lock_owner, locked_until, traceparent, tracestate
	`, owner, now.Add(lockFor), now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claimed []Trigger
	for rows.Next() {
		var t Trigger
		var kind string
		if err := rows.Scan(&t.ID, &kind, &t.BookingID, &t.FireAt, &t.LockOwner, &t.LockedUntil, &t.Traceparent, &t.Tracestate); err != nil {
			return nil, err
		}
		t.Kind = policy.Kind(kind)
		claimed = append(claimed, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return claimed, nil
}

// Remove deletes a trigger after its handler finished (or decided there is
// nothing to do).
func (r *Repository) Remove(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM reminder_triggers WHERE id = $1`, id)
	return err
}

// PendingCount reports how many triggers are waiting, claimed or not.
func (r *Repository) PendingCount(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM reminder_triggers`).Scan(&n)
	return n, err
}
