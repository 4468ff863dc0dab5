// Package remind contains the scheduling entry point invoked on every booking
// create/update, and the handlers executed when triggers come due.
package remind

import (
	"context"
	"log/slog"
	"time"

	"github.com/garagebook/garagebook/libs/clock"
	"github.com/garagebook/garagebook/services/reminder-service/internal/metrics"
	"github.com/garagebook/garagebook/services/reminder-service/internal/model"
	"github.com/garagebook/garagebook/services/reminder-service/internal/policy"
)

// TriggerStore is the slice of the trigger repository the orchestrator needs.
type TriggerStore interface {
	Insert(ctx context.Context, kind policy.Kind, bookingID string, fireAt time.Time) error
	InsertDue(ctx context.Context, kind policy.Kind, bookingID string) error
	Cancel(ctx context.Context, bookingID string, kinds ...policy.Kind) error
}

type Orchestrator struct {
	store   TriggerStore
	clock   clock.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewOrchestrator(store TriggerStore, clk clock.Clock, logger *slog.Logger, m *metrics.Metrics) *Orchestrator {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Orchestrator{store: store, clock: clk, logger: logger, metrics: m}
}

// ScheduleForBooking cancels any existing triggers for the booking and
// installs fresh ones according to its current date and time slots. Safe to
// call on every create or update, whether or not timing fields changed.
//
// It deliberately returns nothing: a scheduling failure must never abort the
// booking mutation that triggered it, so every failure path logs and stops.
func (o *Orchestrator) ScheduleForBooking(ctx context.Context, b *model.Booking) {
	if b == nil || b.ID == "" {
		o.logger.Error("cannot schedule reminders for booking without id")
		return
	}
	log := o.logger.With("booking_id", b.ID)

	// Unconditional cancel keeps the (booking, kind) pair unique: a cheap
	// no-op on first creation, the cleanup path on every edit.
	if err := o.store.Cancel(ctx, b.ID, policy.Kinds...); err != nil {
		log.Error("cancelling stale reminder triggers failed", "err", err)
		return
	}

	start, defaulted, err := policy.ResolveStart(b.Date, b.TimeSlots, b.SelectedTimeSlot)
	if err != nil {
		log.Error("cannot resolve appointment time, skipping reminders", "err", err)
		return
	}
	if defaulted {
		log.Warn("appointment time missing or unparseable, assuming 09:00",
			"date", b.Date.Format(time.DateOnly))
	}

	now := o.clock.Now()
	for _, kind := range policy.Kinds {
		switch outcome := policy.Classify(kind, start, now); outcome {
		case policy.OutcomeSchedule:
			fireAt := policy.FireAt(kind, start)
			if err := o.store.Insert(ctx, kind, b.ID, fireAt); err != nil {
				log.Error("persisting reminder trigger failed", "kind", kind, "err", err)
				continue
			}
			o.metrics.IncScheduled(string(kind))
			log.Info("reminder trigger scheduled", "kind", kind, "fire_at", fireAt)
		case policy.OutcomeFireNow:
			if err := o.store.InsertDue(ctx, kind, b.ID); err != nil {
				log.Error("enqueueing immediate reminder failed", "kind", kind, "err", err)
				continue
			}
			o.metrics.IncFiredNow()
			log.Info("reminder lead already passed, firing immediately", "kind", kind)
		default:
			log.Info("reminder not applicable", "kind", kind, "outcome", outcome.String())
		}
	}
}
