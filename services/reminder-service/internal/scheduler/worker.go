// Package scheduler runs the recurring poll loop that claims due triggers and
// dispatches them to their handlers. Several instances may run against the
// same store; the lease taken at claim time is the only mutual exclusion.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/garagebook/garagebook/libs/clock"
	"github.com/garagebook/garagebook/libs/otelx"
	"github.com/garagebook/garagebook/services/reminder-service/internal/metrics"
	"github.com/garagebook/garagebook/services/reminder-service/internal/policy"
	"github.com/garagebook/garagebook/services/reminder-service/internal/triggers"
)

// TriggerSource is the slice of the trigger repository the worker needs.
type TriggerSource interface {
	ClaimDue(ctx context.Context, owner string, now time.Time, lockFor time.Duration, limit int) ([]triggers.Trigger, error)
	Remove(ctx context.Context, id int64) error
	PendingCount(ctx context.Context) (int64, error)
}

// HandlerFunc executes one claimed trigger. A nil return removes the trigger;
// an error leaves it claimed until the lease expires, which is the retry
// mechanism.
type HandlerFunc func(ctx context.Context, t triggers.Trigger) error

type Config struct {
	// PollEvery must stay well under the smallest reminder lead; it is the
	// liveness bound for due triggers.
	PollEvery time.Duration
	// LockFor is the lease length; it must exceed the slowest expected
	// handler or a second instance will re-claim mid-flight.
	LockFor   time.Duration
	BatchSize int
}

type Worker struct {
	source   TriggerSource
	handlers map[policy.Kind]HandlerFunc
	owner    string
	clock    clock.Clock
	logger   *slog.Logger
	metrics  *metrics.Metrics
	cfg      Config
}

func NewWorker(source TriggerSource, handlers map[policy.Kind]HandlerFunc, clk clock.Clock, logger *slog.Logger, m *metrics.Metrics, cfg Config) *Worker {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 10 * time.Second
	}
	if cfg.LockFor <= 0 {
		cfg.LockFor = 2 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 25
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Worker{
		source:   source,
		handlers: handlers,
		owner:    uuid.NewString(),
		clock:    clk,
		logger:   logger,
		metrics:  m,
		cfg:      cfg,
	}
}

func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("reminder worker started",
		"owner", w.owner,
		"poll_every", w.cfg.PollEvery.String(),
		"lock_for", w.cfg.LockFor.String(),
	)

	ticker := time.NewTicker(w.cfg.PollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.poll(ctx); err != nil {
				w.logger.Error("reminder poll failed", "err", err)
			}
		}
	}
}

func (w *Worker) poll(ctx context.Context) error {
	claimed, err := w.source.ClaimDue(ctx, w.owner, w.clock.Now(), w.cfg.LockFor, w.cfg.BatchSize)
	if err != nil {
		return err
	}
	w.metrics.AddClaimed(len(claimed))

	for _, t := range claimed {
		w.dispatch(ctx, t)
	}

	if n, err := w.source.PendingCount(ctx); err == nil {
		w.metrics.SetPending(n)
	}
	return nil
}

func (w *Worker) dispatch(ctx context.Context, t triggers.Trigger) {
	log := w.logger.With("trigger_id", t.ID, "kind", t.Kind, "booking_id", t.BookingID)

	handler, ok := w.handlers[t.Kind]
	if !ok {
		// A trigger of a kind nobody registered would be re-claimed forever;
		// drop it instead.
		log.Error("no handler registered for trigger kind, removing trigger")
		if err := w.source.Remove(ctx, t.ID); err != nil {
			log.Error("removing orphaned trigger failed", "err", err)
		}
		return
	}

	handlerCtx := otelx.ContextWithTraceContext(ctx, t.Traceparent, t.Tracestate)
	started := time.Now()
	err := handler(handlerCtx, t)
	w.metrics.ObserveHandlerDuration(time.Since(started).Seconds())

	if err != nil {
		// Leave the trigger claimed: the lease expiry makes it reclaimable,
		// and the reminder-sent flag short-circuits any retry that already
		// went through.
		w.metrics.IncFailed()
		log.Error("reminder handler failed, leaving trigger for lease-expiry retry", "err", err)
		return
	}

	if err := w.source.Remove(ctx, t.ID); err != nil {
		log.Error("removing completed trigger failed", "err", err)
		return
	}
	w.metrics.IncCompleted(string(t.Kind))
}
