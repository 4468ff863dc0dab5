package remind

import (
	"context"
	"log/slog"

	"github.com/garagebook/garagebook/services/reminder-service/internal/model"
	"github.com/garagebook/garagebook/services/reminder-service/internal/notify"
	"github.com/garagebook/garagebook/services/reminder-service/internal/policy"
	"github.com/garagebook/garagebook/services/reminder-service/internal/triggers"
)

// BookingStore is the slice of the booking repository the handlers need.
type BookingStore interface {
	FindByID(ctx context.Context, id string) (*model.BookingDetail, error)
	SetReminderSent(ctx context.Context, bookingID string, kind policy.Kind) error
}

const (
	Template24h = "booking-reminder-24h"
	Template1h  = "booking-reminder-1h"

	// Shown when a booking has no usable slot display string.
	timePlaceholder = "your scheduled time"
)

// Handlers executes claimed reminder triggers. A nil return tells the worker
// to remove the trigger; an error leaves it claimed so the lease expiry
// retries it on a later poll.
type Handlers struct {
	bookings BookingStore
	notifier notify.Notifier
	logger   *slog.Logger
}

func NewHandlers(bookings BookingStore, notifier notify.Notifier, logger *slog.Logger) *Handlers {
	return &Handlers{bookings: bookings, notifier: notifier, logger: logger}
}

func (h *Handlers) Handle24h(ctx context.Context, t triggers.Trigger) error {
	return h.handle(ctx, policy.Reminder24h, t.BookingID)
}

func (h *Handlers) Handle1h(ctx context.Context, t triggers.Trigger) error {
	return h.handle(ctx, policy.Reminder1h, t.BookingID)
}

func (h *Handlers) handle(ctx context.Context, kind policy.Kind, bookingID string) error {
	log := h.logger.With("booking_id", bookingID, "kind", kind)

	d, err := h.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if d == nil {
		log.Info("booking no longer exists, dropping reminder")
		return nil
	}
	if reminderSent(d.Booking.Reminders, kind) {
		log.Info("reminder already sent, dropping duplicate trigger")
		return nil
	}

	n := notify.Notification{
		BookingID:    bookingID,
		Kind:         string(kind),
		To:           d.Customer.Email,
		Subject:      subjectFor(kind),
		TemplateType: templateFor(kind),
		Data: map[string]any{
			"customer_name":    d.Customer.Name,
			"garage_name":      d.Garage.Name,
			"services":         d.ServiceNames,
			"appointment_date": d.Booking.Date.Format("Monday, 2 January 2006"),
			"appointment_time": displayTime(&d.Booking),
		},
	}
	if err := h.notifier.Send(ctx, n); err != nil {
		return err
	}

	// Flag set after dispatch initiation: a crash between Send and here risks
	// a rare duplicate on retry, which is preferred over silently dropping
	// the reminder.
	if err := h.bookings.SetReminderSent(ctx, bookingID, kind); err != nil {
		return err
	}

	log.Info("reminder dispatched", "to", d.Customer.Email)
	return nil
}

func reminderSent(f model.ReminderFlags, kind policy.Kind) bool {
	if kind == policy.Reminder24h {
		return f.TwentyFourHour
	}
	return f.OneHour
}

func subjectFor(kind policy.Kind) string {
	if kind == policy.Reminder24h {
		return "Reminder: your garage appointment is tomorrow"
	}
	return "Reminder: your garage appointment is in 1 hour"
}

func templateFor(kind policy.Kind) string {
	if kind == policy.Reminder24h {
		return Template24h
	}
	return Template1h
}

func displayTime(b *model.Booking) string {
	if slot, ok := b.ActiveSlot(); ok {
		return slot.Open + " - " + slot.Close
	}
	if b.SelectedTimeSlot != "" {
		return b.SelectedTimeSlot
	}
	return timePlaceholder
}
