package remind

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/garagebook/garagebook/services/reminder-service/internal/model"
	"github.com/garagebook/garagebook/services/reminder-service/internal/notify"
	"github.com/garagebook/garagebook/services/reminder-service/internal/policy"
	"github.com/garagebook/garagebook/services/reminder-service/internal/triggers"
)

type fakeBookingStore struct {
	detail   *model.BookingDetail
	findErr  error
	flagErr  error
	flagged  []policy.Kind
	sequence []string
}

func (f *fakeBookingStore) FindByID(_ context.Context, _ string) (*model.BookingDetail, error) {
	return f.detail, f.findErr
}

func (f *fakeBookingStore) SetReminderSent(_ context.Context, _ string, kind policy.Kind) error {
	if f.flagErr != nil {
		return f.flagErr
	}
	f.flagged = append(f.flagged, kind)
	f.sequence = append(f.sequence, "flag")
	return nil
}

type fakeNotifier struct {
	sent    []notify.Notification
	sendErr error
	store   *fakeBookingStore
}

func (f *fakeNotifier) Send(_ context.Context, n notify.Notification) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, n)
	if f.store != nil {
		f.store.sequence = append(f.store.sequence, "send")
	}
	return nil
}

func detailFixture() *model.BookingDetail {
	return &model.BookingDetail{
		Booking: model.Booking{
			ID:   "booking-1",
			Date: time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC),
			TimeSlots: []model.TimeSlot{
				{Day: "Tuesday", Open: "10:00", Close: "18:00", Closed: false},
			},
		},
		Customer:     model.Customer{ID: "customer-1", Name: "Dana", Email: "dana@example.com"},
		Garage:       model.Garage{ID: "garage-1", Name: "Eastside Motors"},
		ServiceNames: []string{"MOT", "Oil change"},
	}
}

func trigger(kind policy.Kind) triggers.Trigger {
	return triggers.Trigger{ID: 7, Kind: kind, BookingID: "booking-1"}
}

func TestHandle_SendsAndFlags(t *testing.T) {
	store := &fakeBookingStore{detail: detailFixture()}
	notifier := &fakeNotifier{store: store}
	h := NewHandlers(store, notifier, testLogger())

	if err := h.Handle1h(context.Background(), trigger(policy.Reminder1h)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.sent))
	}
	n := notifier.sent[0]
	if n.To != "dana@example.com" {
		t.Fatalf("wrong recipient %q", n.To)
	}
	if n.TemplateType != Template1h {
		t.Fatalf("wrong template %q", n.TemplateType)
	}
	if n.Data["appointment_time"] != "10:00 - 18:00" {
		t.Fatalf("wrong display time %v", n.Data["appointment_time"])
	}
	if len(store.flagged) != 1 || store.flagged[0] != policy.Reminder1h {
		t.Fatalf("expected 1h flag set, got %v", store.flagged)
	}
	// Flag is set after dispatch initiation, never before.
	if len(store.sequence) != 2 || store.sequence[0] != "send" || store.sequence[1] != "flag" {
		t.Fatalf("wrong order %v", store.sequence)
	}
}

func TestHandle_FlagAlreadySet(t *testing.T) {
	d := detailFixture()
	d.Booking.Reminders.TwentyFourHour = true
	store := &fakeBookingStore{detail: d}
	notifier := &fakeNotifier{}
	h := NewHandlers(store, notifier, testLogger())

	if err := h.Handle24h(context.Background(), trigger(policy.Reminder24h)); err != nil {
		t.Fatalf("already-sent must be success-no-op, got %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatal("no notification may be dispatched when the flag is set")
	}
	if len(store.flagged) != 0 {
		t.Fatal("flag must not be rewritten")
	}
}

func TestHandle_BookingGone(t *testing.T) {
	store := &fakeBookingStore{detail: nil}
	notifier := &fakeNotifier{}
	h := NewHandlers(store, notifier, testLogger())

	if err := h.Handle1h(context.Background(), trigger(policy.Reminder1h)); err != nil {
		t.Fatalf("missing booking must be success-no-op, got %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatal("no notification for a deleted booking")
	}
}

func TestHandle_NotifierFailureLeavesFlagUnset(t *testing.T) {
	store := &fakeBookingStore{detail: detailFixture()}
	notifier := &fakeNotifier{sendErr: errors.New("outbox down")}
	h := NewHandlers(store, notifier, testLogger())

	if err := h.Handle1h(context.Background(), trigger(policy.Reminder1h)); err == nil {
		t.Fatal("expected dispatch failure to surface")
	}
	if len(store.flagged) != 0 {
		t.Fatal("flag must not be set when dispatch initiation failed")
	}
}

func TestHandle_LoadFailure(t *testing.T) {
	store := &fakeBookingStore{findErr: errors.New("db down")}
	h := NewHandlers(store, &fakeNotifier{}, testLogger())

	if err := h.Handle24h(context.Background(), trigger(policy.Reminder24h)); err == nil {
		t.Fatal("expected load failure to surface")
	}
}

func TestDisplayTime_Fallbacks(t *testing.T) {
	b := &model.Booking{
		TimeSlots: []model.TimeSlot{{Day: "Monday", Open: "08:00", Close: "12:00", Closed: true}},
	}
	if got := displayTime(b); got != timePlaceholder {
		t.Fatalf("all-closed slots: expected placeholder, got %q", got)
	}
	b.SelectedTimeSlot = "9:00 AM - 1:00 PM"
	if got := displayTime(b); got != "9:00 AM - 1:00 PM" {
		t.Fatalf("expected legacy slot string, got %q", got)
	}
}
