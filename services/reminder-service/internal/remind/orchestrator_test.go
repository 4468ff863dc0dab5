package remind

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/garagebook/garagebook/libs/clock"
	"github.com/garagebook/garagebook/services/reminder-service/internal/model"
	"github.com/garagebook/garagebook/services/reminder-service/internal/policy"
)

type storedTrigger struct {
	kind      policy.Kind
	bookingID string
	fireAt    time.Time
	immediate bool
}

// fakeTriggerStore mimics the repository's cancel/insert semantics in memory.
type fakeTriggerStore struct {
	triggers  []storedTrigger
	cancels   int
	cancelErr error
	insertErr error
}

func (f *fakeTriggerStore) Insert(_ context.Context, kind policy.Kind, bookingID string, fireAt time.Time) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.triggers = append(f.triggers, storedTrigger{kind: kind, bookingID: bookingID, fireAt: fireAt})
	return nil
}

func (f *fakeTriggerStore) InsertDue(_ context.Context, kind policy.Kind, bookingID string) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.triggers = append(f.triggers, storedTrigger{kind: kind, bookingID: bookingID, immediate: true})
	return nil
}

func (f *fakeTriggerStore) Cancel(_ context.Context, bookingID string, kinds ...policy.Kind) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancels++
	kept := f.triggers[:0]
	for _, t := range f.triggers {
		if t.bookingID == bookingID && kindIn(t.kind, kinds) {
			continue
		}
		kept = append(kept, t)
	}
	f.triggers = kept
	return nil
}

func kindIn(k policy.Kind, kinds []policy.Kind) bool {
	for _, c := range kinds {
		if c == k {
			return true
		}
	}
	return false
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator(store *fakeTriggerStore, now time.Time) *Orchestrator {
	return NewOrchestrator(store, clock.NewFake(now), testLogger(), nil)
}

func tomorrowTenBooking() *model.Booking {
	return &model.Booking{
		ID:         "booking-1",
		GarageID:   "garage-1",
		CustomerID: "customer-1",
		Date:       time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC),
		TimeSlots: []model.TimeSlot{
			{Day: "Tuesday", Open: "10:00", Close: "18:00", Closed: false},
		},
	}
}

// Booking tomorrow at 10:00 seen today at 08:00: 24h trigger lands today at
// 10:00 (still two hours out), 1h trigger tomorrow at 09:00.
func TestScheduleForBooking_BothTriggers(t *testing.T) {
	store := &fakeTriggerStore{}
	now := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	newTestOrchestrator(store, now).ScheduleForBooking(context.Background(), tomorrowTenBooking())

	if len(store.triggers) != 2 {
		t.Fatalf("expected 2 triggers, got %d", len(store.triggers))
	}
	byKind := map[policy.Kind]storedTrigger{}
	for _, tr := range store.triggers {
		byKind[tr.kind] = tr
	}
	want24 := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	if tr := byKind[policy.Reminder24h]; tr.immediate || !tr.fireAt.Equal(want24) {
		t.Fatalf("24h trigger: expected fire at %s, got %+v", want24, tr)
	}
	want1 := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)
	if tr := byKind[policy.Reminder1h]; tr.immediate || !tr.fireAt.Equal(want1) {
		t.Fatalf("1h trigger: expected fire at %s, got %+v", want1, tr)
	}
}

func TestScheduleForBooking_Within24h(t *testing.T) {
	store := &fakeTriggerStore{}
	now := time.Date(2026, time.March, 3, 2, 0, 0, 0, time.UTC)
	newTestOrchestrator(store, now).ScheduleForBooking(context.Background(), tomorrowTenBooking())

	if len(store.triggers) != 1 {
		t.Fatalf("expected only the 1h trigger, got %d triggers", len(store.triggers))
	}
	tr := store.triggers[0]
	if tr.kind != policy.Reminder1h || tr.immediate {
		t.Fatalf("unexpected trigger %+v", tr)
	}
	if want := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC); !tr.fireAt.Equal(want) {
		t.Fatalf("expected fire at %s, got %s", want, tr.fireAt)
	}
}

// 30 minutes before the appointment the 1h lead is gone: fire immediately.
func TestScheduleForBooking_FireNow(t *testing.T) {
	store := &fakeTriggerStore{}
	now := time.Date(2026, time.March, 3, 9, 30, 0, 0, time.UTC)
	newTestOrchestrator(store, now).ScheduleForBooking(context.Background(), tomorrowTenBooking())

	if len(store.triggers) != 1 {
		t.Fatalf("expected one immediate trigger, got %d", len(store.triggers))
	}
	tr := store.triggers[0]
	if tr.kind != policy.Reminder1h || !tr.immediate {
		t.Fatalf("expected immediate 1h trigger, got %+v", tr)
	}
}

func TestScheduleForBooking_PastAppointment(t *testing.T) {
	store := &fakeTriggerStore{}
	now := time.Date(2026, time.March, 3, 11, 0, 0, 0, time.UTC)
	newTestOrchestrator(store, now).ScheduleForBooking(context.Background(), tomorrowTenBooking())

	if len(store.triggers) != 0 {
		t.Fatalf("expected no triggers for a past appointment, got %d", len(store.triggers))
	}
	if store.cancels != 1 {
		t.Fatalf("cancel must still run, got %d calls", store.cancels)
	}
}

func TestScheduleForBooking_Idempotent(t *testing.T) {
	store := &fakeTriggerStore{}
	now := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	o := newTestOrchestrator(store, now)

	b := tomorrowTenBooking()
	o.ScheduleForBooking(context.Background(), b)
	o.ScheduleForBooking(context.Background(), b)

	if len(store.triggers) != 2 {
		t.Fatalf("double scheduling must not accumulate triggers, got %d", len(store.triggers))
	}
}

// Editing the date replaces the trigger set; nothing points at the old time.
func TestScheduleForBooking_RescheduleOnEdit(t *testing.T) {
	store := &fakeTriggerStore{}
	now := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	o := newTestOrchestrator(store, now)

	b := tomorrowTenBooking()
	o.ScheduleForBooking(context.Background(), b)

	b.Date = time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	o.ScheduleForBooking(context.Background(), b)

	if len(store.triggers) != 2 {
		t.Fatalf("expected exactly the new trigger set, got %d", len(store.triggers))
	}
	want1 := time.Date(2026, time.March, 5, 9, 0, 0, 0, time.UTC)
	for _, tr := range store.triggers {
		if tr.kind == policy.Reminder1h && !tr.fireAt.Equal(want1) {
			t.Fatalf("1h trigger still references the old date: %s", tr.fireAt)
		}
	}
}

func TestScheduleForBooking_InvalidDate(t *testing.T) {
	store := &fakeTriggerStore{}
	now := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	b := tomorrowTenBooking()
	b.Date = time.Time{}

	newTestOrchestrator(store, now).ScheduleForBooking(context.Background(), b)

	if len(store.triggers) != 0 {
		t.Fatalf("invalid date must not produce triggers, got %d", len(store.triggers))
	}
	if store.cancels != 1 {
		t.Fatal("cancel runs before date resolution and must still happen")
	}
}

func TestScheduleForBooking_MissingID(t *testing.T) {
	store := &fakeTriggerStore{}
	now := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	o := newTestOrchestrator(store, now)

	o.ScheduleForBooking(context.Background(), nil)
	o.ScheduleForBooking(context.Background(), &model.Booking{})

	if store.cancels != 0 || len(store.triggers) != 0 {
		t.Fatalf("booking without id must be a no-op, cancels=%d triggers=%d", store.cancels, len(store.triggers))
	}
}

func TestScheduleForBooking_CancelFailureAborts(t *testing.T) {
	store := &fakeTriggerStore{cancelErr: context.DeadlineExceeded}
	now := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)

	newTestOrchestrator(store, now).ScheduleForBooking(context.Background(), tomorrowTenBooking())

	if len(store.triggers) != 0 {
		t.Fatal("inserting after a failed cancel would duplicate triggers")
	}
}

func TestScheduleForBooking_AllSlotsClosedUsesDefault(t *testing.T) {
	store := &fakeTriggerStore{}
	now := time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC)
	b := tomorrowTenBooking()
	for i := range b.TimeSlots {
		b.TimeSlots[i].Closed = true
	}

	newTestOrchestrator(store, now).ScheduleForBooking(context.Background(), b)

	// Default 09:00 start: 24h trigger today 09:00, 1h trigger tomorrow 08:00.
	if len(store.triggers) != 2 {
		t.Fatalf("expected 2 triggers, got %d", len(store.triggers))
	}
	for _, tr := range store.triggers {
		var want time.Time
		if tr.kind == policy.Reminder24h {
			want = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
		} else {
			want = time.Date(2026, time.March, 3, 8, 0, 0, 0, time.UTC)
		}
		if !tr.fireAt.Equal(want) {
			t.Fatalf("%s: expected fire at %s, got %s", tr.kind, want, tr.fireAt)
		}
	}
}
