package templates

import (
	"strings"
	"testing"
)

func reminderData() map[string]any {
	return map[string]any{
		"customer_name":    "Dana",
		"garage_name":      "Eastside Motors",
		"appointment_date": "Tuesday, 3 March 2026",
		"appointment_time": "10:00 - 18:00",
		"services":         []any{"MOT", "Oil change"},
	}
}

func TestRender_24h(t *testing.T) {
	body, err := Render(BookingReminder24h, reminderData())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Dana", "Eastside Motors", "tomorrow", "10:00 - 18:00", "- MOT", "- Oil change"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestRender_1h(t *testing.T) {
	body, err := Render(BookingReminder1h, reminderData())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(body, "in about an hour") {
		t.Fatalf("body missing lead phrasing:\n%s", body)
	}
}

func TestRender_NoServicesSection(t *testing.T) {
	data := reminderData()
	delete(data, "services")
	body, err := Render(BookingReminder24h, data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(body, "Booked services") {
		t.Fatalf("services section should be omitted:\n%s", body)
	}
}

func TestRender_UnknownType(t *testing.T) {
	if _, err := Render("booking-reminder-5m", nil); err == nil {
		t.Fatal("expected error for unknown template type")
	}
}
