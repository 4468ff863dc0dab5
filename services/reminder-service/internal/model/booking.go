package model

import "time"

// TimeSlot is one entry of a garage's weekly opening hours as stored on the
// booking. Open and Close are display strings like "10:00" / "18:00".
type TimeSlot struct {
	Day    string `json:"day"`
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"isClosed"`
}

// ReminderFlags records which reminders have already been sent for a booking.
// Once a flag is true the corresponding reminder must never be sent again.
type ReminderFlags struct {
	OneHour        bool
	TwentyFourHour bool
}

// Booking is the read model of a booking row. Rows are created and deleted by
// the booking CRUD backend; this service only reads them and sets the
// reminder flags.
type Booking struct {
	ID               string
	GarageID         string
	CustomerID       string
	Date             time.Time
	TimeSlots        []TimeSlot
	SelectedTimeSlot string // legacy single-string slot, kept for old rows
	Reminders        ReminderFlags
}

// ActiveSlot returns the first time slot not marked closed. This is the single
// place that lookup lives; callers must not reimplement it.
func (b *Booking) ActiveSlot() (TimeSlot, bool) {
	for _, s := range b.TimeSlots {
		if !s.Closed {
			return s, true
		}
	}
	return TimeSlot{}, false
}

type Customer struct {
	ID    string
	Name  string
	Email string
}

type Garage struct {
	ID   string
	Name string
}

// BookingDetail bundles a booking with the related entities a reminder
// notification needs.
type BookingDetail struct {
	Booking      Booking
	Customer     Customer
	Garage       Garage
	ServiceNames []string
}
