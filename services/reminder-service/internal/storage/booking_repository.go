package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/garagebook/garagebook/libs/db"
	"github.com/garagebook/garagebook/services/reminder-service/internal/model"
	"github.com/garagebook/garagebook/services/reminder-service/internal/policy"
)

// BookingRepository reads booking rows owned by the CRUD backend and flips
// the reminder-sent flags. It never creates or deletes bookings.
type BookingRepository struct {
	pool *db.Pool
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// FindByID loads a booking with the customer, garage and service names needed
// for notification content. A missing booking returns (nil, nil): the row was
// deleted since the trigger was created, which callers treat as a no-op.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*model.BookingDetail, error) {
	var (
		d            model.BookingDetail
		rawSlots     []byte
		selectedSlot *string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT b.id, b.garage_id, b.customer_id, b.date, b.time_slots, b.selected_time_slot,
		       b.reminder_one_hour, b.reminder_twenty_four_hour,
		       c.id, c.name, c.email,
		       g.id, g.name
		FROM bookings b
		JOIN customers c ON c.id = b.customer_id
		JOIN garages g ON g.id = b.garage_id
		WHERE b.id = $1
	`, id).Scan(
		&d.Booking.ID,
		&d.Booking.GarageID,
		&d.Booking.CustomerID,
		&d.Booking.Date,
		&rawSlots,
		&selectedSlot,
		&d.Booking.Reminders.OneHour,
		&d.Booking.Reminders.TwentyFourHour,
		&d.Customer.ID,
		&d.Customer.Name,
		&d.Customer.Email,
		&d.Garage.ID,
		&d.Garage.Name,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if selectedSlot != nil {
		d.Booking.SelectedTimeSlot = *selectedSlot
	}
	if len(rawSlots) > 0 {
		if err := json.Unmarshal(rawSlots, &d.Booking.TimeSlots); err != nil {
			return nil, fmt.Errorf("booking %s has malformed time_slots: %w", id, err)
		}
	}

	rows, err := r.pool.Query(ctx, `
		SELECT s.name
		FROM booking_services bs
		JOIN services s ON s.id = bs.service_id
		WHERE bs.booking_id = $1
		ORDER BY s.name
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		d.ServiceNames = append(d.ServiceNames, name)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return &d, nil
}

// SetReminderSent marks one reminder kind as sent for the booking.
func (r *BookingRepository) SetReminderSent(ctx context.Context, bookingID string, kind policy.Kind) error {
	column := "reminder_one_hour"
	if kind == policy.Reminder24h {
		column = "reminder_twenty_four_hour"
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE bookings
		SET `+column+` = TRUE, updated_at = now()
		WHERE id = $1
	`, bookingID)
	return err
}
