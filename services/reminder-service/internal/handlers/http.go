package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/garagebook/garagebook/services/reminder-service/internal/model"
)

// Scheduler is what the endpoint invokes; in production it is the reminder
// orchestrator.
type Scheduler interface {
	ScheduleForBooking(ctx context.Context, b *model.Booking)
}

type BookingFinder interface {
	FindByID(ctx context.Context, id string) (*model.BookingDetail, error)
}

// RemindersHandler exposes the manual rescheduling endpoint used by ops and
// by backends that call over HTTP instead of publishing a booking event.
type RemindersHandler struct {
	bookings  BookingFinder
	scheduler Scheduler
	logger    *slog.Logger
}

func NewRemindersHandler(bookings BookingFinder, scheduler Scheduler, logger *slog.Logger) *RemindersHandler {
	return &RemindersHandler{bookings: bookings, scheduler: scheduler, logger: logger}
}

func (h *RemindersHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "booking id is required"})
		return
	}

	d, err := h.bookings.FindByID(r.Context(), id)
	if err != nil {
		h.logger.Error("loading booking failed", "booking_id", id, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "booking lookup failed"})
		return
	}
	if d == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "booking not found"})
		return
	}

	h.scheduler.ScheduleForBooking(r.Context(), &d.Booking)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":     "scheduled",
		"booking_id": id,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
