package policy

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/garagebook/garagebook/services/reminder-service/internal/model"
)

// ErrInvalidDate means the booking's calendar date is unusable and no
// reminders can be scheduled for it.
var ErrInvalidDate = errors.New("booking date is invalid")

// DefaultHour/DefaultMinute is the appointment time assumed when the booking
// carries no parseable time information.
const (
	DefaultHour   = 9
	DefaultMinute = 0
)

var clockTimeRe = regexp.MustCompile(`(\d{1,2}):(\d{2})`)

// ResolveStart derives the appointment start instant from the booking's
// calendar date plus its time-slot data. Preference order: first non-closed
// time slot's open time, then the legacy selected-time-slot string, then
// 09:00. defaulted reports that the fallback was used, so the caller can log
// a warning.
func ResolveStart(date time.Time, slots []model.TimeSlot, legacy string) (start time.Time, defaulted bool, err error) {
	if date.IsZero() {
		return time.Time{}, false, ErrInvalidDate
	}

	hour, minute := DefaultHour, DefaultMinute

	switch {
	case len(slots) > 0:
		if slot, ok := firstOpen(slots); ok {
			if h, m, ok := ParseClockTime(slot.Open); ok {
				hour, minute = h, m
			} else {
				defaulted = true
			}
		} else {
			// Every slot is marked closed.
			defaulted = true
		}
	case strings.TrimSpace(legacy) != "":
		if h, m, ok := ParseClockTime(legacy); ok {
			hour, minute = h, m
		} else {
			defaulted = true
		}
	default:
		defaulted = true
	}

	start = time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
	return start, defaulted, nil
}

func firstOpen(slots []model.TimeSlot) (model.TimeSlot, bool) {
	for _, s := range slots {
		if !s.Closed {
			return s, true
		}
	}
	return model.TimeSlot{}, false
}

// ParseClockTime extracts the first H:MM or HH:MM occurrence from s.
func ParseClockTime(s string) (hour, minute int, ok bool) {
	m := clockTimeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
