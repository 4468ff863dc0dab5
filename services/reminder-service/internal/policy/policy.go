// Package policy holds the pure scheduling rules: resolving a booking's
// appointment instant and classifying each reminder lead against "now".
package policy

import (
	"fmt"
	"time"
)

// Kind identifies a reminder lead.
type Kind string

const (
	Reminder24h Kind = "reminder-24h"
	Reminder1h  Kind = "reminder-1h"
)

// Kinds lists every reminder kind in no particular order.
var Kinds = []Kind{Reminder24h, Reminder1h}

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Reminder24h:
		return Reminder24h, nil
	case Reminder1h:
		return Reminder1h, nil
	}
	return "", fmt.Errorf("unknown reminder kind %q", s)
}

// Lead returns the offset before the appointment at which the reminder fires.
func (k Kind) Lead() time.Duration {
	switch k {
	case Reminder24h:
		return 24 * time.Hour
	default:
		return time.Hour
	}
}

// FireAt returns the instant the reminder should fire for an appointment
// starting at start.
func FireAt(kind Kind, start time.Time) time.Time {
	return start.Add(-kind.Lead())
}

// Outcome is the scheduling decision for one reminder kind.
type Outcome int

const (
	// OutcomeSchedule: the fire time is still in the future, persist a trigger.
	OutcomeSchedule Outcome = iota
	// OutcomeFireNow: the lead window has passed but the appointment has not;
	// dispatch immediately. Only the 1h reminder ever gets this.
	OutcomeFireNow
	// OutcomeDrop: the lead window has passed and the reminder has no
	// catch-up value. The 24h reminder is advance notice only.
	OutcomeDrop
	// OutcomeMoot: the appointment itself has already passed.
	OutcomeMoot
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSchedule:
		return "schedule"
	case OutcomeFireNow:
		return "fire-now"
	case OutcomeDrop:
		return "drop"
	case OutcomeMoot:
		return "moot"
	}
	return "unknown"
}

// Classify decides what to do with one reminder kind given the appointment
// start and the current instant.
//
// The asymmetry between kinds is deliberate: a missed 1h lead still fires
// immediately while the appointment is upcoming, a missed 24h lead is dropped.
func Classify(kind Kind, start, now time.Time) Outcome {
	if !start.After(now) {
		return OutcomeMoot
	}
	if FireAt(kind, start).After(now) {
		return OutcomeSchedule
	}
	if kind == Reminder1h {
		return OutcomeFireNow
	}
	return OutcomeDrop
}
