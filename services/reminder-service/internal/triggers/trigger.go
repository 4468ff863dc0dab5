// Package triggers persists pending reminder obligations and hands them out
// to scheduler instances under a lease.
package triggers

import (
	"time"

	"github.com/garagebook/garagebook/services/reminder-service/internal/policy"
)

// Trigger is one pending reminder for one booking. It is created by the
// orchestrator, claimed by a worker, and deleted after successful handling or
// whenever the booking's date changes. Only the lock fields are ever updated
// in place.
type Trigger struct {
	ID          int64
	Kind        policy.Kind
	BookingID   string
	FireAt      time.Time
	LockOwner   string
	LockedUntil time.Time
	Traceparent string
	Tracestate  string
}
