package repository

import "time"

// PendingRegistrations tracks users who shared a phone and are expected to
// share a location. At most one timer is armed per user.
type PendingRegistrations interface {
	// Arm replaces any earlier entry for userID. onExpire runs once, on the
	// timer's goroutine, only if the entry is still the one armed here.
	Arm(userID int64, timeout time.Duration, onExpire func())
	// Clear removes the entry and stops its timer. It reports whether an
	// entry was present.
	Clear(userID int64) bool
	IsPending(userID int64) bool
}
