// Package pending keeps the in-process list of users who shared a phone and
// still owe a location.
package pending

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"telegram-storefront-bot/internal/domain/ports/repository"
)

var _ repository.PendingRegistrations = (*Registry)(nil)

type entry struct {
	gen   uint64
	timer clockwork.Timer
}

// Registry is a mutex-guarded map with one timer per user. Every Arm bumps a
// generation counter; a timer only acts if its generation is still current,
// so a superseded or cleared timer that already fired is a no-op.
type Registry struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	seq     uint64
	entries map[int64]*entry
}

func NewRegistry(clock clockwork.Clock) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Registry{clock: clock, entries: make(map[int64]*entry)}
}

func (r *Registry) Arm(userID int64, timeout time.Duration, onExpire func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.entries[userID]; ok {
		old.timer.Stop()
	}
	r.seq++
	gen := r.seq
	e := &entry{gen: gen}
	// The callback runs on its own goroutine and takes r.mu, so creating the
	// timer while holding the lock is safe.
	e.timer = r.clock.AfterFunc(timeout, func() {
		if r.expire(userID, gen) && onExpire != nil {
			onExpire()
		}
	})
	r.entries[userID] = e
}

func (r *Registry) expire(userID int64, gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[userID]
	if !ok || e.gen != gen {
		return false
	}
	delete(r.entries, userID)
	return true
}

func (r *Registry) Clear(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[userID]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(r.entries, userID)
	return true
}

func (r *Registry) IsPending(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[userID]
	return ok
}

// Len reports the number of users waiting for a location.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
