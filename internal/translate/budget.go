package translate

import (
	"sync"
	"time"
)

// Budget caps outbound translation calls per day. A zero max disables the
// cap. When the budget is exhausted callers fall back to the original text
// instead of queueing network calls.
type Budget struct {
	mu      sync.Mutex
	used    int
	max     int
	resetAt time.Time
}

func NewBudget(max int) *Budget {
	return &Budget{
		max:     max,
		resetAt: time.Now().Add(24 * time.Hour),
	}
}

// Allow reports whether another outbound call fits the budget and claims a
// slot when it does.
func (b *Budget) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if time.Now().After(b.resetAt) {
		b.used = 0
		b.resetAt = time.Now().Add(24 * time.Hour)
	}
	if b.max > 0 && b.used >= b.max {
		return false
	}
	b.used++
	return true
}

// Used reports the calls claimed in the current window.
func (b *Budget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}
