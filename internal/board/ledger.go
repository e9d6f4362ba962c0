package board

import (
	"context"
	"sync"
	"time"

	"ideaboard/internal/models"
)

// quotaCacheTTL is how long a fetched remaining-count is trusted before the
// next FetchRemaining call goes back to the server.
const quotaCacheTTL = 30 * time.Second

// LikeLedger tracks how many likes the current user has left today. It is a
// UX guard, not an enforcement point; the server re-validates every like.
type LikeLedger struct {
	api    RemoteStore
	userID uint
	limit  int
	now    func() time.Time

	mu        sync.Mutex
	remaining int
	fetchedAt time.Time
	hasValue  bool
}

// NewLikeLedger builds a ledger for one user against the given daily limit.
func NewLikeLedger(api RemoteStore, userID uint, limit int) *LikeLedger {
	return &LikeLedger{
		api:    api,
		userID: userID,
		limit:  limit,
		now:    time.Now,
	}
}

// Limit returns the configured daily like limit.
func (l *LikeLedger) Limit() int {
	return l.limit
}

// FetchRemaining returns the user's remaining like count, served from cache
// when the last fetch is under 30 seconds old unless force is set. A failed
// fetch keeps the last known value rather than resetting, so a user at quota
// is not falsely re-enabled by a flaky connection.
func (l *LikeLedger) FetchRemaining(ctx context.Context, force bool) (int, error) {
	l.mu.Lock()
	if l.hasValue && !force && l.now().Sub(l.fetchedAt) < quotaCacheTTL {
		remaining := l.remaining
		l.mu.Unlock()
		return remaining, nil
	}
	l.mu.Unlock()

	stats, err := l.api.FetchStats(ctx, l.userID)
	if err != nil {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.hasValue {
			return l.remaining, nil
		}
		return 0, models.NewFetchError(err)
	}

	remaining := l.limit - stats.DailyLikesUsed
	if remaining < 0 {
		remaining = 0
	}

	l.mu.Lock()
	l.remaining = remaining
	l.fetchedAt = l.now()
	l.hasValue = true
	l.mu.Unlock()
	return remaining, nil
}

// Remaining returns the last known value without touching the network.
// Before the first successful fetch it reports the full limit.
func (l *LikeLedger) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.hasValue {
		return l.limit
	}
	return l.remaining
}

// DecrementOptimistically spends one like locally, never going below zero.
func (l *LikeLedger) DecrementOptimistically() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.hasValue {
		l.remaining = l.limit
		l.hasValue = true
	}
	if l.remaining > 0 {
		l.remaining--
	}
}

// Refund hands one like back, capped at the limit. Called both when an
// optimistic like rolls back and when an unlike returns today's slot.
func (l *LikeLedger) Refund() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.hasValue {
		l.remaining = l.limit
		l.hasValue = true
		return
	}
	if l.remaining < l.limit {
		l.remaining++
	}
}
