// Package quota enforces the per-user daily like allowance.
package quota

import (
	"context"
	"fmt"
	"time"

	"ideaboard/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Keys roll over at UTC midnight. The expiry is longer than a day so a
// consumer reading shortly after midnight still sees yesterday's key gone
// rather than a stale zero.
const keyExpiry = 48 * time.Hour

// Ledger tracks daily like consumption per user in Redis.
type Ledger struct {
	rdb   *redis.Client
	limit int
	now   func() time.Time
}

// NewLedger returns a Ledger enforcing the given daily limit.
func NewLedger(rdb *redis.Client, limit int) *Ledger {
	return &Ledger{rdb: rdb, limit: limit, now: time.Now}
}

// Limit returns the configured daily allowance.
func (l *Ledger) Limit() int {
	return l.limit
}

func (l *Ledger) key(userID uint) string {
	return fmt.Sprintf("likes:%d:%s", userID, l.now().UTC().Format("2006-01-02"))
}

// Used returns how many likes the user has consumed today.
func (l *Ledger) Used(ctx context.Context, userID uint) (int, error) {
	if l.rdb == nil {
		return 0, nil
	}
	n, err := l.rdb.Get(ctx, l.key(userID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Consume atomically takes one unit of today's allowance. It returns
// false when the user is already at the limit. Redis being unavailable
// fails open so likes keep working without the ledger.
func (l *Ledger) Consume(ctx context.Context, userID uint) (bool, error) {
	if l.rdb == nil {
		return true, nil
	}

	key := l.key(userID)
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		middleware.Logger.Warn("Quota ledger unavailable, allowing like",
			"user_id", userID, "error", err)
		return true, nil
	}

	if count == 1 {
		l.rdb.Expire(ctx, key, keyExpiry)
	}

	if count > int64(l.limit) {
		// Undo the overshoot so Used stays accurate.
		l.rdb.Decr(ctx, key)
		middleware.QuotaRejections.Inc()
		return false, nil
	}

	return true, nil
}

// Refund returns one unit, used when a like is withdrawn the same day.
// The counter never goes below zero.
func (l *Ledger) Refund(ctx context.Context, userID uint) error {
	if l.rdb == nil {
		return nil
	}
	key := l.key(userID)
	n, err := l.rdb.Decr(ctx, key).Result()
	if err != nil {
		return err
	}
	if n < 0 {
		l.rdb.Set(ctx, key, 0, keyExpiry)
	}
	return nil
}
