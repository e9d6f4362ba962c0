package board

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideaboard/internal/models"
)

func TestFetchRemainingComputesFromServerUsage(t *testing.T) {
	t.Parallel()

	api := &remoteStub{
		fetchStatsFn: func(ctx context.Context, userID uint) (*models.UserStats, error) {
			return &models.UserStats{DailyLikesUsed: 2}, nil
		},
	}
	ledger := NewLikeLedger(api, 1, 3)

	remaining, err := ledger.FetchRemaining(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
}

func TestFetchRemainingClampsOverspentUsage(t *testing.T) {
	t.Parallel()

	api := &remoteStub{
		fetchStatsFn: func(ctx context.Context, userID uint) (*models.UserStats, error) {
			return &models.UserStats{DailyLikesUsed: 5}, nil
		},
	}
	ledger := NewLikeLedger(api, 1, 3)

	remaining, err := ledger.FetchRemaining(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestFetchRemainingServesCacheWithinWindow(t *testing.T) {
	t.Parallel()

	api := &remoteStub{
		fetchStatsFn: func(ctx context.Context, userID uint) (*models.UserStats, error) {
			return &models.UserStats{DailyLikesUsed: 1}, nil
		},
	}
	ledger := NewLikeLedger(api, 1, 3)

	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return now }

	_, err := ledger.FetchRemaining(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 1, api.statsCalls)

	// Inside the window, the cached value is served.
	now = now.Add(29 * time.Second)
	_, err = ledger.FetchRemaining(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, api.statsCalls)

	// Force bypasses the cache.
	_, err = ledger.FetchRemaining(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, api.statsCalls)

	// Past the window, the next call refetches.
	now = now.Add(31 * time.Second)
	_, err = ledger.FetchRemaining(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 3, api.statsCalls)
}

func TestFetchRemainingKeepsStaleValueOnFailure(t *testing.T) {
	t.Parallel()

	failing := false
	api := &remoteStub{
		fetchStatsFn: func(ctx context.Context, userID uint) (*models.UserStats, error) {
			if failing {
				return nil, errors.New("network down")
			}
			return &models.UserStats{DailyLikesUsed: 3}, nil
		},
	}
	ledger := NewLikeLedger(api, 1, 3)

	remaining, err := ledger.FetchRemaining(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 0, remaining)

	// A user at quota must not be re-enabled by a flaky connection.
	failing = true
	remaining, err = ledger.FetchRemaining(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestFetchRemainingErrorsWithoutPriorValue(t *testing.T) {
	t.Parallel()

	api := &remoteStub{
		fetchStatsFn: func(ctx context.Context, userID uint) (*models.UserStats, error) {
			return nil, errors.New("network down")
		},
	}
	ledger := NewLikeLedger(api, 1, 3)

	_, err := ledger.FetchRemaining(context.Background(), false)
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeFetchError, appErr.Code)
}

func TestRemainingNeverGoesBelowZero(t *testing.T) {
	t.Parallel()

	ledger := NewLikeLedger(&remoteStub{}, 1, 3)

	for i := 0; i < 10; i++ {
		ledger.DecrementOptimistically()
	}
	assert.Equal(t, 0, ledger.Remaining())
}

func TestRefundCapsAtLimit(t *testing.T) {
	t.Parallel()

	ledger := NewLikeLedger(&remoteStub{}, 1, 3)

	ledger.DecrementOptimistically()
	ledger.Refund()
	ledger.Refund()
	ledger.Refund()

	assert.Equal(t, 3, ledger.Remaining())
}
