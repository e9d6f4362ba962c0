package notifications

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_PublishBoardNilRedis(t *testing.T) {
	// Notifier with nil Redis should return nil error (fail-open/noop)
	n := NewNotifier(nil)
	err := n.PublishBoard(context.Background(), "test payload")
	assert.NoError(t, err)
}

func TestNotifier_BoardRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payloads := make(chan string, 2)
	require.NoError(t, n.StartBoardSubscriber(ctx, func(channel, payload string) {
		assert.Equal(t, BoardChannel, channel)
		payloads <- payload
	}))

	require.NoError(t, n.PublishBoard(context.Background(), `{"type":"idea-created"}`))

	select {
	case got := <-payloads:
		assert.Equal(t, `{"type":"idea-created"}`, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for board event")
	}
}

func TestNotifier_SubscriberStopsOnCancel(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())

	var received int32
	require.NoError(t, n.StartBoardSubscriber(ctx, func(_, _ string) {
		atomic.AddInt32(&received, 1)
	}))

	require.NoError(t, n.PublishBoard(context.Background(), "before-cancel"))
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&received) >= 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, n.PublishBoard(context.Background(), "after-cancel"))
	assert.Never(t, func() bool {
		return atomic.LoadInt32(&received) > 1
	}, 200*time.Millisecond, 10*time.Millisecond)
}
