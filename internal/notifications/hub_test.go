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

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()

	client, err := hub.Register(10, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.ConnectionCount())

	hub.UnregisterClient(client)
	assert.Equal(t, 0, hub.ConnectionCount())

	// Unregistering twice is harmless.
	hub.UnregisterClient(client)
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestHub_PerUserConnectionLimit(t *testing.T) {
	hub := NewHub()

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(7, nil)
		require.NoError(t, err)
	}

	_, err := hub.Register(7, nil)
	assert.Error(t, err)

	// Other users are unaffected.
	_, err = hub.Register(8, nil)
	assert.NoError(t, err)
}

func TestHub_BroadcastAllReachesEveryClient(t *testing.T) {
	hub := NewHub()

	a, err := hub.Register(1, nil)
	require.NoError(t, err)
	b, err := hub.Register(2, nil)
	require.NoError(t, err)

	hub.BroadcastAll(`{"type":"idea-created"}`)

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.Send:
			assert.JSONEq(t, `{"type":"idea-created"}`, string(msg))
		default:
			t.Fatal("client did not receive broadcast")
		}
	}
}

func TestHub_ShutdownRefusesNewRegistrations(t *testing.T) {
	hub := NewHub()

	_, err := hub.Register(5, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Equal(t, 0, hub.ConnectionCount())

	_, err = hub.Register(5, nil)
	assert.Error(t, err)
}

func TestHub_WiringDeliversRedisEvents(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	hub := NewHub()
	client, err := hub.Register(3, nil)
	require.NoError(t, err)

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	require.NoError(t, n.PublishBoard(context.Background(), `{"type":"status-changed"}`))

	var got atomic.Value
	assert.Eventually(t, func() bool {
		select {
		case msg := <-client.Send:
			got.Store(string(msg))
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
	assert.JSONEq(t, `{"type":"status-changed"}`, got.Load().(string))
}
