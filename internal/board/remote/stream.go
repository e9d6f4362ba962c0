package remote

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"ideaboard/internal/models"
)

const (
	streamPath     = "/api/ws/board"
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// EventStream maintains the websocket subscription to the board event
// channel, feeding raw envelopes to a handler. After a dropped connection it
// reconnects with exponential backoff; events published during the gap are
// gone for good, so the OnReconnect hook is where callers re-initialize.
type EventStream struct {
	url         string
	userID      uint
	handler     func([]byte)
	onReconnect func()
	dialer      *websocket.Dialer
	log         *slog.Logger
}

// StreamOption configures an EventStream.
type StreamOption func(*EventStream)

// WithOnReconnect registers a hook invoked after every re-established
// connection (not the first).
func WithOnReconnect(fn func()) StreamOption {
	return func(s *EventStream) { s.onReconnect = fn }
}

// WithStreamLogger overrides the default logger.
func WithStreamLogger(log *slog.Logger) StreamOption {
	return func(s *EventStream) { s.log = log }
}

// NewEventStream prepares a stream against the same base URL the REST
// client uses. handler is called from the read goroutine for each event.
func NewEventStream(baseURL string, userID uint, handler func([]byte), opts ...StreamOption) *EventStream {
	s := &EventStream{
		url:     wsURL(baseURL) + streamPath,
		userID:  userID,
		handler: handler,
		dialer:  websocket.DefaultDialer,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run connects and reads until ctx is cancelled. It only returns early when
// the very first dial fails, so callers can distinguish "never connected"
// from a mid-session drop.
func (s *EventStream) Run(ctx context.Context) error {
	header := http.Header{"X-User-ID": []string{strconv.FormatUint(uint64(s.userID), 10)}}

	backoff := initialBackoff
	connected := false

	for {
		conn, _, err := s.dialer.DialContext(ctx, s.url, header)
		if err != nil {
			if !connected {
				return models.NewTransportError(err)
			}
			s.log.Warn("event channel reconnect failed", "error", err, "backoff", backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		if connected && s.onReconnect != nil {
			s.onReconnect()
		}
		connected = true
		backoff = initialBackoff
		s.log.Info("event channel connected", "url", s.url)

		if err := s.readLoop(ctx, conn); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn("event channel dropped", "error", err)
		}
	}
}

func (s *EventStream) readLoop(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	// Close the connection when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		s.handler(data)
	}
}

func wsURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}
