package order

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/events"
)

const defaultHeartbeat = 25 * time.Second

// Stream pushes order events to the back office as server-sent events.
// Events missed while disconnected are not replayed.
type Stream struct {
	Events    events.Subscriber
	Heartbeat time.Duration
	Logger    *zerolog.Logger
}

// ServeHTTP handles GET /api/v1/admin/orders/stream.
func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()
	ch, err := s.Events.Subscribe(ctx, events.TopicOrderCreated, events.TopicOrderStatusChanged)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Error().Err(err).Msg("order_stream_subscribe_failed")
		}
		http.Error(w, "event stream unavailable", http.StatusServiceUnavailable)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	every := s.Heartbeat
	if every <= 0 {
		every = defaultHeartbeat
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, open := <-ch:
			if !open {
				return
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Topic, ev.Payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
