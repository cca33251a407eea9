package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/project-assistant/internal/logger"
	"github.com/benvon/project-assistant/internal/queue"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// DefaultPingInterval keeps idle event streams open through proxies
const DefaultPingInterval = 30 * time.Second

// EventSource hands out per-owner refresh event subscriptions
type EventSource interface {
	Subscribe(owner string) (<-chan *queue.Event, func())
}

// EventsHandler streams refresh events to the caller over server-sent events
type EventsHandler struct {
	source       EventSource
	pingInterval time.Duration
	logger       *zap.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(source EventSource, pingInterval time.Duration, log *zap.Logger) *EventsHandler {
	if pingInterval <= 0 {
		pingInterval = DefaultPingInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EventsHandler{source: source, pingInterval: pingInterval, logger: log}
}

// RegisterRoutes registers the event stream route
func (h *EventsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/events", h.Stream).Methods("GET")
}

// Stream holds the connection open and writes one "refresh" event per notification
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Streaming not supported")
		return
	}

	events, cancel := h.source.Subscribe(user.Email)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)

	if err := writeSSE(w, "connected", map[string]any{"message": "Event stream started"}); err != nil {
		return
	}
	flusher.Flush()

	owner := logger.SanitizeOwner(user.Email)
	h.logger.Debug("event_stream_opened", zap.String("owner", owner))
	defer h.logger.Debug("event_stream_closed", zap.String("owner", owner))

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.IsExpired(time.Now()) {
				continue
			}
			if err := writeSSE(w, "refresh", event); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// writeSSE writes one named event with a JSON data line
func writeSSE(w http.ResponseWriter, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
