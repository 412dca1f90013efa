package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"nexconnect-server/internal/directory"
	"nexconnect-server/internal/hub"
	"nexconnect-server/internal/model"
)

// presenceFanout pushes tracker change events to the websocket hub. Events
// for one user go through a FIFO queue drained by a single goroutine, so an
// offline/online flap reaches friends in the order it happened; a slow
// friend lookup delays later events for that user rather than overtaking
// them. Enqueueing never blocks the tracker.
type presenceFanout struct {
	hub     *hub.Hub
	dir     directory.Directory
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	queues map[string][]model.PresenceEvent
}

// PresenceNotifier returns the tracker's change callback. The event goes to
// the user's friends and to the user's own other connections.
func PresenceNotifier(h *hub.Hub, dir directory.Directory, timeout time.Duration, logger *slog.Logger) func(model.PresenceEvent) {
	f := &presenceFanout{
		hub:     h,
		dir:     dir,
		timeout: timeout,
		logger:  logger,
		queues:  make(map[string][]model.PresenceEvent),
	}
	return f.enqueue
}

// enqueue appends the event to the user's queue. A queue entry exists only
// while a drain goroutine owns it, so exactly one drainer runs per user.
func (f *presenceFanout) enqueue(ev model.PresenceEvent) {
	f.mu.Lock()
	pending, active := f.queues[ev.UserID]
	f.queues[ev.UserID] = append(pending, ev)
	f.mu.Unlock()

	if !active {
		go f.drain(ev.UserID)
	}
}

func (f *presenceFanout) drain(userID string) {
	for {
		f.mu.Lock()
		pending := f.queues[userID]
		if len(pending) == 0 {
			delete(f.queues, userID)
			f.mu.Unlock()
			return
		}
		ev := pending[0]
		f.queues[userID] = pending[1:]
		f.mu.Unlock()

		f.deliver(ev)
	}
}

func (f *presenceFanout) deliver(ev model.PresenceEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	friendIDs, err := f.dir.ListFriends(ctx, ev.UserID)
	if err != nil {
		f.logger.Warn("presence fan-out skipped", "user", ev.UserID, "error", err)
		return
	}

	var lastSeen any
	if ev.LastSeen > 0 {
		lastSeen = ev.LastSeen
	}
	payload, err := json.Marshal(map[string]any{
		"type": "presence",
		"body": map[string]any{
			"userId":   ev.UserID,
			"online":   ev.Online,
			"lastSeen": lastSeen,
		},
	})
	if err != nil {
		return
	}

	f.hub.BroadcastMany(append(friendIDs, ev.UserID), payload)
}
