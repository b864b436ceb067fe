package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rohanthewiz/logger"
)

// MaxViews caps view engines across all rooms. Past it, new dashboards
// share the room engine.
const MaxViews = 256

// hubKey names one engine: the room's shared engine has an empty view
type hubKey struct {
	room string
	view string
}

type hubEntry struct {
	engine   *Engine
	lastUsed time.Time
}

// Hub keeps the bound engines of a multi-household server. Each room has a
// shared engine for API clients and jobs, and each dashboard may have its
// own view engine so that one member's month and selected day never move
// another member's screen.
type Hub struct {
	store EventStore
	feed  ChangeFeed
	opts  []Option
	now   func() time.Time

	mu      sync.Mutex
	engines map[hubKey]*hubEntry
	views   int
	closed  bool
}

// NewHub returns an empty hub whose engines share store and fd
func NewHub(store EventStore, fd ChangeFeed, opts ...Option) *Hub {
	return &Hub{
		store:   store,
		feed:    fd,
		opts:    opts,
		now:     time.Now,
		engines: map[hubKey]*hubEntry{},
	}
}

// Engine returns the shared engine of roomID, creating it if needed
func (h *Hub) Engine(ctx context.Context, roomID string) (*Engine, error) {
	return h.View(ctx, roomID, "")
}

// View returns the engine of one dashboard on roomID, creating and binding
// it on first use. An empty viewID is the room's shared engine.
// A failed first load still returns the engine: it serves an empty
// calendar and reports the read error in its status until a refresh works.
func (h *Hub) View(ctx context.Context, roomID, viewID string) (*Engine, error) {
	if roomID == "" {
		return nil, ErrUnbound
	}
	key := hubKey{room: roomID, view: viewID}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	if ent, ok := h.engines[key]; ok {
		ent.lastUsed = h.now()
		h.mu.Unlock()
		return ent.engine, nil
	}
	if viewID != "" && h.views >= MaxViews {
		h.mu.Unlock()
		logger.Info("View limit reached, sharing the room engine", "room_id", roomID)
		return h.View(ctx, roomID, "")
	}
	e := New(h.store, h.feed, h.opts...)
	h.engines[key] = &hubEntry{engine: e, lastUsed: h.now()}
	if viewID != "" {
		h.views++
	}
	h.mu.Unlock()

	err := e.Bind(ctx, roomID)
	var rerr *ReadError
	switch {
	case err == nil, errors.As(err, &rerr):
	case errors.Is(err, ErrSuperseded) && e.RoomID() == roomID:
		// Another caller already started a newer load on this engine
	default:
		h.forget(key, e)
		e.Close()
		return nil, err
	}
	logger.Info("Room engine started", "room_id", roomID, "view", viewID)
	return e, nil
}

func (h *Hub) forget(key hubKey, e *Engine) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ent, ok := h.engines[key]; ok && ent.engine == e {
		delete(h.engines, key)
		if key.view != "" {
			h.views--
		}
	}
}

// Lookup returns the shared engine of roomID without creating one
func (h *Hub) Lookup(roomID string) (*Engine, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ent, ok := h.engines[hubKey{room: roomID}]
	if !ok {
		return nil, false
	}
	return ent.engine, true
}

// Each calls fn for every engine, shared and view alike
func (h *Hub) Each(fn func(roomID string, e *Engine)) {
	type pair struct {
		room string
		e    *Engine
	}
	h.mu.Lock()
	all := make([]pair, 0, len(h.engines))
	for k, ent := range h.engines {
		all = append(all, pair{k.room, ent.engine})
	}
	h.mu.Unlock()

	for _, p := range all {
		fn(p.room, p.e)
	}
}

// ReleaseIdle closes view engines unused for maxIdle that have no
// listeners, and returns how many it closed. Shared engines stay.
func (h *Hub) ReleaseIdle(maxIdle time.Duration) int {
	cutoff := h.now().Add(-maxIdle)

	h.mu.Lock()
	var idle []*Engine
	for k, ent := range h.engines {
		if k.view == "" || ent.lastUsed.After(cutoff) || ent.engine.ListenerCount() > 0 {
			continue
		}
		delete(h.engines, k)
		h.views--
		idle = append(idle, ent.engine)
	}
	h.mu.Unlock()

	for _, e := range idle {
		e.Close()
	}
	if len(idle) > 0 {
		logger.Debug("Released idle views", "count", len(idle))
	}
	return len(idle)
}

// Release closes and forgets every engine of roomID
func (h *Hub) Release(roomID string) {
	h.mu.Lock()
	var gone []*Engine
	for k, ent := range h.engines {
		if k.room != roomID {
			continue
		}
		delete(h.engines, k)
		if k.view != "" {
			h.views--
		}
		gone = append(gone, ent.engine)
	}
	h.mu.Unlock()

	for _, e := range gone {
		e.Close()
	}
}

// Close shuts every engine down
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	engines := h.engines
	h.engines = map[hubKey]*hubEntry{}
	h.views = 0
	h.mu.Unlock()

	for _, ent := range engines {
		ent.engine.Close()
	}
}
