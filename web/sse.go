package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"

	"schedulehub/engine"
	"schedulehub/web/api"
)

const (
	sseBuffer = 16
	// a stream whose buffer stays full this many updates in a row has no reader
	sseMaxDropped = 32
	// sseHeartbeat paces pings; a stream that has not read everything queued
	// by the previous ping is closed
	sseHeartbeat = 30 * time.Second
)

// sseStream forwards one room's engine updates to one browser connection
type sseStream struct {
	mu      sync.Mutex
	ch      chan interface{}
	room    string
	dropped int
	sent    int
	mark    int // messages queued as of the previous ping
	closed  bool
	done    chan struct{}
	remove  func()
}

func newSSEStream(room string) *sseStream {
	return &sseStream{
		ch:   make(chan interface{}, sseBuffer),
		room: room,
		done: make(chan struct{}),
	}
}

func (st *sseStream) send(u engine.Update) {
	data, err := json.Marshal(u)
	if err != nil {
		logger.LogErr(err, "failed to encode SSE update")
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return
	}
	select {
	case st.ch <- string(data):
		st.sent++
		st.dropped = 0
	default:
		st.dropped++
		if st.dropped >= sseMaxDropped {
			st.shutdownLocked("buffer full")
		}
	}
}

// ping queues a heartbeat. It reports false once the stream is closed,
// either before the call or because the reader stalled.
func (st *sseStream) ping() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return false
	}

	if st.sent-len(st.ch) < st.mark {
		st.shutdownLocked("reader stalled")
		return false
	}

	select {
	case st.ch <- rweb.SSEvent{Type: "ping", Data: "{}"}:
		st.sent++
	default:
	}
	st.mark = st.sent
	return true
}

// heartbeat pings every interval until the stream closes
func (st *sseStream) heartbeat(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-st.done:
			return
		case <-ticker.C:
			if !st.ping() {
				return
			}
		}
	}
}

// shutdownLocked closes the stream; st.mu must be held
func (st *sseStream) shutdownLocked(reason string) {
	st.closed = true
	close(st.ch)
	close(st.done)
	// remove takes the engine lock; listeners run outside it
	if st.remove != nil {
		go st.remove()
	}
	logger.Debug("SSE stream dropped", "room_id", st.room, "reason", reason)
}

// eventsHandler streams calendar-updated, feed-status and selection
// messages of the caller's dashboard view
func eventsHandler(s *rweb.Server, hub *engine.Hub) rweb.Handler {
	return func(c rweb.Context) error {
		room := api.CurrentRoomID(c)
		if room == "" {
			c.SetStatus(http.StatusUnauthorized)
			return nil
		}

		ctx, cancel := requestContext()
		e, err := hub.View(ctx, room, api.CurrentViewID(c))
		cancel()
		if err != nil {
			logger.LogErr(err, "failed to open room for SSE", "room_id", room)
			c.SetStatus(http.StatusInternalServerError)
			return nil
		}

		st := newSSEStream(room)
		remove := e.AddListener(st.send)
		st.mu.Lock()
		st.remove = remove
		st.mu.Unlock()
		go st.heartbeat(sseHeartbeat)

		logger.Info("SSE connection established", "room_id", room)
		return s.SetupSSE(c, st.ch)
	}
}
