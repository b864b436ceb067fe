// Package engine keeps a room's visible month of events in sync with the
// event store and its change feed.
//
// All state lives behind one mutex. Store round trips run outside it and
// their completions reacquire it, so nothing interleaves a read-modify-write
// on the index. Window loads carry an epoch and are dropped if a newer load
// started meanwhile. Mutation completions apply in the order the writes
// were issued.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rohanthewiz/logger"

	"schedulehub/calendar"
	"schedulehub/feed"
	"schedulehub/models"
)

// EventStore is what the engine needs from persistence
type EventStore interface {
	QueryRange(ctx context.Context, roomID, start, end string) ([]models.Event, error)
	UpsertEvent(ctx context.Context, roomID string, in models.EventInput) (*models.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// ChangeFeed is what the engine needs from the notification transport
type ChangeFeed interface {
	Subscribe(ctx context.Context, roomID string, onChange feed.ChangeHandler, onStatus feed.StatusHandler) (feed.Subscription, error)
}

// State of the engine's room binding
type State string

const (
	StateUnbound State = "unbound"
	StateLoading State = "loading"
	StateSynced  State = "synced"
)

// Engine is the sync core for one room at a time
type Engine struct {
	store EventStore
	feed  ChangeFeed
	now   func() time.Time

	mu   sync.Mutex
	cond *sync.Cond // broadcast when applied advances

	roomID string
	state  State
	index  *calendar.Index
	window calendar.Window // what index holds
	wanted calendar.Window // last requested; RefreshWindow reloads this
	epoch  uint64
	replay []op // applied while the current load is in flight

	subGen     uint64
	sub        feed.Subscription
	feedStatus feed.Status
	feedErr    error

	lastErr  error
	lastSync time.Time
	selected string

	pending map[string]PendingMutation
	issued  uint64
	applied uint64

	listeners    map[int]Listener
	nextListener int

	closed   bool
	bgCtx    context.Context
	bgCancel context.CancelFunc
	bg       sync.WaitGroup
}

// Option configures an Engine
type Option func(*Engine)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an unbound engine. fd may be nil for query-only operation.
func New(store EventStore, fd ChangeFeed, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		feed:       fd,
		now:        time.Now,
		state:      StateUnbound,
		index:      calendar.NewIndex(),
		feedStatus: feed.StatusClosed,
		pending:    map[string]PendingMutation{},
		listeners:  map[int]Listener{},
	}
	e.cond = sync.NewCond(&e.mu)
	e.bgCtx, e.bgCancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(e)
	}
	e.selected = calendar.Key(e.now())
	return e
}

// Bind switches the engine to roomID, or unbinds it when roomID is empty.
// The previous subscription is disposed before the new one is opened, and
// loads or writes still in flight for the previous room are discarded.
// The current month is loaded if no window was set yet.
func (e *Engine) Bind(ctx context.Context, roomID string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}

	old := e.sub
	e.sub = nil
	e.subGen++
	gen := e.subGen
	e.epoch++
	e.replay = nil
	e.index = calendar.NewIndex()
	e.roomID = roomID
	e.lastErr = nil
	e.lastSync = time.Time{}

	if roomID == "" {
		e.state = StateUnbound
		e.feedStatus = feed.StatusClosed
		e.feedErr = nil
		e.mu.Unlock()
		if old != nil {
			old.Dispose()
		}
		logger.Info("Engine unbound")
		e.emit(Update{Kind: UpdateCalendar})
		return nil
	}

	e.state = StateLoading
	e.feedStatus = feed.StatusConnecting
	e.feedErr = nil
	w := e.wanted
	if w.IsZero() {
		w = calendar.MonthWindow(e.now())
	}
	e.mu.Unlock()

	if old != nil {
		old.Dispose()
	}
	logger.Info("Engine binding room", "room_id", roomID)

	if e.feed != nil {
		sub, err := e.feed.Subscribe(ctx, roomID, e.changeHandler(gen), e.statusHandler(gen))

		e.mu.Lock()
		if gen != e.subGen {
			e.mu.Unlock()
			if sub != nil {
				sub.Dispose()
			}
			return ErrSuperseded
		}
		if err != nil {
			e.feedStatus = feed.StatusError
			e.feedErr = &FeedError{Err: err}
			logger.LogErr(err, "feed subscription failed, continuing without live updates", "room_id", roomID)
		} else {
			e.sub = sub
		}
		e.mu.Unlock()
	} else {
		e.mu.Lock()
		e.feedStatus = feed.StatusClosed
		e.mu.Unlock()
	}

	return e.SetWindow(ctx, w)
}

// RoomID returns the bound room, empty when unbound
func (e *Engine) RoomID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.roomID
}

// Close unbinds, disposes the subscription and waits for background refreshes
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	old := e.sub
	e.sub = nil
	e.subGen++
	e.epoch++
	e.state = StateUnbound
	e.feedStatus = feed.StatusClosed
	e.mu.Unlock()

	if old != nil {
		old.Dispose()
	}
	e.bgCancel()
	e.bg.Wait()
}

// refreshAsync reloads the wanted window on a background goroutine
func (e *Engine) refreshAsync(reason string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.bg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.bg.Done()
		ctx, cancel := context.WithTimeout(e.bgCtx, 30*time.Second)
		defer cancel()

		logger.Debug("Refreshing window", "reason", reason)
		if err := e.RefreshWindow(ctx); err != nil && !isQuiet(err) {
			logger.LogErr(err, "background refresh failed", "reason", reason)
		}
	}()
}

func isQuiet(err error) bool {
	return err == ErrSuperseded || err == ErrUnbound || err == ErrClosed
}
