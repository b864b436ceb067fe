package engine

import (
	"context"
	"time"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"

	"schedulehub/calendar"
	"schedulehub/models"
)

// SetWindow loads [w.Start, w.End] for the bound room and rebuilds the index.
// On failure the previous index stays and a *ReadError is returned.
// If another load starts before this one returns, this result is dropped.
// That is not an error when the newer load is for the same window;
// otherwise ErrSuperseded is returned.
func (e *Engine) SetWindow(ctx context.Context, w calendar.Window) error {
	w, err := calendar.NewWindow(w.Start, w.End)
	if err != nil {
		return &ValidationError{Field: "window", Message: err.Error()}
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.roomID == "" {
		e.wanted = w
		e.mu.Unlock()
		return ErrUnbound
	}
	e.epoch++
	epoch := e.epoch
	room := e.roomID
	e.wanted = w
	e.replay = nil
	e.state = StateLoading
	e.mu.Unlock()

	events, qerr := e.store.QueryRange(ctx, room, w.Start, w.End)

	e.mu.Lock()
	if epoch != e.epoch || room != e.roomID {
		// A newer load of the same window carries this request out
		stillWanted := room == e.roomID && e.wanted == w
		e.mu.Unlock()
		logger.Debug("Discarding stale window result", "room_id", room, "start", w.Start, "end", w.End)
		if stillWanted {
			return nil
		}
		return ErrSuperseded
	}

	if qerr != nil {
		rerr := &ReadError{Window: w, Err: serr.Wrap(qerr, "window query failed")}
		e.lastErr = rerr
		// Stale but present beats empty; the index still reflects e.window
		e.state = StateSynced
		e.replay = nil
		e.mu.Unlock()
		logger.LogErr(qerr, "window query failed", "room_id", room, "start", w.Start, "end", w.End)
		e.emit(Update{Kind: UpdateCalendar})
		return rerr
	}

	kept := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if ev.RoomID != "" && ev.RoomID != room {
			continue
		}
		key, err := models.NormalizeDateKey(ev.Date)
		if err != nil || !w.Contains(key) {
			continue
		}
		ev.Date = key
		kept = append(kept, ev)
	}

	e.index.Rebuild(kept)
	e.window = w
	// Writes and notifications that landed while the query was in flight
	// may be newer than what it read
	for _, o := range e.replay {
		e.applyOpLocked(o)
	}
	e.replay = nil
	e.state = StateSynced
	e.lastErr = nil
	e.lastSync = e.now()
	n := e.index.Len()
	e.mu.Unlock()

	logger.Debug("Window loaded", "room_id", room, "start", w.Start, "end", w.End, "events", n)
	e.emit(Update{Kind: UpdateCalendar})
	return nil
}

// SetMonth loads the calendar month containing t
func (e *Engine) SetMonth(ctx context.Context, t time.Time) error {
	return e.SetWindow(ctx, calendar.MonthWindow(t))
}

// ShiftMonth moves the window n months from the current one
func (e *Engine) ShiftMonth(ctx context.Context, n int) error {
	e.mu.Lock()
	base := e.wanted
	e.mu.Unlock()

	month := e.now()
	if !base.IsZero() {
		month = base.Month()
	}
	return e.SetMonth(ctx, calendar.AddMonths(month, n))
}

// RefreshWindow reloads the last requested window. It is the reconciliation
// path after feed gaps and the retry path after a ReadError, and may run
// at any time, including while another load is in flight.
func (e *Engine) RefreshWindow(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.roomID == "" {
		e.mu.Unlock()
		return ErrUnbound
	}
	w := e.wanted
	if w.IsZero() {
		w = calendar.MonthWindow(e.now())
	}
	e.mu.Unlock()

	return e.SetWindow(ctx, w)
}

// Window returns the window the index currently reflects
func (e *Engine) Window() calendar.Window {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.window
}
