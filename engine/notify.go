package engine

import (
	"github.com/rohanthewiz/logger"

	"schedulehub/feed"
	"schedulehub/models"
)

// OnNotification merges one change-feed notification into the index.
// Changes for other rooms and dates outside the window are dropped.
// Created and updated rows are upserted (last write wins, no versions);
// deleted rows are removed by id. A created or updated notification
// without a row snapshot triggers a background refresh instead.
func (e *Engine) OnNotification(change models.EventChange) {
	e.mu.Lock()
	needRefresh, changed := e.applyNotificationLocked(change)
	e.mu.Unlock()

	if changed {
		e.emit(Update{Kind: UpdateCalendar})
	}
	if needRefresh {
		e.refreshAsync("notification without snapshot")
	}
}

func (e *Engine) applyNotificationLocked(change models.EventChange) (needRefresh, changed bool) {
	if e.closed || e.roomID == "" || change.RoomID != e.roomID {
		return false, false
	}

	switch change.Kind {
	case models.ChangeCreated, models.ChangeUpdated:
		if change.Event == nil {
			return true, false
		}
		ev := *change.Event
		key, err := models.NormalizeDateKey(ev.Date)
		if err != nil {
			logger.LogErr(err, "dropping notification with bad date", "event_id", ev.ID)
			return false, false
		}
		ev.Date = key
		if ev.RoomID == "" {
			ev.RoomID = change.RoomID
		}
		if !e.window.Contains(key) && !(e.state == StateLoading && e.wanted.Contains(key)) {
			// Only an already indexed event that moved out of the window matters
			if _, ok := e.index.Get(ev.ID); !ok {
				return false, false
			}
		}
		e.recordLocked(op{upsert: &ev})
		return false, true

	case models.ChangeDeleted:
		id := change.ID()
		if id == "" {
			return false, false
		}
		e.recordLocked(op{remove: id})
		return false, true
	}
	return false, false
}

// changeHandler binds feed callbacks to one subscription generation so a
// disposed subscription can never touch a newer binding
func (e *Engine) changeHandler(gen uint64) feed.ChangeHandler {
	return func(change models.EventChange) {
		e.mu.Lock()
		if gen != e.subGen {
			e.mu.Unlock()
			return
		}
		needRefresh, changed := e.applyNotificationLocked(change)
		e.mu.Unlock()

		if changed {
			e.emit(Update{Kind: UpdateCalendar})
		}
		if needRefresh {
			e.refreshAsync("notification without snapshot")
		}
	}
}

// statusHandler tracks feed health. Coming back to open after an error or
// close means notifications may have been missed, so the window is reloaded.
func (e *Engine) statusHandler(gen uint64) feed.StatusHandler {
	return func(status feed.Status, err error) {
		e.mu.Lock()
		if gen != e.subGen {
			e.mu.Unlock()
			return
		}
		prev := e.feedStatus
		e.feedStatus = status
		switch status {
		case feed.StatusError:
			e.feedErr = &FeedError{Err: err}
		case feed.StatusOpen:
			e.feedErr = nil
		}
		room := e.roomID
		e.mu.Unlock()

		if status == feed.StatusError {
			logger.LogErr(e.FeedError(), "change feed degraded, live updates paused", "room_id", room)
		} else {
			logger.Debug("Change feed status", "room_id", room, "status", string(status))
		}
		e.emit(Update{Kind: UpdateFeedStatus, FeedStatus: status})

		if status == feed.StatusOpen && (prev == feed.StatusError || prev == feed.StatusClosed) {
			e.refreshAsync("feed reconnected")
		}
	}
}

// FeedStatus returns the change feed's connection state
func (e *Engine) FeedStatus() feed.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.feedStatus
}

// FeedError returns the last feed failure while the feed is degraded
func (e *Engine) FeedError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.feedErr
}
