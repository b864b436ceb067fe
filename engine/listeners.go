package engine

import (
	"schedulehub/feed"
)

// UpdateKind tells listeners what changed
type UpdateKind string

const (
	UpdateCalendar   UpdateKind = "calendar-updated"
	UpdateFeedStatus UpdateKind = "feed-status"
	UpdateSelection  UpdateKind = "selection-changed"
	UpdatePending    UpdateKind = "pending-changed"
)

// Update is sent to listeners after the read model changes
type Update struct {
	Kind       UpdateKind  `json:"kind"`
	RoomID     string      `json:"room_id"`
	FeedStatus feed.Status `json:"feed_status,omitempty"`
}

// Listener is called outside the engine lock and must not block
type Listener func(Update)

// AddListener registers l and returns a function that removes it
func (e *Engine) AddListener(l Listener) (remove func()) {
	e.mu.Lock()
	id := e.nextListener
	e.nextListener++
	e.listeners[id] = l
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

// ListenerCount reports how many listeners are registered
func (e *Engine) ListenerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}

// Touch re-announces the calendar, e.g. when the date rolls over and
// "today" and the next event move without any data change
func (e *Engine) Touch() {
	e.emit(Update{Kind: UpdateCalendar})
}

func (e *Engine) emit(u Update) {
	e.mu.Lock()
	u.RoomID = e.roomID
	ls := make([]Listener, 0, len(e.listeners))
	for _, l := range e.listeners {
		ls = append(ls, l)
	}
	e.mu.Unlock()

	for _, l := range ls {
		l(u)
	}
}
