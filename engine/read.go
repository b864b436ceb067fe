package engine

import (
	"sort"
	"time"

	"schedulehub/calendar"
	"schedulehub/feed"
	"schedulehub/models"
)

// NextEvent is the first upcoming event from today
type NextEvent struct {
	Date  string       `json:"date"`
	Event models.Event `json:"event"`
}

// Status summarizes the engine for status displays
type Status struct {
	RoomID     string          `json:"room_id"`
	State      State           `json:"state"`
	Window     calendar.Window `json:"window"`
	FeedStatus feed.Status     `json:"feed_status"`
	FeedError  string          `json:"feed_error,omitempty"`
	LastError  string          `json:"last_error,omitempty"`
	LastSync   *time.Time      `json:"last_sync"`
	Pending    int             `json:"pending"`
	Events     int             `json:"events"`
}

// Snapshot is a consistent view of everything the dashboard renders
type Snapshot struct {
	Status
	Month          time.Time       `json:"month"`
	MonthLabel     string          `json:"month_label"`
	Today          string          `json:"today"`
	Selected       string          `json:"selected"`
	Days           []calendar.Cell `json:"days"`
	SelectedEvents []models.Event  `json:"selected_events"`
	Next           *NextEvent      `json:"next_event"`
}

// VisibleDays returns the 42-cell Sunday-first grid of the window's month
func (e *Engine) VisibleDays() []calendar.Cell {
	e.mu.Lock()
	defer e.mu.Unlock()
	return calendar.Grid(e.monthLocked(), e.index)
}

// DayEvents returns the events of dateKey ordered by time
func (e *Engine) DayEvents(dateKey string) []models.Event {
	key, err := models.NormalizeDateKey(dateKey)
	if err != nil {
		return []models.Event{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return calendar.SortByTime(e.index.DayEvents(key))
}

// Events returns every indexed event ordered by date and time
func (e *Engine) Events() []models.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index.All()
}

// NextEvent returns the earliest event on or after today, if the window has one
func (e *Engine) NextEvent() (NextEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nextLocked()
}

// SetSelectedDate changes the day whose events are listed
func (e *Engine) SetSelectedDate(dateKey string) error {
	key, err := models.NormalizeDateKey(dateKey)
	if err != nil {
		return &ValidationError{Field: "date", Message: "expected YYYY-MM-DD"}
	}
	e.mu.Lock()
	e.selected = key
	e.mu.Unlock()
	e.emit(Update{Kind: UpdateSelection})
	return nil
}

// SelectedDate returns the selected day key
func (e *Engine) SelectedDate() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// Status reports the engine state
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusLocked()
}

// Snapshot captures the whole read model under one lock
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	month := e.monthLocked()
	snap := Snapshot{
		Status:         e.statusLocked(),
		Month:          month,
		MonthLabel:     calendar.MonthLabel(month),
		Today:          calendar.Key(e.now()),
		Selected:       e.selected,
		Days:           calendar.Grid(month, e.index),
		SelectedEvents: calendar.SortByTime(e.index.DayEvents(e.selected)),
	}
	if next, ok := e.nextLocked(); ok {
		snap.Next = &next
	}
	return snap
}

func (e *Engine) statusLocked() Status {
	st := Status{
		RoomID:     e.roomID,
		State:      e.state,
		Window:     e.window,
		FeedStatus: e.feedStatus,
		Events:     e.index.Len(),
	}
	if e.feedErr != nil {
		st.FeedError = e.feedErr.Error()
	}
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
	}
	if !e.lastSync.IsZero() {
		t := e.lastSync
		st.LastSync = &t
	}
	for _, p := range e.pending {
		if p.RoomID == e.roomID {
			st.Pending++
		}
	}
	return st
}

func (e *Engine) nextLocked() (NextEvent, bool) {
	date, ev, ok := e.index.NextUpcoming(calendar.Key(e.now()))
	if !ok {
		return NextEvent{}, false
	}
	return NextEvent{Date: date, Event: ev}, true
}

// monthLocked is the month to lay out: the loaded window, else the
// requested one, else the current month
func (e *Engine) monthLocked() time.Time {
	switch {
	case !e.window.IsZero():
		return e.window.Month()
	case !e.wanted.IsZero():
		return e.wanted.Month()
	default:
		return calendar.FirstOfMonth(e.now())
	}
}

func sortPending(p []PendingMutation) {
	sort.Slice(p, func(i, j int) bool {
		if p[i].IssuedAt.Equal(p[j].IssuedAt) {
			return p[i].Token < p[j].Token
		}
		return p[i].IssuedAt.Before(p[j].IssuedAt)
	})
}
