package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"schedulehub/feed"
	"schedulehub/models"
)

// fakeStore is an in-memory EventStore whose calls can be held open
type fakeStore struct {
	mu      sync.Mutex
	events  map[string]models.Event
	nextID  int
	writes  int
	queries int

	queryErr   error
	writeErr   error
	queryGates map[string]chan struct{} // window start -> release
	writeGates map[string]chan struct{} // title -> release

	queryStarted chan string // window start, sent after the snapshot is read
	writeDone    chan string // title, sent when a write returns
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:       map[string]models.Event{},
		queryGates:   map[string]chan struct{}{},
		writeGates:   map[string]chan struct{}{},
		queryStarted: make(chan string, 64),
		writeDone:    make(chan string, 64),
	}
}

func (s *fakeStore) seed(room, date, tm, title string) models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e := models.Event{ID: fmt.Sprintf("ev-%d", s.nextID), RoomID: room, Date: date, Title: title}
	if tm != "" {
		e.Time = sql.NullString{String: tm, Valid: true}
	}
	s.events[e.ID] = e
	return e
}

func (s *fakeStore) gateQuery(start string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.queryGates[start] = ch
	return ch
}

func (s *fakeStore) gateWrite(title string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.writeGates[title] = ch
	return ch
}

func (s *fakeStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *fakeStore) queryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries
}

func (s *fakeStore) QueryRange(ctx context.Context, roomID, start, end string) ([]models.Event, error) {
	s.mu.Lock()
	s.queries++
	err := s.queryErr
	var out []models.Event
	for _, e := range s.events {
		if e.RoomID == roomID && e.Date >= start && e.Date <= end {
			out = append(out, e)
		}
	}
	gate := s.queryGates[start]
	delete(s.queryGates, start)
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	s.queryStarted <- start

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *fakeStore) UpsertEvent(ctx context.Context, roomID string, in models.EventInput) (*models.Event, error) {
	s.mu.Lock()
	s.writes++
	gate := s.writeGates[in.Title]
	delete(s.writeGates, in.Title)
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	defer func() { s.writeDone <- in.Title }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return nil, s.writeErr
	}

	var e models.Event
	if in.ID == "" {
		s.nextID++
		e = models.Event{ID: fmt.Sprintf("ev-%d", s.nextID), RoomID: roomID, Date: in.Date}
	} else {
		existing, ok := s.events[in.ID]
		if !ok {
			return nil, errors.New("event not found")
		}
		e = existing
		if in.Date != "" && !in.TitleOnly {
			e.Date = in.Date
		}
	}
	e.Title = in.Title
	if !in.TitleOnly || in.ID == "" {
		e.Time = models.NormalizeOptional(in.Time)
		e.Notes = models.NormalizeOptional(in.Notes)
	}
	e.UpdatedAt = time.Now()
	s.events[e.ID] = e
	return &e, nil
}

func (s *fakeStore) DeleteEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.writeErr != nil {
		return s.writeErr
	}
	delete(s.events, id)
	return nil
}

// fakeFeed records subscribe/dispose order and hands handlers to the test
type fakeFeed struct {
	mu   sync.Mutex
	log  []string
	subs []*fakeSub
	err  error
}

type fakeSub struct {
	f        *fakeFeed
	room     string
	onChange feed.ChangeHandler
	onStatus feed.StatusHandler
	disposed bool
}

func (f *fakeFeed) Subscribe(_ context.Context, roomID string, onChange feed.ChangeHandler, onStatus feed.StatusHandler) (feed.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = append(f.log, "subscribe:"+roomID)
	if f.err != nil {
		return nil, f.err
	}
	s := &fakeSub{f: f, room: roomID, onChange: onChange, onStatus: onStatus}
	f.subs = append(f.subs, s)
	return s, nil
}

func (s *fakeSub) Dispose() {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if !s.disposed {
		s.disposed = true
		s.f.log = append(s.f.log, "dispose:"+s.room)
	}
}

func (f *fakeFeed) last() *fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subs) == 0 {
		return nil
	}
	return f.subs[len(f.subs)-1]
}

func (f *fakeFeed) entries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.log))
	copy(out, f.log)
	return out
}

// June 15 2024, a Saturday
func fixedClock() time.Time {
	return time.Date(2024, time.June, 15, 10, 0, 0, 0, time.Local)
}

// setupEngine returns an engine bound to room-1 over fakes
func setupEngine(t *testing.T) (*Engine, *fakeStore, *fakeFeed, func()) {
	t.Helper()

	store := newFakeStore()
	fd := &fakeFeed{}
	e := New(store, fd, WithClock(fixedClock))
	return e, store, fd, e.Close
}

func bind(t *testing.T, e *Engine, store *fakeStore, room string) {
	t.Helper()
	if err := e.Bind(context.Background(), room); err != nil {
		t.Fatalf("Bind(%q) failed: %v", room, err)
	}
	<-store.queryStarted
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func strPtr(s string) *string { return &s }

func snapshot(date, id, title string) models.EventChange {
	return models.EventChange{
		Kind:    models.ChangeUpdated,
		RoomID:  "room-1",
		EventID: id,
		Event:   &models.Event{ID: id, RoomID: "room-1", Date: date, Title: title},
	}
}
