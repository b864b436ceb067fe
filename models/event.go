package models

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rohanthewiz/serr"
)

// DateKeyLayout is the canonical calendar-day form used as a bucket key
const DateKeyLayout = "2006-01-02"

// Event is a single scheduled item on one calendar day of one room.
// Time is free text and only used for same-day ordering.
type Event struct {
	ID        string         `json:"id"`
	RoomID    string         `json:"room_id"`
	Date      string         `json:"date"` // YYYY-MM-DD
	Time      sql.NullString `json:"time"`
	Title     string         `json:"title"`
	Notes     sql.NullString `json:"notes"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// EventInput carries the writable fields of an event.
// An empty ID creates a new event; otherwise the event with that ID is updated.
// An empty Date on update keeps the stored date.
type EventInput struct {
	ID    string  `json:"id,omitempty"`
	Date  string  `json:"date"`
	Time  *string `json:"time,omitempty"`
	Title string  `json:"title"`
	Notes *string `json:"notes,omitempty"`
	// TitleOnly rewrites just the title of an existing event; its date,
	// time and notes keep their stored values
	TitleOnly bool `json:"-"`
}

// EventOutput is the JSON-friendly form of an Event
type EventOutput struct {
	ID        string  `json:"id"`
	RoomID    string  `json:"room_id"`
	Date      string  `json:"date"`
	Time      *string `json:"time"`
	Title     string  `json:"title"`
	Notes     *string `json:"notes"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// ToOutput converts an Event for API responses
func (e Event) ToOutput() EventOutput {
	return EventOutput{
		ID:        e.ID,
		RoomID:    e.RoomID,
		Date:      e.Date,
		Time:      nullStringToPtr(e.Time),
		Title:     e.Title,
		Notes:     nullStringToPtr(e.Notes),
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// SortTime is the value used for same-day ordering; null sorts as empty
func (e Event) SortTime() string {
	if !e.Time.Valid {
		return ""
	}
	return e.Time.String
}

// NormalizeDateKey returns the YYYY-MM-DD form of s.
// Full timestamps are accepted and truncated to their calendar day.
func NormalizeDateKey(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateKeyLayout) {
		s = s[:len(DateKeyLayout)]
	}
	t, err := time.Parse(DateKeyLayout, s)
	if err != nil {
		return "", serr.Wrap(err, "invalid date, expected YYYY-MM-DD")
	}
	return t.Format(DateKeyLayout), nil
}

// NormalizeOptional trims s and maps empty to null
func NormalizeOptional(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: trimmed, Valid: true}
}

func nullStringToPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

const eventColumns = `id, room_id, event_date, event_time, title, notes, created_at, updated_at`

func scanEvent(sc interface{ Scan(...any) error }) (Event, error) {
	var e Event
	err := sc.Scan(&e.ID, &e.RoomID, &e.Date, &e.Time, &e.Title, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// QueryRange returns all events of roomID whose date lies in [start, end] inclusive
func (s *Store) QueryRange(ctx context.Context, roomID, start, end string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE room_id = ? AND event_date >= ? AND event_date <= ?
		 ORDER BY event_date, id`,
		roomID, start, end)
	if err != nil {
		return nil, serr.Wrap(err, "failed to query events")
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, serr.Wrap(err, "failed to scan event")
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, serr.Wrap(err, "failed iterating events")
	}
	return events, nil
}

// GetEvent returns the event with id, or nil if there is none
func (s *Store) GetEvent(ctx context.Context, id string) (*Event, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, serr.Wrap(err, "failed to get event")
	}
	return &e, nil
}

// UpsertEvent creates (no ID) or updates (ID given) an event in roomID.
// Title is trimmed and required; time and notes are trimmed with empty mapped to null.
func (s *Store) UpsertEvent(ctx context.Context, roomID string, in EventInput) (*Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, serr.New("title is required")
	}
	if roomID == "" {
		return nil, serr.New("room id is required")
	}

	if in.ID == "" {
		in.TitleOnly = false
	}

	var date string
	if !in.TitleOnly && (in.ID == "" || strings.TrimSpace(in.Date) != "") {
		d, err := NormalizeDateKey(in.Date)
		if err != nil {
			return nil, err
		}
		date = d
	}

	evTime := NormalizeOptional(in.Time)
	notes := NormalizeOptional(in.Notes)
	now := time.Now().UTC()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	kind := ChangeUpdated
	if in.ID == "" {
		kind = ChangeCreated
		id := uuid.New().String()
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, roomID, date, evTime, title, notes, now, now)
		if err != nil {
			return nil, serr.Wrap(err, "failed to insert event")
		}
		in.ID = id
	} else {
		var res sql.Result
		var err error
		switch {
		case in.TitleOnly:
			res, err = s.db.ExecContext(ctx,
				`UPDATE events SET title = ?, updated_at = ? WHERE id = ? AND room_id = ?`,
				title, now, in.ID, roomID)
		case date == "":
			res, err = s.db.ExecContext(ctx,
				`UPDATE events SET event_time = ?, title = ?, notes = ?, updated_at = ?
				 WHERE id = ? AND room_id = ?`,
				evTime, title, notes, now, in.ID, roomID)
		default:
			res, err = s.db.ExecContext(ctx,
				`UPDATE events SET event_date = ?, event_time = ?, title = ?, notes = ?, updated_at = ?
				 WHERE id = ? AND room_id = ?`,
				date, evTime, title, notes, now, in.ID, roomID)
		}
		if err != nil {
			return nil, serr.Wrap(err, "failed to update event")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil, serr.New("event not found: " + in.ID)
		}
	}

	stored, err := s.GetEvent(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, serr.New("event vanished after write: " + in.ID)
	}

	seq := s.recordChange(ctx, kind, stored.RoomID, stored.ID)
	s.publish(ctx, EventChange{Kind: kind, RoomID: stored.RoomID, EventID: stored.ID, Event: stored, Seq: seq})
	return stored, nil
}

// DeleteEvent removes the event with id. Deleting an absent id succeeds.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, err := s.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
		return serr.Wrap(err, "failed to delete event")
	}

	seq := s.recordChange(ctx, ChangeDeleted, existing.RoomID, existing.ID)
	s.publish(ctx, EventChange{Kind: ChangeDeleted, RoomID: existing.RoomID, EventID: existing.ID, Event: existing, Seq: seq})
	return nil
}
