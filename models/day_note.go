package models

import (
	"context"
	"strings"
	"time"

	"github.com/rohanthewiz/serr"
)

// Day notes are the coarse "one line of text per day" representation that
// predates multi-event days. They live beside events and are edited in place:
// clearing the text removes the row.

// LoadRoomDayNotes returns every day note of roomID keyed by YYYY-MM-DD
func (s *Store) LoadRoomDayNotes(ctx context.Context, roomID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date_key, text FROM day_notes WHERE room_id = ?`, roomID)
	if err != nil {
		return nil, serr.Wrap(err, "failed to query day notes")
	}
	defer rows.Close()

	notes := map[string]string{}
	for rows.Next() {
		var key, text string
		if err := rows.Scan(&key, &text); err != nil {
			return nil, serr.Wrap(err, "failed to scan day note")
		}
		notes[key] = text
	}
	if err := rows.Err(); err != nil {
		return nil, serr.Wrap(err, "failed iterating day notes")
	}
	return notes, nil
}

// UpsertDayNote writes the trimmed text for dateKey, or deletes the row
// when the trimmed text is empty
func (s *Store) UpsertDayNote(ctx context.Context, roomID, dateKey, text string) error {
	key, err := NormalizeDateKey(dateKey)
	if err != nil {
		return err
	}
	clean := strings.TrimSpace(text)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if clean == "" {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM day_notes WHERE room_id = ? AND date_key = ?`, roomID, key)
		if err != nil {
			return serr.Wrap(err, "failed to delete day note")
		}
		return nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO day_notes (room_id, date_key, text, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (room_id, date_key) DO UPDATE SET text = excluded.text, updated_at = excluded.updated_at`,
		roomID, key, clean, time.Now().UTC())
	if err != nil {
		return serr.Wrap(err, "failed to upsert day note")
	}
	return nil
}
