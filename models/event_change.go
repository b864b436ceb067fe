package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// ChangeKind names the row-level operation a change notification reports
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Valid reports whether k is one of the known kinds
func (k ChangeKind) Valid() bool {
	switch k {
	case ChangeCreated, ChangeUpdated, ChangeDeleted:
		return true
	}
	return false
}

// EventChange is a change notification for one events row.
// Event carries the row snapshot; it may be nil when a transport delivers
// only the identity, in which case consumers fall back to a re-query.
type EventChange struct {
	Kind    ChangeKind
	RoomID  string
	EventID string
	Event   *Event
	Seq     int64 // journal position, 0 when unknown
}

// ID returns the affected event id, preferring the snapshot
func (c EventChange) ID() string {
	if c.Event != nil && c.Event.ID != "" {
		return c.Event.ID
	}
	return c.EventID
}

// EventChangeRecord is one row of the change journal.
// The journal lets a reconnecting client ask what happened while it was away.
type EventChangeRecord struct {
	Seq       int64      `json:"seq"`
	GUID      string     `json:"guid"`
	RoomID    string     `json:"room_id"`
	EventID   string     `json:"event_id"`
	Operation ChangeKind `json:"operation"`
	CreatedAt time.Time  `json:"created_at"`
}

// recordChange appends to the journal and returns the new sequence number.
// Called with writeMu held. A journal failure does not undo the write.
func (s *Store) recordChange(ctx context.Context, kind ChangeKind, roomID, eventID string) int64 {
	guid := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO event_changes (guid, room_id, event_id, operation, created_at) VALUES (?, ?, ?, ?, ?)`,
		guid, roomID, eventID, string(kind), time.Now().UTC())
	if err != nil {
		logger.LogErr(err, "failed to record event change", "event_id", eventID, "kind", string(kind))
		return 0
	}

	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT seq FROM event_changes WHERE guid = ?`, guid).Scan(&seq); err != nil {
		logger.LogErr(err, "failed to read event change sequence", "guid", guid)
		return 0
	}
	return seq
}

// ChangesSince returns journal entries of roomID with seq > since, oldest first.
// A limit of 0 means no limit.
func (s *Store) ChangesSince(ctx context.Context, roomID string, since int64, limit int) ([]EventChangeRecord, error) {
	query := `SELECT seq, guid, room_id, event_id, operation, created_at
		FROM event_changes WHERE room_id = ? AND seq > ? ORDER BY seq ASC`
	args := []any{roomID, since}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, serr.Wrap(err, "failed to query event changes")
	}
	defer rows.Close()

	records := []EventChangeRecord{}
	for rows.Next() {
		var r EventChangeRecord
		var op string
		if err := rows.Scan(&r.Seq, &r.GUID, &r.RoomID, &r.EventID, &op, &r.CreatedAt); err != nil {
			return nil, serr.Wrap(err, "failed to scan event change")
		}
		r.Operation = ChangeKind(op)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, serr.Wrap(err, "failed iterating event changes")
	}
	return records, nil
}
