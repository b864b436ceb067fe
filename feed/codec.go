package feed

import (
	"database/sql"
	"time"

	"github.com/rohanthewiz/serr"
	"github.com/vmihailenco/msgpack/v5"

	"schedulehub/models"
)

// wireVersion is bumped on incompatible changes to the payload layout
const wireVersion = 1

// wireChange is the msgpack payload carried on a Redis channel.
// Event is omitted by publishers that only know the row identity.
type wireChange struct {
	V       int        `msgpack:"v"`
	Kind    string     `msgpack:"kind"`
	RoomID  string     `msgpack:"room_id"`
	EventID string     `msgpack:"event_id"`
	Seq     int64      `msgpack:"seq,omitempty"`
	Event   *wireEvent `msgpack:"event,omitempty"`
}

type wireEvent struct {
	ID        string    `msgpack:"id"`
	RoomID    string    `msgpack:"room_id"`
	Date      string    `msgpack:"date"`
	Time      *string   `msgpack:"time"`
	Title     string    `msgpack:"title"`
	Notes     *string   `msgpack:"notes"`
	CreatedAt time.Time `msgpack:"created_at"`
	UpdatedAt time.Time `msgpack:"updated_at"`
}

// EncodeChange serializes a change for the wire
func EncodeChange(c models.EventChange) ([]byte, error) {
	w := wireChange{
		V:       wireVersion,
		Kind:    string(c.Kind),
		RoomID:  c.RoomID,
		EventID: c.ID(),
		Seq:     c.Seq,
	}
	if c.Event != nil {
		w.Event = &wireEvent{
			ID:        c.Event.ID,
			RoomID:    c.Event.RoomID,
			Date:      c.Event.Date,
			Time:      nullToPtr(c.Event.Time),
			Title:     c.Event.Title,
			Notes:     nullToPtr(c.Event.Notes),
			CreatedAt: c.Event.CreatedAt,
			UpdatedAt: c.Event.UpdatedAt,
		}
	}

	data, err := msgpack.Marshal(&w)
	if err != nil {
		return nil, serr.Wrap(err, "failed to msgpack encode change")
	}
	return data, nil
}

// DecodeChange parses a wire payload, rejecting unknown kinds and
// payloads without a room or row identity
func DecodeChange(data []byte) (models.EventChange, error) {
	var w wireChange
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return models.EventChange{}, serr.Wrap(err, "failed to msgpack decode change")
	}
	if w.V > wireVersion {
		return models.EventChange{}, serr.New("unsupported change payload version")
	}

	c := models.EventChange{
		Kind:    models.ChangeKind(w.Kind),
		RoomID:  w.RoomID,
		EventID: w.EventID,
		Seq:     w.Seq,
	}
	if !c.Kind.Valid() {
		return models.EventChange{}, serr.New("unknown change kind: " + w.Kind)
	}
	if c.RoomID == "" {
		return models.EventChange{}, serr.New("change has no room id")
	}

	if w.Event != nil {
		c.Event = &models.Event{
			ID:        w.Event.ID,
			RoomID:    w.Event.RoomID,
			Date:      w.Event.Date,
			Time:      ptrToNull(w.Event.Time),
			Title:     w.Event.Title,
			Notes:     ptrToNull(w.Event.Notes),
			CreatedAt: w.Event.CreatedAt,
			UpdatedAt: w.Event.UpdatedAt,
		}
		if c.EventID == "" {
			c.EventID = c.Event.ID
		}
	}
	if c.ID() == "" {
		return models.EventChange{}, serr.New("change has no event id")
	}
	return c, nil
}

func nullToPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func ptrToNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
