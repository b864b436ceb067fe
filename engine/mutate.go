package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"

	"schedulehub/models"
)

// IntentKind names a user action on events
type IntentKind string

const (
	IntentCreate IntentKind = "create"
	IntentUpdate IntentKind = "update"
	IntentDelete IntentKind = "delete"
	// IntentQuickEdit is the single-field edit-in-place surface: clearing
	// the text deletes the event instead of saving an empty one
	IntentQuickEdit IntentKind = "quick_edit"
)

// Intent is a mutation requested by the presentation layer
type Intent struct {
	Kind    IntentKind
	EventID string  // update, delete, and quick edit of an existing event
	Date    string  // create; optional on update
	Title   string  // create, update, quick edit text
	Time    *string // blank is stored as null
	Notes   *string // blank is stored as null
}

// PendingMutation is a write that has been issued but not completed
type PendingMutation struct {
	Token    string     `json:"token"`
	Kind     IntentKind `json:"kind"`
	RoomID   string     `json:"room_id"`
	EventID  string     `json:"event_id,omitempty"`
	Date     string     `json:"date,omitempty"`
	IssuedAt time.Time  `json:"issued_at"`
}

// resolve validates in and turns a quick edit into a concrete kind.
// It never calls the store.
func resolve(in Intent) (Intent, error) {
	if in.Kind == IntentQuickEdit {
		if strings.TrimSpace(in.Title) == "" {
			if in.EventID == "" {
				return in, &ValidationError{Field: "title", Message: "nothing to delete"}
			}
			in.Kind = IntentDelete
		} else if in.EventID == "" {
			in.Kind = IntentCreate
		} else {
			in.Kind = IntentUpdate
		}
	}

	switch in.Kind {
	case IntentCreate, IntentUpdate:
		in.Title = strings.TrimSpace(in.Title)
		if in.Title == "" {
			return in, &ValidationError{Field: "title", Message: "title is required"}
		}
		if in.Kind == IntentUpdate && in.EventID == "" {
			return in, &ValidationError{Field: "id", Message: "event id is required for update"}
		}
		if in.Kind == IntentCreate || strings.TrimSpace(in.Date) != "" {
			key, err := models.NormalizeDateKey(in.Date)
			if err != nil {
				return in, &ValidationError{Field: "date", Message: "expected YYYY-MM-DD"}
			}
			in.Date = key
		}
		in.Time = normalizePtr(in.Time)
		in.Notes = normalizePtr(in.Notes)
	case IntentDelete:
		if in.EventID == "" {
			return in, &ValidationError{Field: "id", Message: "event id is required for delete"}
		}
	default:
		return in, &ValidationError{Field: "kind", Message: "unknown intent " + string(in.Kind)}
	}
	return in, nil
}

func normalizePtr(s *string) *string {
	ns := models.NormalizeOptional(s)
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// Mutate validates intent, writes it to the store and, on success, applies
// the stored result to the index. Invalid intents fail with a
// *ValidationError before any store call; store failures return a
// *WriteError and leave the index untouched. Completions apply in the order
// the writes were issued. The returned event is nil for deletes.
func (e *Engine) Mutate(ctx context.Context, intent Intent) (*models.Event, error) {
	in, err := resolve(intent)
	if err != nil {
		return nil, err
	}
	// A quick edit of an existing event only retitles it
	titleOnly := intent.Kind == IntentQuickEdit && in.Kind == IntentUpdate
	if titleOnly {
		in.Date, in.Time, in.Notes = "", nil, nil
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	if e.roomID == "" {
		e.mu.Unlock()
		return nil, ErrUnbound
	}
	room := e.roomID
	e.issued++
	ticket := e.issued
	token := uuid.New().String()
	e.pending[token] = PendingMutation{
		Token:    token,
		Kind:     in.Kind,
		RoomID:   room,
		EventID:  in.EventID,
		Date:     in.Date,
		IssuedAt: e.now(),
	}
	e.mu.Unlock()

	var stored *models.Event
	var werr error
	switch in.Kind {
	case IntentDelete:
		werr = e.store.DeleteEvent(ctx, in.EventID)
	default:
		stored, werr = e.store.UpsertEvent(ctx, room, models.EventInput{
			ID:        in.EventID,
			Date:      in.Date,
			Time:      in.Time,
			Title:     in.Title,
			Notes:     in.Notes,
			TitleOnly: titleOnly,
		})
		if werr == nil && stored == nil {
			werr = serr.New("store returned no event")
		}
	}

	e.mu.Lock()
	for e.applied != ticket-1 {
		e.cond.Wait()
	}
	delete(e.pending, token)
	applied := false
	if werr == nil && room == e.roomID && !e.closed {
		if in.Kind == IntentDelete {
			e.recordLocked(op{remove: in.EventID})
		} else {
			snap := *stored
			e.recordLocked(op{upsert: &snap})
		}
		applied = true
	}
	e.applied = ticket
	e.cond.Broadcast()
	e.mu.Unlock()

	if werr != nil {
		logger.LogErr(werr, "event write failed", "room_id", room, "kind", string(in.Kind), "event_id", in.EventID)
		e.emit(Update{Kind: UpdatePending})
		return nil, &WriteError{Op: in.Kind, Err: werr}
	}
	if applied {
		e.emit(Update{Kind: UpdateCalendar})
	}
	return stored, nil
}

// Pending lists the bound room's writes that have not completed yet, oldest first
func (e *Engine) Pending() []PendingMutation {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]PendingMutation, 0, len(e.pending))
	for _, p := range e.pending {
		if p.RoomID == e.roomID {
			out = append(out, p)
		}
	}
	sortPending(out)
	return out
}
