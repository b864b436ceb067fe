package api

import (
	"encoding/json"
	"net/http"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"github.com/rohanthewiz/serr"

	"schedulehub/engine"
)

// eventRequest is the body of create and update calls
type eventRequest struct {
	Date  string  `json:"date"`
	Time  *string `json:"time"`
	Title string  `json:"title"`
	Notes *string `json:"notes"`
}

// CreateEvent handles POST /api/v1/events
//
// Request body:
//
//	{ "date": "2024-06-20", "time": "9:00 AM", "title": "Dentist", "notes": "bring card" }
//
// Success (201) returns the stored event with its server-assigned id.
func (h *Handlers) CreateEvent(ctx rweb.Context) error {
	var req eventRequest
	if err := json.Unmarshal(ctx.Request().Body(), &req); err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid JSON body")
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	e, err := h.roomEngine(ctx, reqCtx)
	if e == nil {
		return err
	}

	ev, err := e.Mutate(reqCtx, engine.Intent{
		Kind:  engine.IntentCreate,
		Date:  req.Date,
		Time:  req.Time,
		Title: req.Title,
		Notes: req.Notes,
	})
	if err != nil {
		return writeEngineError(ctx, err, "failed to create event")
	}

	logger.Info("Event created", "room_id", ev.RoomID, "id", ev.ID, "date", ev.Date)
	return writeSuccess(ctx, http.StatusCreated, ev.ToOutput())
}

// UpdateEvent handles PUT /api/v1/events/:id
// A blank date keeps the event on its current day.
func (h *Handlers) UpdateEvent(ctx rweb.Context) error {
	id := ctx.Request().Param("id")

	var req eventRequest
	if err := json.Unmarshal(ctx.Request().Body(), &req); err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid JSON body")
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	e, err := h.roomEngine(ctx, reqCtx)
	if e == nil {
		return err
	}
	if ok, err := h.ownEvent(ctx, id); !ok {
		return err
	}

	ev, err := e.Mutate(reqCtx, engine.Intent{
		Kind:    engine.IntentUpdate,
		EventID: id,
		Date:    req.Date,
		Time:    req.Time,
		Title:   req.Title,
		Notes:   req.Notes,
	})
	if err != nil {
		return writeEngineError(ctx, err, "failed to update event")
	}
	return writeSuccess(ctx, http.StatusOK, ev.ToOutput())
}

// DeleteEvent handles DELETE /api/v1/events/:id
func (h *Handlers) DeleteEvent(ctx rweb.Context) error {
	id := ctx.Request().Param("id")

	reqCtx, cancel := requestContext()
	defer cancel()

	e, err := h.roomEngine(ctx, reqCtx)
	if e == nil {
		return err
	}
	if ok, err := h.ownEvent(ctx, id); !ok {
		return err
	}

	if _, err := e.Mutate(reqCtx, engine.Intent{Kind: engine.IntentDelete, EventID: id}); err != nil {
		return writeEngineError(ctx, err, "failed to delete event")
	}

	logger.Info("Event deleted", "room_id", CurrentRoomID(ctx), "id", id)
	return writeSuccess(ctx, http.StatusOK, map[string]string{"id": id})
}

// QuickEdit handles POST /api/v1/days/:date/quick-edit
// The single-text-field surface of the day panel: text with no id creates,
// text with an id retitles, and empty text with an id deletes.
//
// Request body:
//
//	{ "id": "optional-event-id", "text": "Soccer 5pm" }
func (h *Handlers) QuickEdit(ctx rweb.Context) error {
	date := ctx.Request().Param("date")

	var req struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(ctx.Request().Body(), &req); err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid JSON body")
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	e, err := h.roomEngine(ctx, reqCtx)
	if e == nil {
		return err
	}
	if req.ID != "" {
		if ok, err := h.ownEvent(ctx, req.ID); !ok {
			return err
		}
	}

	ev, err := e.Mutate(reqCtx, engine.Intent{
		Kind:    engine.IntentQuickEdit,
		EventID: req.ID,
		Date:    date,
		Title:   req.Text,
	})
	if err != nil {
		return writeEngineError(ctx, err, "failed to save quick edit")
	}
	if ev == nil {
		return writeSuccess(ctx, http.StatusOK, map[string]string{"id": req.ID, "deleted": "true"})
	}
	return writeSuccess(ctx, http.StatusOK, ev.ToOutput())
}

// ownEvent checks that id exists and belongs to the caller's room.
// On false the response has been written and its error is returned.
func (h *Handlers) ownEvent(ctx rweb.Context, id string) (bool, error) {
	reqCtx, cancel := requestContext()
	defer cancel()

	ev, err := h.store.GetEvent(reqCtx, id)
	if err != nil {
		logger.LogErr(serr.Wrap(err, "failed to get event"), "database error")
		return false, writeError(ctx, http.StatusInternalServerError, "database error")
	}
	if ev == nil {
		return false, writeError(ctx, http.StatusNotFound, "event not found")
	}
	if ev.RoomID != CurrentRoomID(ctx) {
		return false, writeError(ctx, http.StatusForbidden, "event belongs to another household")
	}
	return true, nil
}

// GetEvent handles GET /api/v1/events/:id
func (h *Handlers) GetEvent(ctx rweb.Context) error {
	id := ctx.Request().Param("id")
	if CurrentRoomID(ctx) == "" {
		return writeError(ctx, http.StatusUnauthorized, "room token required")
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	ev, err := h.store.GetEvent(reqCtx, id)
	if err != nil {
		logger.LogErr(serr.Wrap(err, "failed to get event"), "database error")
		return writeError(ctx, http.StatusInternalServerError, "database error")
	}
	if ev == nil || ev.RoomID != CurrentRoomID(ctx) {
		return writeError(ctx, http.StatusNotFound, "event not found")
	}
	return writeSuccess(ctx, http.StatusOK, ev.ToOutput())
}

