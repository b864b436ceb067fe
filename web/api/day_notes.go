package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"github.com/rohanthewiz/serr"

	"schedulehub/models"
)

// ListDayNotes handles GET /api/v1/day-notes
// Returns the room's free-text day notes keyed by date.
func (h *Handlers) ListDayNotes(ctx rweb.Context) error {
	roomID := CurrentRoomID(ctx)
	if roomID == "" {
		return writeError(ctx, http.StatusUnauthorized, "room token required")
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	notes, err := h.store.LoadRoomDayNotes(reqCtx, roomID)
	if err != nil {
		logger.LogErr(serr.Wrap(err, "failed to load day notes"), "database error")
		return writeError(ctx, http.StatusInternalServerError, "database error")
	}
	return writeSuccess(ctx, http.StatusOK, notes)
}

// PutDayNote handles PUT /api/v1/day-notes/:date
// Blank text removes the note.
//
// Request body:
//
//	{ "text": "pick up kids at 3" }
func (h *Handlers) PutDayNote(ctx rweb.Context) error {
	roomID := CurrentRoomID(ctx)
	if roomID == "" {
		return writeError(ctx, http.StatusUnauthorized, "room token required")
	}

	key, err := models.NormalizeDateKey(ctx.Request().Param("date"))
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(ctx.Request().Body(), &req); err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid JSON body")
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	if err := h.store.UpsertDayNote(reqCtx, roomID, key, req.Text); err != nil {
		logger.LogErr(serr.Wrap(err, "failed to save day note"), "database error")
		return writeError(ctx, http.StatusInternalServerError, "failed to save day note")
	}
	return writeSuccess(ctx, http.StatusOK, map[string]string{"date": key, "text": strings.TrimSpace(req.Text)})
}
