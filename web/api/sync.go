package api

import (
	"net/http"
	"strconv"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"github.com/rohanthewiz/serr"

	"schedulehub/models"
)

// GetChanges handles GET /api/v1/sync/changes
// Returns the room's change journal after a sequence number so a client that
// lost its live stream can tell what happened while it was away.
//
// Query parameters:
//   - since: last sequence number seen (default 0)
//   - limit: maximum entries (default: no limit)
func (h *Handlers) GetChanges(ctx rweb.Context) error {
	roomID := CurrentRoomID(ctx)
	if roomID == "" {
		return writeError(ctx, http.StatusUnauthorized, "room token required")
	}

	var since int64
	if s := ctx.Request().QueryParam("since"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return writeError(ctx, http.StatusBadRequest, "invalid since parameter")
		}
		since = n
	}

	limit := 0
	if s := ctx.Request().QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return writeError(ctx, http.StatusBadRequest, "invalid limit parameter")
		}
		limit = n
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	changes, err := h.store.ChangesSince(reqCtx, roomID, since, limit)
	if err != nil {
		logger.LogErr(serr.Wrap(err, "failed to get changes"), "database error")
		return writeError(ctx, http.StatusInternalServerError, "failed to retrieve changes")
	}
	if changes == nil {
		changes = []models.EventChangeRecord{}
	}

	logger.Debug("Sync changes retrieved", "room_id", roomID, "since", since, "count", len(changes))
	return writeSuccess(ctx, http.StatusOK, changes)
}

// Health handles GET /api/v1/health
// Needs no token.
func (h *Handlers) Health(ctx rweb.Context) error {
	return writeSuccess(ctx, http.StatusOK, map[string]string{
		"status": "ok",
		"db":     h.store.Driver(),
	})
}
