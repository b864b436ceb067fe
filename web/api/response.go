package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"

	"schedulehub/engine"
	"schedulehub/models"
	"schedulehub/prefs"
)

// requestTimeout bounds the store round trips of one request
const requestTimeout = 15 * time.Second

// APIResponse provides a consistent JSON response structure for all API endpoints.
// Success responses include data, error responses include an error message.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// writeSuccess sends a successful JSON response with data.
func writeSuccess(ctx rweb.Context, status int, data interface{}) error {
	ctx.SetStatus(status)
	return ctx.WriteJSON(APIResponse{Success: true, Data: data})
}

// writeError sends an error JSON response.
func writeError(ctx rweb.Context, status int, message string) error {
	ctx.SetStatus(status)
	return ctx.WriteJSON(APIResponse{Success: false, Error: message})
}

// writeEngineError maps engine failures onto HTTP statuses
func writeEngineError(ctx rweb.Context, err error, msg string) error {
	var verr *engine.ValidationError
	var werr *engine.WriteError
	var rerr *engine.ReadError

	switch {
	case errors.As(err, &verr):
		return writeError(ctx, http.StatusBadRequest, verr.Error())
	case errors.As(err, &werr):
		logger.LogErr(err, msg)
		return writeError(ctx, http.StatusBadGateway, "the event store rejected the change")
	case errors.As(err, &rerr):
		logger.LogErr(err, msg)
		return writeError(ctx, http.StatusBadGateway, "the event store could not be read")
	case errors.Is(err, engine.ErrSuperseded):
		return writeError(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrUnbound):
		return writeError(ctx, http.StatusConflict, "no household selected")
	case errors.Is(err, engine.ErrClosed):
		return writeError(ctx, http.StatusServiceUnavailable, "server is shutting down")
	default:
		logger.LogErr(err, msg)
		return writeError(ctx, http.StatusInternalServerError, msg)
	}
}

// Deps are the services the handlers work against
type Deps struct {
	Store  *models.Store
	Hub    *engine.Hub
	Signer *models.TokenSigner
	Prefs  *prefs.Store
}

// Handlers serves the JSON API
type Handlers struct {
	store  *models.Store
	hub    *engine.Hub
	signer *models.TokenSigner
	prefs  *prefs.Store
}

// New returns the API handlers
func New(d Deps) *Handlers {
	return &Handlers{store: d.Store, hub: d.Hub, signer: d.Signer, prefs: d.Prefs}
}

// CurrentRoomID extracts the room id set by the room token middleware.
// Returns empty string if the request is not in a room.
func CurrentRoomID(ctx rweb.Context) string {
	id, _ := ctx.Get("room_id").(string)
	return id
}

// CurrentMember extracts the member name carried by the room token
func CurrentMember(ctx rweb.Context) string {
	m, _ := ctx.Get("member").(string)
	return m
}

// CurrentViewID returns the dashboard view of the request, or empty string
// for the room's shared view
func CurrentViewID(ctx rweb.Context) string {
	v, _ := ctx.Get("view_id").(string)
	return v
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// roomEngine resolves the engine of the caller's room and view, writing the
// error response itself when it returns nil
func (h *Handlers) roomEngine(ctx rweb.Context, reqCtx context.Context) (*engine.Engine, error) {
	roomID := CurrentRoomID(ctx)
	if roomID == "" {
		return nil, writeError(ctx, http.StatusUnauthorized, "room token required")
	}
	e, err := h.hub.View(reqCtx, roomID, CurrentViewID(ctx))
	if err != nil {
		return nil, writeEngineError(ctx, err, "failed to open room calendar")
	}
	return e, nil
}
