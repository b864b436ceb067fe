package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"github.com/rohanthewiz/serr"

	"schedulehub/models"
)

// RoomResponse is returned when a member enters a room
type RoomResponse struct {
	Room   *models.Room `json:"room"`
	Member string       `json:"member"`
	Token  string       `json:"token"`
}

type roomRequest struct {
	Code   string `json:"code"`
	Member string `json:"member"`
}

// CreateRoom handles POST /api/v1/rooms
// Creates a household with a fresh share code and returns a token for its creator.
//
// Request body:
//
//	{ "member": "alice" }
func (h *Handlers) CreateRoom(ctx rweb.Context) error {
	var req roomRequest
	if err := json.Unmarshal(ctx.Request().Body(), &req); err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid JSON body")
	}
	member := strings.TrimSpace(req.Member)
	if member == "" {
		return writeError(ctx, http.StatusBadRequest, "member is required")
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	room, err := h.store.CreateRoom(reqCtx, member)
	if err != nil {
		logger.LogErr(serr.Wrap(err, "failed to create room"), "database error")
		return writeError(ctx, http.StatusInternalServerError, "failed to create room")
	}
	return h.enterRoom(ctx, http.StatusCreated, room, member)
}

// JoinRoom handles POST /api/v1/rooms/join
//
// Request body:
//
//	{ "code": "K7QXM", "member": "bob" }
//
// Errors:
//   - 400: missing code or member
//   - 404: no room has that code
func (h *Handlers) JoinRoom(ctx rweb.Context) error {
	var req roomRequest
	if err := json.Unmarshal(ctx.Request().Body(), &req); err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid JSON body")
	}
	if models.NormalizeRoomCode(req.Code) == "" {
		return writeError(ctx, http.StatusBadRequest, "code is required")
	}
	member := strings.TrimSpace(req.Member)
	if member == "" {
		return writeError(ctx, http.StatusBadRequest, "member is required")
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	room, err := h.store.JoinRoom(reqCtx, req.Code, member)
	if err != nil {
		if errors.Is(err, models.ErrRoomNotFound) {
			return writeError(ctx, http.StatusNotFound, "no household has that code")
		}
		logger.LogErr(serr.Wrap(err, "failed to join room"), "database error")
		return writeError(ctx, http.StatusInternalServerError, "failed to join room")
	}
	return h.enterRoom(ctx, http.StatusOK, room, member)
}

func (h *Handlers) enterRoom(ctx rweb.Context, status int, room *models.Room, member string) error {
	token, err := h.signer.GenerateToken(room, member)
	if err != nil {
		logger.LogErr(err, "failed to generate room token", "room_id", room.ID)
		return writeError(ctx, http.StatusInternalServerError, "failed to generate token")
	}

	// Bind eagerly so the first calendar read is warm
	reqCtx, cancel := requestContext()
	defer cancel()
	if _, err := h.hub.Engine(reqCtx, room.ID); err != nil {
		logger.LogErr(err, "failed to start room engine", "room_id", room.ID)
	}

	logger.Info("Member entered room", "room_id", room.ID, "member", member)
	return writeSuccess(ctx, status, RoomResponse{Room: room, Member: member, Token: token})
}

// GetRoom handles GET /api/v1/room
// Returns the caller's room and its members.
func (h *Handlers) GetRoom(ctx rweb.Context) error {
	roomID := CurrentRoomID(ctx)
	if roomID == "" {
		return writeError(ctx, http.StatusUnauthorized, "room token required")
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	room, err := h.store.GetRoomByID(reqCtx, roomID)
	if err != nil {
		if errors.Is(err, models.ErrRoomNotFound) {
			return writeError(ctx, http.StatusNotFound, "room not found")
		}
		logger.LogErr(serr.Wrap(err, "failed to get room"), "database error")
		return writeError(ctx, http.StatusInternalServerError, "database error")
	}
	members, err := h.store.ListRoomMembers(reqCtx, roomID)
	if err != nil {
		logger.LogErr(serr.Wrap(err, "failed to list members"), "database error")
		return writeError(ctx, http.StatusInternalServerError, "database error")
	}

	return writeSuccess(ctx, http.StatusOK, map[string]interface{}{
		"room":    room,
		"member":  CurrentMember(ctx),
		"members": members,
	})
}

// LeaveRoom handles POST /api/v1/room/leave
// Removes the caller from the room. The client discards its token.
func (h *Handlers) LeaveRoom(ctx rweb.Context) error {
	roomID := CurrentRoomID(ctx)
	if roomID == "" {
		return writeError(ctx, http.StatusUnauthorized, "room token required")
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	if err := h.store.LeaveRoom(reqCtx, roomID, CurrentMember(ctx)); err != nil {
		logger.LogErr(serr.Wrap(err, "failed to leave room"), "database error")
		return writeError(ctx, http.StatusInternalServerError, "failed to leave room")
	}
	logger.Info("Member left room", "room_id", roomID, "member", CurrentMember(ctx))
	return writeSuccess(ctx, http.StatusOK, map[string]string{"room_id": roomID})
}
