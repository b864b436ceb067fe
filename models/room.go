package models

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// Room is a household: the tenant boundary every event belongs to.
// Members find it by its short share code.
type Room struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomMember is one participant of a room
type RoomMember struct {
	RoomID   string    `json:"room_id"`
	Member   string    `json:"member"`
	JoinedAt time.Time `json:"joined_at"`
}

// RoomCodeLength is the length of generated share codes
const RoomCodeLength = 5

// Share codes skip look-alike characters (0/O, 1/I)
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// ErrRoomNotFound is returned when a share code or id matches no room
var ErrRoomNotFound = errors.New("room not found")

// GenerateRoomCode returns a random share code
func GenerateRoomCode(n int) (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(roomCodeAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", serr.Wrap(err, "failed to generate room code")
		}
		sb.WriteByte(roomCodeAlphabet[idx.Int64()])
	}
	return sb.String(), nil
}

// NormalizeRoomCode trims and upper-cases a code typed by a person
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateRoom makes a new room with a fresh share code and adds member to it
func (s *Store) CreateRoom(ctx context.Context, member string) (*Room, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	room := &Room{ID: uuid.New().String(), CreatedAt: time.Now().UTC()}

	// Codes are short, so retry a few times on the unlikely collision
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		code, err := GenerateRoomCode(RoomCodeLength)
		if err != nil {
			return nil, err
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO rooms (id, code, created_at) VALUES (?, ?, ?)`,
			room.ID, code, room.CreatedAt)
		if err == nil {
			room.Code = code
			lastErr = nil
			break
		}
		lastErr = err
		logger.Debug("Room code insert failed, retrying", "attempt", attempt, "error", err.Error())
	}
	if lastErr != nil {
		return nil, serr.Wrap(lastErr, "failed to create room")
	}

	if member != "" {
		if err := s.addMemberLocked(ctx, room.ID, member); err != nil {
			return nil, err
		}
	}

	logger.Info("Room created", "room_id", room.ID, "code", room.Code)
	return room, nil
}

// GetRoomByCode looks a room up by share code (case-insensitive)
func (s *Store) GetRoomByCode(ctx context.Context, code string) (*Room, error) {
	return s.getRoom(ctx, `SELECT id, code, created_at FROM rooms WHERE code = ?`, NormalizeRoomCode(code))
}

// GetRoomByID looks a room up by id
func (s *Store) GetRoomByID(ctx context.Context, id string) (*Room, error) {
	return s.getRoom(ctx, `SELECT id, code, created_at FROM rooms WHERE id = ?`, id)
}

func (s *Store) getRoom(ctx context.Context, query string, arg string) (*Room, error) {
	room := &Room{}
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&room.ID, &room.Code, &room.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRoomNotFound
		}
		return nil, serr.Wrap(err, "failed to get room")
	}
	return room, nil
}

// JoinRoom adds member to the room identified by code and returns the room.
// Joining twice is harmless.
func (s *Store) JoinRoom(ctx context.Context, code, member string) (*Room, error) {
	if strings.TrimSpace(member) == "" {
		return nil, serr.New("member name is required")
	}
	room, err := s.GetRoomByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.addMemberLocked(ctx, room.ID, member); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *Store) addMemberLocked(ctx context.Context, roomID, member string) error {
	member = strings.TrimSpace(member)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO room_members (room_id, member, joined_at) VALUES (?, ?, ?)
		 ON CONFLICT (room_id, member) DO NOTHING`,
		roomID, member, time.Now().UTC())
	if err != nil {
		return serr.Wrap(err, "failed to add room member")
	}
	return nil
}

// LeaveRoom removes member from roomID; leaving a room you are not in is a no-op
func (s *Store) LeaveRoom(ctx context.Context, roomID, member string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM room_members WHERE room_id = ? AND member = ?`, roomID, strings.TrimSpace(member))
	if err != nil {
		return serr.Wrap(err, "failed to remove room member")
	}
	return nil
}

// ListRoomMembers returns the members of roomID ordered by join time
func (s *Store) ListRoomMembers(ctx context.Context, roomID string) ([]RoomMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT room_id, member, joined_at FROM room_members WHERE room_id = ? ORDER BY joined_at, member`, roomID)
	if err != nil {
		return nil, serr.Wrap(err, "failed to query room members")
	}
	defer rows.Close()

	members := []RoomMember{}
	for rows.Next() {
		var m RoomMember
		if err := rows.Scan(&m.RoomID, &m.Member, &m.JoinedAt); err != nil {
			return nil, serr.Wrap(err, "failed to scan room member")
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
