package api_test

import (
	"net/http"
	"strings"
	"testing"

	"schedulehub/web/api"
)

func TestCreateAndJoinRoom(t *testing.T) {
	server, cleanup := setupAPITestServer(t)
	defer cleanup()

	created := server.enterNewRoom(t, "alice")
	if created.Token == "" || created.Room == nil || created.Room.Code == "" {
		t.Fatalf("incomplete room response: %+v", created)
	}

	// A second device joins with the typed code
	server.token = ""
	status, result := server.do(t, http.MethodPost, "/api/v1/rooms/join", map[string]string{
		"code":   strings.ToLower(created.Room.Code),
		"member": "bob",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", status, result.Error)
	}
	var joined api.RoomResponse
	decodeData(t, result, &joined)
	if joined.Room.ID != created.Room.ID {
		t.Errorf("joined room %s, want %s", joined.Room.ID, created.Room.ID)
	}
	if joined.Member != "bob" {
		t.Errorf("expected member bob, got %q", joined.Member)
	}

	server.token = joined.Token
	status, result = server.do(t, http.MethodGet, "/api/v1/room", nil)
	if status != http.StatusOK {
		t.Fatalf("get room: expected 200, got %d", status)
	}
	var info struct {
		Member  string `json:"member"`
		Members []struct {
			Member string `json:"member"`
		} `json:"members"`
	}
	decodeData(t, result, &info)
	if info.Member != "bob" || len(info.Members) != 2 {
		t.Errorf("unexpected room info: %+v", info)
	}

	status, _ = server.do(t, http.MethodPost, "/api/v1/room/leave", nil)
	if status != http.StatusOK {
		t.Errorf("leave: expected 200, got %d", status)
	}
}

func TestJoinRoomErrors(t *testing.T) {
	server, cleanup := setupAPITestServer(t)
	defer cleanup()

	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"unknown code", map[string]string{"code": "ZZZZZ", "member": "carol"}, http.StatusNotFound},
		{"missing code", map[string]string{"member": "carol"}, http.StatusBadRequest},
		{"missing member", map[string]string{"code": "ABCDE"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, result := server.do(t, http.MethodPost, "/api/v1/rooms/join", tt.body)
			if status != tt.status {
				t.Errorf("expected %d, got %d", tt.status, status)
			}
			if result.Success {
				t.Error("expected success to be false")
			}
		})
	}
}

func TestRoomEndpointsRequireToken(t *testing.T) {
	server, cleanup := setupAPITestServer(t)
	defer cleanup()

	paths := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/v1/calendar"},
		{http.MethodGet, "/api/v1/room"},
		{http.MethodPost, "/api/v1/events"},
		{http.MethodGet, "/api/v1/day-notes"},
		{http.MethodGet, "/api/v1/sync/changes"},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			status, _ := server.do(t, p.method, p.path, map[string]string{})
			if status != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", status)
			}
		})
	}

	t.Run("invalid token", func(t *testing.T) {
		server.token = "not.a.jwt"
		defer func() { server.token = "" }()
		status, _ := server.do(t, http.MethodGet, "/api/v1/calendar", nil)
		if status != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", status)
		}
	})
}

func TestDefaultRoomServesWithoutToken(t *testing.T) {
	server, cleanup := setupAPITestServer(t, serverConfig{defaultRoom: true})
	defer cleanup()

	cal := server.calendar(t)
	if cal.RoomID == "" {
		t.Error("expected the default room to be bound")
	}
	if cal.Today != "2024-06-15" {
		t.Errorf("expected today 2024-06-15, got %s", cal.Today)
	}
}
