package api_test

import (
	"net/http"
	"testing"

	"schedulehub/models"
)

func TestEventCRUD(t *testing.T) {
	server, cleanup := setupAPITestServer(t)
	defer cleanup()
	server.enterNewRoom(t, "alice")

	created := server.createEvent(t, "2024-06-20", "  Dentist ", strPtr("9:00 AM"))
	if created.ID == "" || created.Title != "Dentist" {
		t.Fatalf("unexpected created event: %+v", created)
	}

	t.Run("get", func(t *testing.T) {
		status, result := server.do(t, http.MethodGet, "/api/v1/events/"+created.ID, nil)
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		var ev models.EventOutput
		decodeData(t, result, &ev)
		if ev.Time == nil || *ev.Time != "9:00 AM" {
			t.Errorf("unexpected time: %v", ev.Time)
		}
	})

	t.Run("update keeps date when omitted", func(t *testing.T) {
		status, result := server.do(t, http.MethodPut, "/api/v1/events/"+created.ID, map[string]interface{}{
			"title": "Dentist (Dr. Lee)",
			"notes": "bring insurance card",
		})
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", status, result.Error)
		}
		var ev models.EventOutput
		decodeData(t, result, &ev)
		if ev.Date != "2024-06-20" || ev.Title != "Dentist (Dr. Lee)" {
			t.Errorf("unexpected updated event: %+v", ev)
		}
		if ev.Notes == nil || *ev.Notes != "bring insurance card" {
			t.Errorf("expected notes to be saved, got %v", ev.Notes)
		}
	})

	t.Run("move to another day", func(t *testing.T) {
		status, _ := server.do(t, http.MethodPut, "/api/v1/events/"+created.ID, map[string]interface{}{
			"date":  "2024-06-21",
			"title": "Dentist",
		})
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		for _, c := range server.calendar(t).Days {
			if c.Key == "2024-06-20" && c.EventCount != 0 {
				t.Error("event still counted on its old day")
			}
			if c.Key == "2024-06-21" && c.EventCount != 1 {
				t.Error("event not counted on its new day")
			}
		}
	})

	t.Run("delete", func(t *testing.T) {
		status, _ := server.do(t, http.MethodDelete, "/api/v1/events/"+created.ID, nil)
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		if cal := server.calendar(t); cal.Events != 0 {
			t.Errorf("expected empty calendar, got %d events", cal.Events)
		}
		status, _ = server.do(t, http.MethodDelete, "/api/v1/events/"+created.ID, nil)
		if status != http.StatusNotFound {
			t.Errorf("second delete: expected 404, got %d", status)
		}
	})
}

func TestCreateEventValidation(t *testing.T) {
	server, cleanup := setupAPITestServer(t)
	defer cleanup()
	server.enterNewRoom(t, "alice")

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"blank title", map[string]interface{}{"date": "2024-06-20", "title": "   "}},
		{"missing date", map[string]interface{}{"title": "Soccer"}},
		{"bad date", map[string]interface{}{"date": "6/20/2024", "title": "Soccer"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, result := server.do(t, http.MethodPost, "/api/v1/events", tt.body)
			if status != http.StatusBadRequest {
				t.Errorf("expected 400, got %d (%s)", status, result.Error)
			}
		})
	}

	// Nothing reached the store
	changes, err := server.store.ChangesSince(t.Context(), server.calendar(t).RoomID, 0, 0)
	if err != nil {
		t.Fatalf("ChangesSince failed: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("expected no writes, got %d", len(changes))
	}
}

func TestQuickEdit(t *testing.T) {
	server, cleanup := setupAPITestServer(t)
	defer cleanup()
	server.enterNewRoom(t, "alice")

	path := "/api/v1/days/2024-06-18/quick-edit"

	status, result := server.do(t, http.MethodPost, path, map[string]string{"text": "Library books due"})
	if status != http.StatusOK {
		t.Fatalf("create: expected 200, got %d (%s)", status, result.Error)
	}
	var ev models.EventOutput
	decodeData(t, result, &ev)
	if ev.ID == "" || ev.Date != "2024-06-18" {
		t.Fatalf("unexpected quick-created event: %+v", ev)
	}

	status, result = server.do(t, http.MethodPost, path, map[string]string{"id": ev.ID, "text": "Library books due today"})
	if status != http.StatusOK {
		t.Fatalf("retitle: expected 200, got %d (%s)", status, result.Error)
	}

	t.Run("retitle keeps date and time", func(t *testing.T) {
		timed := server.createEvent(t, "2024-06-19", "Swim", strPtr("4:30 PM"))
		status, result := server.do(t, http.MethodPost, "/api/v1/days/2024-06-25/quick-edit", map[string]string{"id": timed.ID, "text": "Swim meet"})
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", status, result.Error)
		}
		var got models.EventOutput
		decodeData(t, result, &got)
		if got.Title != "Swim meet" || got.Date != "2024-06-19" || got.Time == nil || *got.Time != "4:30 PM" {
			t.Errorf("quick edit changed more than the title: %+v", got)
		}
	})

	// Clearing the text deletes instead of saving an empty title
	status, _ = server.do(t, http.MethodPost, path, map[string]string{"id": ev.ID, "text": "  "})
	if status != http.StatusOK {
		t.Fatalf("clear: expected 200, got %d", status)
	}
	if got, _ := server.store.GetEvent(t.Context(), ev.ID); got != nil {
		t.Error("expected the event to be deleted")
	}

	status, _ = server.do(t, http.MethodPost, path, map[string]string{"text": ""})
	if status != http.StatusBadRequest {
		t.Errorf("empty new text: expected 400, got %d", status)
	}
}

func TestEventsAreScopedToRoom(t *testing.T) {
	server, cleanup := setupAPITestServer(t)
	defer cleanup()

	server.enterNewRoom(t, "alice")
	theirs := server.createEvent(t, "2024-06-20", "Alice's event", nil)

	server.enterNewRoom(t, "mallory")

	status, _ := server.do(t, http.MethodPut, "/api/v1/events/"+theirs.ID, map[string]string{"title": "hijacked"})
	if status != http.StatusForbidden {
		t.Errorf("update: expected 403, got %d", status)
	}
	status, _ = server.do(t, http.MethodDelete, "/api/v1/events/"+theirs.ID, nil)
	if status != http.StatusForbidden {
		t.Errorf("delete: expected 403, got %d", status)
	}
	status, _ = server.do(t, http.MethodGet, "/api/v1/events/"+theirs.ID, nil)
	if status != http.StatusNotFound {
		t.Errorf("get: expected 404, got %d", status)
	}
	if cal := server.calendar(t); cal.Events != 0 {
		t.Errorf("other room's event leaked into the calendar: %d", cal.Events)
	}
}
