package api_test

import (
	"net/http"
	"testing"
	"time"

	"schedulehub/models"
)

func TestGetCalendarSnapshot(t *testing.T) {
	server, cleanup := setupAPITestServer(t)
	defer cleanup()
	server.enterNewRoom(t, "alice")

	server.createEvent(t, "2024-06-15", "Piano", strPtr("2pm"))
	server.createEvent(t, "2024-06-15", "Breakfast", strPtr("8:00 AM"))
	server.createEvent(t, "2024-06-20", "Dentist", nil)

	cal := server.calendar(t)
	if cal.Month != "2024-06" || cal.MonthLabel != "June 2024" {
		t.Errorf("unexpected month %s / %s", cal.Month, cal.MonthLabel)
	}
	if len(cal.Days) != 42 {
		t.Fatalf("expected 42 cells, got %d", len(cal.Days))
	}
	if cal.Days[0].Key != "2024-05-26" {
		t.Errorf("grid should start on Sunday 2024-05-26, got %s", cal.Days[0].Key)
	}
	if cal.Events != 3 {
		t.Errorf("expected 3 events, got %d", cal.Events)
	}
	if cal.Selected != "2024-06-15" {
		t.Errorf("selected should default to today, got %s", cal.Selected)
	}

	// Selected day events come back in clock order
	if len(cal.SelectedEvents) != 2 || cal.SelectedEvents[0].Title != "Breakfast" {
		t.Errorf("unexpected selected events: %+v", cal.SelectedEvents)
	}
	if cal.Next == nil || cal.Next.Event.Title != "Breakfast" {
		t.Errorf("expected Breakfast as next event, got %+v", cal.Next)
	}

	for _, c := range cal.Days {
		if c.Key == "2024-06-20" && c.EventCount != 1 {
			t.Errorf("expected 1 event on 2024-06-20, got %d", c.EventCount)
		}
	}
}

func TestSetWindow(t *testing.T) {
	server, cleanup := setupAPITestServer(t)
	defer cleanup()
	server.enterNewRoom(t, "alice")

	server.createEvent(t, "2024-07-04", "Fireworks", nil)

	// Outside June the write succeeds but is not indexed
	if cal := server.calendar(t); cal.Events != 0 {
		t.Errorf("July event should not be in the June window, got %d", cal.Events)
	}

	status, result := server.do(t, http.MethodPut, "/api/v1/calendar/window", map[string]string{"month": "2024-07"})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", status, result.Error)
	}
	cal := server.calendar(t)
	if cal.Month != "2024-07" || cal.Events != 1 {
		t.Errorf("expected July with 1 event, got %s with %d", cal.Month, cal.Events)
	}

	status, _ = server.do(t, http.MethodPut, "/api/v1/calendar/window", map[string]int{"shift": -1})
	if status != http.StatusOK {
		t.Fatalf("shift: expected 200, got %d", status)
	}
	if cal := server.calendar(t); cal.Month != "2024-06" {
		t.Errorf("expected June after shifting back, got %s", cal.Month)
	}

	t.Run("bad input", func(t *testing.T) {
		bodies := []map[string]interface{}{
			{"month": "July"},
			{"start": "2024-07-10", "end": "2024-07-01"},
			{},
		}
		for _, b := range bodies {
			status, _ := server.do(t, http.MethodPut, "/api/v1/calendar/window", b)
			if status != http.StatusBadRequest {
				t.Errorf("%v: expected 400, got %d", b, status)
			}
		}
	})
}

func TestDashboardViewsNavigateIndependently(t *testing.T) {
	server, cleanup := setupAPITestServer(t)
	defer cleanup()
	server.enterNewRoom(t, "alice")

	kitchen := "0b7e3c9a-4c1e-4d55-9a43-2f6a1e8d7c10"
	hallway := "5d2f8e61-93b7-4a0c-b1de-7c4e2a9f3b58"

	server.view = kitchen
	if status, result := server.do(t, http.MethodPut, "/api/v1/calendar/window", map[string]string{"month": "2024-07"}); status != http.StatusOK {
		t.Fatalf("kitchen window: expected 200, got %d (%s)", status, result.Error)
	}
	if status, _ := server.do(t, http.MethodPut, "/api/v1/calendar/selected", map[string]string{"date": "2024-07-04"}); status != http.StatusOK {
		t.Fatalf("kitchen selection: expected 200, got %d", status)
	}

	// A second screen moving at the same time is not a conflict
	server.view = hallway
	if status, result := server.do(t, http.MethodPut, "/api/v1/calendar/window", map[string]string{"month": "2024-05"}); status != http.StatusOK {
		t.Fatalf("hallway window: expected 200, got %d (%s)", status, result.Error)
	}
	if cal := server.calendar(t); cal.Month != "2024-05" || cal.Selected != "2024-06-15" {
		t.Errorf("hallway sees %s / %s", cal.Month, cal.Selected)
	}

	server.view = kitchen
	if cal := server.calendar(t); cal.Month != "2024-07" || cal.Selected != "2024-07-04" {
		t.Errorf("kitchen sees %s / %s", cal.Month, cal.Selected)
	}

	// Without a view cookie the shared view is untouched
	server.view = ""
	if cal := server.calendar(t); cal.Month != "2024-06" || cal.Selected != "2024-06-15" {
		t.Errorf("shared view sees %s / %s", cal.Month, cal.Selected)
	}

	// An event written from one screen reaches the others
	server.createEvent(t, "2024-07-04", "Fireworks", nil)
	server.view = kitchen
	deadline := time.Now().Add(2 * time.Second)
	for {
		cal := server.calendar(t)
		if len(cal.SelectedEvents) == 1 && cal.SelectedEvents[0].Title == "Fireworks" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("kitchen never saw the new event: %+v", cal.SelectedEvents)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestSetSelectedAndDayEvents(t *testing.T) {
	server, cleanup := setupAPITestServer(t)
	defer cleanup()
	server.enterNewRoom(t, "alice")

	server.createEvent(t, "2024-06-20", "Soccer", strPtr("5pm"))
	server.createEvent(t, "2024-06-20", "School", strPtr("8:15 AM"))

	status, result := server.do(t, http.MethodPut, "/api/v1/calendar/selected", map[string]string{"date": "2024-06-20"})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", status, result.Error)
	}
	if cal := server.calendar(t); cal.Selected != "2024-06-20" || len(cal.SelectedEvents) != 2 {
		t.Errorf("unexpected selection: %s with %d events", cal.Selected, len(cal.SelectedEvents))
	}

	status, result = server.do(t, http.MethodGet, "/api/v1/days/2024-06-20/events", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var events []models.EventOutput
	decodeData(t, result, &events)
	if len(events) != 2 || events[0].Title != "School" || events[1].Title != "Soccer" {
		t.Errorf("expected School then Soccer, got %+v", events)
	}

	status, _ = server.do(t, http.MethodPut, "/api/v1/calendar/selected", map[string]string{"date": "someday"})
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad date, got %d", status)
	}
}

func TestRefreshPicksUpDirectStoreWrites(t *testing.T) {
	server, cleanup := setupAPITestServer(t)
	defer cleanup()
	rr := server.enterNewRoom(t, "alice")

	// Written behind the engine's back with no publisher
	server.store.SetPublisher(nil)
	if _, err := server.store.UpsertEvent(t.Context(), rr.Room.ID, models.EventInput{Date: "2024-06-21", Title: "Backfill"}); err != nil {
		t.Fatalf("UpsertEvent failed: %v", err)
	}

	status, result := server.do(t, http.MethodPost, "/api/v1/calendar/refresh", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", status, result.Error)
	}
	if cal := server.calendar(t); cal.Events != 1 {
		t.Errorf("expected refreshed calendar to hold 1 event, got %d", cal.Events)
	}
}
