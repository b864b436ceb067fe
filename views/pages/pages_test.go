package pages

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"schedulehub/calendar"
	"schedulehub/engine"
	"schedulehub/feed"
	"schedulehub/models"
	"schedulehub/prefs"
)

func testSnapshot() engine.Snapshot {
	return engine.Snapshot{
		Status: engine.Status{
			RoomID:     "room-1",
			FeedStatus: feed.StatusOpen,
			Events:     4,
		},
		Month:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		MonthLabel: "June 2024",
		Today:      "2024-06-15",
		Selected:   "2024-06-15",
		Days:       []calendar.Cell{{Key: "2024-06-15", Day: 15, InCurrentMonth: true, EventCount: 1}},
		SelectedEvents: []models.Event{
			{ID: "e1", Date: "2024-06-15", Title: "Farmers market", Time: sql.NullString{String: "8:00 AM", Valid: true}},
		},
	}
}

func TestRenderDashboard(t *testing.T) {
	html := RenderDashboard(DashboardData{
		Snapshot: testSnapshot(),
		RoomCode: "ABCDE",
		Member:   "alice",
		Prefs:    prefs.Default(),
		DayNotes: map[string]string{"2024-06-15": "bring bags"},
	})

	for _, want := range []string{
		"June 2024", `data-month="2024-06"`, "ABCDE", "alice",
		`id="month-grid"`, `id="next-event"`, `id="day-panel"`,
		"Farmers market", "bring bags", "4 events this month",
		prefs.Default().Location().Label,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	if strings.Contains(html, `id="sync-error"`) {
		t.Error("no error banner expected on a healthy snapshot")
	}
}

func TestRenderDashboardErrorBanner(t *testing.T) {
	s := testSnapshot()
	s.LastError = "store unavailable"
	s.Pending = 2

	html := RenderDashboard(DashboardData{Snapshot: s, Prefs: prefs.Default()})

	if !strings.Contains(html, `id="sync-error"`) || !strings.Contains(html, "refreshCalendar()") {
		t.Error("failed load should show a banner with retry")
	}
	if strings.Contains(html, "store unavailable") {
		t.Error("internal error text should not be shown")
	}
	if !strings.Contains(html, "saving 2") {
		t.Error("pending writes should be shown")
	}
}

func TestRenderJoin(t *testing.T) {
	html := RenderJoin("That household <no longer> exists.")

	if !strings.Contains(html, `id="join-form"`) || !strings.Contains(html, `id="create-form"`) {
		t.Error("join page needs both forms")
	}
	if !strings.Contains(html, "&lt;no longer&gt;") {
		t.Error("message should be escaped")
	}
	if strings.Contains(RenderJoin(""), `id="join-message"`) {
		t.Error("no message element without a message")
	}
}
