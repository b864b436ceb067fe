package components

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/rohanthewiz/element"

	"schedulehub/feed"
	"schedulehub/models"
)

func render(c element.Component) string {
	b := element.NewBuilder()
	element.RenderComponents(b, c)
	return b.String()
}

func TestHeaderEscapesUserText(t *testing.T) {
	html := render(Header{
		MonthLabel: "June 2024",
		Month:      "2024-06",
		RoomCode:   "ABCDE",
		Member:     "<script>alert(1)</script>",
		FeedStatus: feed.StatusOpen,
		Location:   "Winchester, VA",
		Verse:      "This is the day",
	})

	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("member name must be escaped")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Error("expected escaped member name")
	}
	for _, want := range []string{"shiftMonth(-1)", "shiftMonth(1)", "goToday()", "leaveRoom()", "ABCDE", "Winchester, VA", "This is the day"} {
		if !strings.Contains(html, want) {
			t.Errorf("header missing %q", want)
		}
	}
	if !strings.Contains(html, `data-month="2024-06"`) {
		t.Error("header should carry the month key")
	}
}

func TestHeaderOmitsEmptyParts(t *testing.T) {
	html := render(Header{MonthLabel: "June 2024", Month: "2024-06"})

	for _, absent := range []string{"room-code", "leaveRoom()", `class="verse"`, `class="location"`} {
		if strings.Contains(html, absent) {
			t.Errorf("header should not contain %q without data", absent)
		}
	}
}

func TestStatusPillLabels(t *testing.T) {
	tests := []struct {
		status feed.Status
		label  string
	}{
		{feed.StatusOpen, "live"},
		{feed.StatusConnecting, "connecting"},
		{feed.StatusError, "reconnecting"},
		{feed.StatusClosed, "offline"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			html := render(StatusPill{Status: tt.status})
			if !strings.Contains(html, ">"+tt.label+"<") {
				t.Errorf("expected label %q in %s", tt.label, html)
			}
			if !strings.Contains(html, `id="feed-status"`) {
				t.Error("pill needs the feed-status id for live updates")
			}
		})
	}
}

func TestDayPanel(t *testing.T) {
	html := render(DayPanel{
		Date: "2024-06-20",
		Events: []models.Event{
			{ID: "e1", Date: "2024-06-20", Title: "Dentist & checkup", Time: sql.NullString{String: "9:00 AM", Valid: true}},
			{ID: "e2", Date: "2024-06-20", Title: "Soccer"},
		},
		DayNote: "pick up kids",
	})

	if !strings.Contains(html, "Thursday, June 20") {
		t.Error("panel should title the day")
	}
	if !strings.Contains(html, "Dentist &amp; checkup") {
		t.Error("event titles should be escaped")
	}
	if !strings.Contains(html, "9:00 AM") {
		t.Error("timed events should show the time")
	}
	if strings.Count(html, `class="day-event"`) != 2 {
		t.Error("expected one row per event")
	}
	if !strings.Contains(html, "deleteEvent('e2')") {
		t.Error("rows should have a delete action")
	}
	if !strings.Contains(html, "pick up kids") {
		t.Error("day note should be shown")
	}
	if strings.Contains(html, "Nothing scheduled") {
		t.Error("empty state should not show with events")
	}
}

func TestDayPanelEmpty(t *testing.T) {
	html := render(DayPanel{Date: "2024-06-21"})

	if !strings.Contains(html, "Nothing scheduled") {
		t.Error("expected empty state")
	}
	if !strings.Contains(html, `id="new-event-input"`) {
		t.Error("panel should always offer the new event input")
	}
}

func TestDayTitle(t *testing.T) {
	if got := DayTitle("2024-06-03"); got != "Monday, June 3" {
		t.Errorf("DayTitle = %q", got)
	}
	if got := DayTitle("garbage"); got != "garbage" {
		t.Errorf("unparseable keys should pass through, got %q", got)
	}
}
