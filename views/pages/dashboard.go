package pages

import (
	"github.com/rohanthewiz/element"

	"schedulehub/calendar"
	"schedulehub/engine"
	"schedulehub/prefs"
	"schedulehub/views"
	"schedulehub/views/components"
	"schedulehub/views/partials"
)

// DashboardData is everything the household dashboard shows
type DashboardData struct {
	Snapshot engine.Snapshot
	RoomCode string
	Member   string
	Prefs    prefs.Prefs
	DayNotes map[string]string
}

// RenderDashboard creates the main dashboard page
func RenderDashboard(d DashboardData) string {
	return views.BaseLayout("", "", views.PageWithHeader{
		Header: components.Header{
			MonthLabel: d.Snapshot.MonthLabel,
			Month:      d.Snapshot.Month.Format(calendar.MonthLayout),
			RoomCode:   d.RoomCode,
			Member:     d.Member,
			FeedStatus: d.Snapshot.FeedStatus,
			Location:   d.Prefs.Location().Label,
			Verse:      d.Prefs.Verse,
		},
		Content: DashboardContent{Data: d},
	})
}

// DashboardContent component for the dashboard
type DashboardContent struct {
	Data DashboardData
}

func (d DashboardContent) Render(b *element.Builder) (x any) {
	s := d.Data.Snapshot
	b.DivClass("dashboard").R(
		b.Wrap(func() {
			if s.LastError != "" {
				b.Div("id", "sync-error", "class", "banner banner-error").R(
					b.Span().T("Could not load the calendar. Showing what we had."),
					b.Button("class", "btn btn-secondary", "onclick", "refreshCalendar()").T("Retry"),
				)
			}
		}),

		b.DivClass("dashboard-main").R(
			element.RenderComponents(b, partials.MonthGrid{
				Days:     s.Days,
				Today:    s.Today,
				Selected: s.Selected,
			}),
			element.RenderComponents(b, partials.NextEventCard{Next: s.Next}),
		),

		element.RenderComponents(b, components.DayPanel{
			Date:    s.Selected,
			Events:  s.SelectedEvents,
			DayNote: d.Data.DayNotes[s.Selected],
		}),

		b.DivClass("dashboard-footer").R(
			b.Small().F("%d events this month", s.Events),
			b.Wrap(func() {
				if s.Pending > 0 {
					b.Small("class", "pending").F(" · saving %d", s.Pending)
				}
			}),
			b.Wrap(func() {
				if s.LastSync != nil {
					b.Small("class", "last-sync").T(" · synced " + s.LastSync.Local().Format("3:04 PM"))
				}
			}),
		),
	)
	return
}
