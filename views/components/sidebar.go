package components

import (
	"time"

	"github.com/rohanthewiz/element"

	"schedulehub/models"
)

// DayPanel is the side panel for the selected day: its events, each
// editable in place, an input for a new event and the free-text day note
type DayPanel struct {
	Date    string // YYYY-MM-DD
	Events  []models.Event
	DayNote string
}

func (d DayPanel) Render(b *element.Builder) (x any) {
	b.Aside("id", "day-panel", "class", "day-panel", "data-date", d.Date).R(
		b.H2Class("day-title").T(Esc(DayTitle(d.Date))),

		b.UlClass("day-events").R(
			b.Wrap(func() {
				if len(d.Events) == 0 {
					b.Li("class", "empty-state").T("Nothing scheduled")
					return
				}
				element.ForEach(d.Events, func(e models.Event) {
					b.Li("class", "day-event", "data-event-id", e.ID).R(
						b.Wrap(func() {
							if e.Time.Valid {
								b.SpanClass("event-time").T(Esc(e.Time.String))
							}
						}),
						b.Input("type", "text", "class", "quick-edit",
							"value", Esc(e.Title),
							"data-event-id", e.ID,
							"onchange", "quickEdit(this)"),
						b.Button("class", "btn btn-icon", "title", "Delete",
							"onclick", "deleteEvent('"+e.ID+"')").T("✕"),
					)
				})
			}),
		),

		b.DivClass("new-event").R(
			b.Input("type", "text", "class", "quick-edit",
				"id", "new-event-input",
				"placeholder", "Add an event...",
				"onchange", "quickEdit(this)"),
		),

		b.DivClass("day-note").R(
			b.Label("for", "day-note-input").T("Notes for the day"),
			b.TextArea("id", "day-note-input", "rows", "3",
				"onchange", "saveDayNote(this)").T(Esc(d.DayNote)),
		),
	)
	return
}

// DayTitle formats a date key as "Monday, June 3"
func DayTitle(dateKey string) string {
	t, err := time.Parse(time.DateOnly, dateKey)
	if err != nil {
		return dateKey
	}
	return t.Format("Monday, January 2")
}
