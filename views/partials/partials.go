package partials

import (
	"strconv"

	"github.com/rohanthewiz/element"

	"schedulehub/calendar"
	"schedulehub/engine"
	"schedulehub/models"
	"schedulehub/views/components"
)

var weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// MonthGrid renders the 42-cell month view
type MonthGrid struct {
	Days     []calendar.Cell
	Today    string
	Selected string
}

func (g MonthGrid) Render(b *element.Builder) (x any) {
	b.Div("id", "month-grid", "class", "month-grid").R(
		b.Wrap(func() {
			for _, wd := range weekdays {
				b.DivClass("weekday").T(wd)
			}
		}),
		b.Wrap(func() {
			element.ForEach(g.Days, func(c calendar.Cell) {
				class := "day-cell"
				if !c.InCurrentMonth {
					class += " outside"
				}
				if c.Key == g.Today {
					class += " today"
				}
				if c.Key == g.Selected {
					class += " selected"
				}
				b.Div("class", class, "data-date", c.Key, "onclick", "selectDay('"+c.Key+"')").R(
					b.SpanClass("day-number").T(strconv.Itoa(c.Day)),
					b.Wrap(func() {
						if c.EventCount > 0 {
							b.SpanClass("event-count").T(strconv.Itoa(c.EventCount))
						}
					}),
				)
			})
		}),
	)
	return
}

// NextEventCard shows the first upcoming event
type NextEventCard struct {
	Next *engine.NextEvent
}

func (n NextEventCard) Render(b *element.Builder) (x any) {
	b.Div("id", "next-event", "class", "next-event").R(
		b.H3().T("Up next"),
		b.Wrap(func() {
			if n.Next == nil {
				b.P("class", "empty-state").T("Nothing coming up this month")
				return
			}
			ev := n.Next.Event
			b.P("class", "next-event-day").T(components.Esc(components.DayTitle(n.Next.Date)))
			b.P("class", "next-event-title").R(
				b.Wrap(func() {
					if ev.Time.Valid {
						b.SpanClass("event-time").T(components.Esc(ev.Time.String))
					}
				}),
				b.Span().T(components.Esc(ev.Title)),
			)
		}),
	)
	return
}

// RenderMonthGrid renders the grid of a snapshot as an HTML partial
func RenderMonthGrid(s engine.Snapshot) string {
	b := element.NewBuilder()
	element.RenderComponents(b, MonthGrid{Days: s.Days, Today: s.Today, Selected: s.Selected})
	return b.String()
}

// RenderDayPanel renders the panel of one day as an HTML partial
func RenderDayPanel(date string, events []models.Event, note string) string {
	b := element.NewBuilder()
	element.RenderComponents(b, components.DayPanel{Date: date, Events: events, DayNote: note})
	return b.String()
}

// RenderNextEvent renders the upcoming event card as an HTML partial
func RenderNextEvent(next *engine.NextEvent) string {
	b := element.NewBuilder()
	element.RenderComponents(b, NextEventCard{Next: next})
	return b.String()
}
