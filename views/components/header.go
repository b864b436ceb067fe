package components

import (
	"github.com/rohanthewiz/element"

	"schedulehub/feed"
)

// Header is the dashboard title bar: month navigation, household code and
// the live-update indicator
type Header struct {
	MonthLabel string
	Month      string // YYYY-MM
	RoomCode   string
	Member     string
	FeedStatus feed.Status
	Location   string
	Verse      string
}

func (h Header) Render(b *element.Builder) (x any) {
	b.Header("id", "main-header").R(
		b.DivClass("header-content").R(
			b.DivClass("header-left").R(
				b.Button("class", "btn btn-icon", "title", "Previous month",
					"onclick", "shiftMonth(-1)").T("‹"),
				b.H1Class("month-label", "data-month", h.Month).T(Esc(h.MonthLabel)),
				b.Button("class", "btn btn-icon", "title", "Next month",
					"onclick", "shiftMonth(1)").T("›"),
				b.Button("class", "btn btn-secondary", "onclick", "goToday()").T("Today"),
			),

			b.DivClass("header-center").R(
				b.Wrap(func() {
					if h.Verse != "" {
						b.P("class", "verse").T(Esc(h.Verse))
					}
				}),
			),

			b.DivClass("header-right").R(
				b.Wrap(func() {
					if h.Location != "" {
						b.SpanClass("location").T(Esc(h.Location))
					}
				}),
				element.RenderComponents(b, StatusPill{Status: h.FeedStatus}),
				b.Wrap(func() {
					if h.RoomCode != "" {
						b.Span("class", "room-code", "title", "Share this code to join").T(Esc(h.RoomCode))
					}
				}),
				b.Wrap(func() {
					if h.Member != "" {
						b.SpanClass("member").T(Esc(h.Member))
						b.Button("class", "btn btn-icon", "title", "Leave household",
							"onclick", "leaveRoom()").T("⎋")
					}
				}),
			),
		),
	)
	return
}

// StatusPill shows the change feed state
type StatusPill struct {
	Status feed.Status
}

func (s StatusPill) Render(b *element.Builder) (x any) {
	label := "offline"
	switch s.Status {
	case feed.StatusOpen:
		label = "live"
	case feed.StatusConnecting:
		label = "connecting"
	case feed.StatusError:
		label = "reconnecting"
	}
	b.Span("id", "feed-status", "class", "status-pill status-"+string(s.Status),
		"data-status", string(s.Status)).T(label)
	return
}
