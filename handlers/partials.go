package handlers

import (
	"net/http"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"

	"schedulehub/engine"
	"schedulehub/models"
	"schedulehub/views/partials"
)

func (p *Pages) roomEngine(c rweb.Context) (*engine.Engine, bool) {
	room := roomID(c)
	if room == "" {
		c.SetStatus(http.StatusUnauthorized)
		return nil, false
	}
	ctx, cancel := pageContext()
	defer cancel()

	e, err := p.hub.View(ctx, room, viewID(c))
	if err != nil {
		logger.LogErr(err, "failed to open room for partial", "room_id", room)
		c.SetStatus(http.StatusInternalServerError)
		return nil, false
	}
	return e, true
}

// GridPartial returns the month grid as an HTML partial
func (p *Pages) GridPartial(c rweb.Context) error {
	e, ok := p.roomEngine(c)
	if !ok {
		return c.WriteHTML("<div>Calendar unavailable</div>")
	}
	return c.WriteHTML(partials.RenderMonthGrid(e.Snapshot()))
}

// DayPartial returns the day panel for :date as an HTML partial
func (p *Pages) DayPartial(c rweb.Context) error {
	key, err := models.NormalizeDateKey(c.Request().Param("date"))
	if err != nil {
		c.SetStatus(http.StatusBadRequest)
		return c.WriteHTML("<div>Invalid date</div>")
	}
	e, ok := p.roomEngine(c)
	if !ok {
		return c.WriteHTML("<div>Calendar unavailable</div>")
	}

	ctx, cancel := pageContext()
	defer cancel()
	notes, err := p.store.LoadRoomDayNotes(ctx, roomID(c))
	if err != nil {
		logger.LogErr(err, "failed to load day notes for partial")
	}

	return c.WriteHTML(partials.RenderDayPanel(key, e.DayEvents(key), notes[key]))
}

// NextEventPartial returns the upcoming event card as an HTML partial
func (p *Pages) NextEventPartial(c rweb.Context) error {
	e, ok := p.roomEngine(c)
	if !ok {
		return c.WriteHTML("<div>Calendar unavailable</div>")
	}
	var next *engine.NextEvent
	if n, ok := e.NextEvent(); ok {
		next = &n
	}
	return c.WriteHTML(partials.RenderNextEvent(next))
}
