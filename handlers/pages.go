package handlers

import (
	"errors"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"

	"schedulehub/models"
	"schedulehub/views/pages"
)

// Dashboard displays the household calendar, or the join screen when the
// request carries no room
func (p *Pages) Dashboard(c rweb.Context) error {
	room := roomID(c)
	if room == "" {
		return c.WriteHTML(pages.RenderJoin(""))
	}

	ctx, cancel := pageContext()
	defer cancel()

	data := pages.DashboardData{
		Member: member(c),
		Prefs:  p.prefs.Get(),
	}

	r, err := p.store.GetRoomByID(ctx, room)
	switch {
	case errors.Is(err, models.ErrRoomNotFound):
		// The token outlived its room
		return c.WriteHTML(pages.RenderJoin("That household no longer exists."))
	case err != nil:
		logger.LogErr(err, "room lookup failed", "room_id", room)
	default:
		data.RoomCode = r.Code
	}

	e, err := p.hub.View(ctx, room, viewID(c))
	if err != nil {
		logger.LogErr(err, "failed to open room for dashboard", "room_id", room)
		return ServerError(c)
	}
	data.Snapshot = e.Snapshot()

	notes, err := p.store.LoadRoomDayNotes(ctx, room)
	if err != nil {
		logger.LogErr(err, "failed to load day notes", "room_id", room)
	}
	data.DayNotes = notes

	return c.WriteHTML(pages.RenderDashboard(data))
}

// Join displays the join screen regardless of any token
func (p *Pages) Join(c rweb.Context) error {
	return c.WriteHTML(pages.RenderJoin(""))
}
