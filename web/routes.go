package web

import (
	"github.com/rohanthewiz/rweb"

	"schedulehub/handlers"
	"schedulehub/web/api"
)

// setupRoutes configures all application routes
func setupRoutes(s *rweb.Server, h *api.Handlers, p *handlers.Pages) {
	// Page routes - HTML responses
	s.Get("/", p.Dashboard)
	s.Get("/join", p.Join)

	// HTML partials the dashboard swaps in after an update
	s.Get("/partials/grid", p.GridPartial)
	s.Get("/partials/day/:date", p.DayPartial)
	s.Get("/partials/next", p.NextEventPartial)

	// API v1 routes - JSON responses
	s.Get("/api/v1/health", h.Health)

	// Households
	s.Post("/api/v1/rooms", h.CreateRoom)    // Create a household, returns a token
	s.Post("/api/v1/rooms/join", h.JoinRoom) // Join by share code, returns a token
	s.Get("/api/v1/room", h.GetRoom)         // Caller's household and members
	s.Post("/api/v1/room/leave", h.LeaveRoom)

	// Calendar read model and navigation
	s.Get("/api/v1/calendar", h.GetCalendar)
	s.Get("/api/v1/calendar/status", h.GetStatus)
	s.Put("/api/v1/calendar/window", h.SetWindow)
	s.Put("/api/v1/calendar/selected", h.SetSelected)
	s.Post("/api/v1/calendar/refresh", h.Refresh)
	s.Get("/api/v1/calendar.ics", h.ExportICS)
	s.Post("/api/v1/calendar.ics", h.ImportICS)
	s.Get("/api/v1/days/:date/events", h.GetDayEvents)
	s.Post("/api/v1/days/:date/quick-edit", h.QuickEdit)

	// Events CRUD
	s.Post("/api/v1/events", h.CreateEvent)
	s.Get("/api/v1/events/:id", h.GetEvent)
	s.Put("/api/v1/events/:id", h.UpdateEvent)
	s.Delete("/api/v1/events/:id", h.DeleteEvent)

	// Legacy free-text day notes
	s.Get("/api/v1/day-notes", h.ListDayNotes)
	s.Put("/api/v1/day-notes/:date", h.PutDayNote)

	// Preferences
	s.Get("/api/v1/prefs", h.GetPrefs)
	s.Put("/api/v1/prefs", h.UpdatePrefs)

	// Change journal for clients catching up after a disconnect
	s.Get("/api/v1/sync/changes", h.GetChanges)
}
