package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rohanthewiz/rweb"

	"schedulehub/calendar"
	"schedulehub/engine"
	"schedulehub/models"
)

// CalendarOutput is the JSON form of the dashboard read model
type CalendarOutput struct {
	engine.Status
	Month          string               `json:"month"` // YYYY-MM
	MonthLabel     string               `json:"month_label"`
	Today          string               `json:"today"`
	Selected       string               `json:"selected"`
	Days           []calendar.Cell      `json:"days"`
	SelectedEvents []models.EventOutput `json:"selected_events"`
	Next           *NextEventOutput     `json:"next_event"`
}

// NextEventOutput is the JSON form of the upcoming event
type NextEventOutput struct {
	Date  string             `json:"date"`
	Event models.EventOutput `json:"event"`
}

// CalendarFromSnapshot converts an engine snapshot for JSON
func CalendarFromSnapshot(s engine.Snapshot) CalendarOutput {
	out := CalendarOutput{
		Status:         s.Status,
		Month:          s.Month.Format(calendar.MonthLayout),
		MonthLabel:     s.MonthLabel,
		Today:          s.Today,
		Selected:       s.Selected,
		Days:           s.Days,
		SelectedEvents: eventOutputs(s.SelectedEvents),
	}
	if s.Next != nil {
		out.Next = &NextEventOutput{Date: s.Next.Date, Event: s.Next.Event.ToOutput()}
	}
	return out
}

func eventOutputs(events []models.Event) []models.EventOutput {
	out := make([]models.EventOutput, len(events))
	for i, e := range events {
		out[i] = e.ToOutput()
	}
	return out
}

// GetCalendar handles GET /api/v1/calendar
// Returns the month grid, the selected day's events, the next event and sync status.
func (h *Handlers) GetCalendar(ctx rweb.Context) error {
	reqCtx, cancel := requestContext()
	defer cancel()

	e, err := h.roomEngine(ctx, reqCtx)
	if e == nil {
		return err
	}
	return writeSuccess(ctx, http.StatusOK, CalendarFromSnapshot(e.Snapshot()))
}

// SetWindow handles PUT /api/v1/calendar/window
//
// Request body, either a month or an explicit range:
//
//	{ "month": "2024-07" }
//	{ "start": "2024-07-01", "end": "2024-07-14" }
//
// A shift moves relative to the current month:
//
//	{ "shift": -1 }
func (h *Handlers) SetWindow(ctx rweb.Context) error {
	var req struct {
		Month string `json:"month"`
		Start string `json:"start"`
		End   string `json:"end"`
		Shift int    `json:"shift"`
	}
	if err := json.Unmarshal(ctx.Request().Body(), &req); err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid JSON body")
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	e, err := h.roomEngine(ctx, reqCtx)
	if e == nil {
		return err
	}

	switch {
	case strings.TrimSpace(req.Month) != "":
		month, perr := calendar.ParseMonth(req.Month)
		if perr != nil {
			return writeError(ctx, http.StatusBadRequest, "month must be YYYY-MM")
		}
		err = e.SetMonth(reqCtx, month)
	case req.Start != "" || req.End != "":
		w, werr := calendar.NewWindow(req.Start, req.End)
		if werr != nil {
			return writeError(ctx, http.StatusBadRequest, werr.Error())
		}
		err = e.SetWindow(reqCtx, w)
	case req.Shift != 0:
		err = e.ShiftMonth(reqCtx, req.Shift)
	default:
		return writeError(ctx, http.StatusBadRequest, "month, start/end or shift is required")
	}
	if err != nil {
		return writeEngineError(ctx, err, "failed to change window")
	}
	return writeSuccess(ctx, http.StatusOK, CalendarFromSnapshot(e.Snapshot()))
}

// SetSelected handles PUT /api/v1/calendar/selected
//
// Request body:
//
//	{ "date": "2024-07-04" }
func (h *Handlers) SetSelected(ctx rweb.Context) error {
	var req struct {
		Date string `json:"date"`
	}
	if err := json.Unmarshal(ctx.Request().Body(), &req); err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid JSON body")
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	e, err := h.roomEngine(ctx, reqCtx)
	if e == nil {
		return err
	}
	if err := e.SetSelectedDate(req.Date); err != nil {
		return writeEngineError(ctx, err, "failed to select date")
	}
	return writeSuccess(ctx, http.StatusOK, CalendarFromSnapshot(e.Snapshot()))
}

// Refresh handles POST /api/v1/calendar/refresh
// Reloads the window from the store; this is the retry after a read error.
func (h *Handlers) Refresh(ctx rweb.Context) error {
	reqCtx, cancel := requestContext()
	defer cancel()

	e, err := h.roomEngine(ctx, reqCtx)
	if e == nil {
		return err
	}
	if err := e.RefreshWindow(reqCtx); err != nil {
		return writeEngineError(ctx, err, "failed to refresh calendar")
	}
	return writeSuccess(ctx, http.StatusOK, CalendarFromSnapshot(e.Snapshot()))
}

// GetDayEvents handles GET /api/v1/days/:date/events
// Returns the day's events ordered by time. Days outside the window are empty.
func (h *Handlers) GetDayEvents(ctx rweb.Context) error {
	key, err := models.NormalizeDateKey(ctx.Request().Param("date"))
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	e, err := h.roomEngine(ctx, reqCtx)
	if e == nil {
		return err
	}
	return writeSuccess(ctx, http.StatusOK, eventOutputs(e.DayEvents(key)))
}

// GetStatus handles GET /api/v1/calendar/status
// Returns the sync state, feed status and pending writes.
func (h *Handlers) GetStatus(ctx rweb.Context) error {
	reqCtx, cancel := requestContext()
	defer cancel()

	e, err := h.roomEngine(ctx, reqCtx)
	if e == nil {
		return err
	}
	return writeSuccess(ctx, http.StatusOK, map[string]interface{}{
		"status":  e.Status(),
		"pending": e.Pending(),
	})
}
