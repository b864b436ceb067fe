package api

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"github.com/rohanthewiz/serr"

	"schedulehub/engine"
	"schedulehub/models"
)

const icsProductID = "-//schedulehub//household calendar//EN"

// icsTimePrefix marks the description line carrying an event's time text
const icsTimePrefix = "Time: "

// BuildICS renders events as all-day VEVENTs. Time and notes go into the
// description since an event's time is free text; ParseICS reads them back.
func BuildICS(events []models.Event, stamp time.Time) (string, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(icsProductID)

	for _, e := range events {
		day, err := time.Parse(time.DateOnly, e.Date)
		if err != nil {
			return "", serr.Wrap(err, "event has an invalid date")
		}

		ve := cal.AddEvent(e.ID)
		ve.SetDtStampTime(stamp)
		ve.SetCreatedTime(e.CreatedAt)
		ve.SetModifiedAt(e.UpdatedAt)
		ve.SetAllDayStartAt(day)
		ve.SetAllDayEndAt(day.AddDate(0, 0, 1))
		ve.SetSummary(e.Title)

		var desc []string
		if e.Time.Valid {
			desc = append(desc, icsTimePrefix+e.Time.String)
		}
		if e.Notes.Valid {
			desc = append(desc, e.Notes.String)
		}
		if len(desc) > 0 {
			ve.SetDescription(strings.Join(desc, "\n"))
		}
	}
	return cal.Serialize(), nil
}

// ParseICS turns the VEVENTs of an ICS payload into event inputs.
// Timed events keep their wall-clock start as the time text; all-day
// events take it from a leading "Time: " description line. Events without
// a summary or a start are skipped.
func ParseICS(body []byte) ([]models.EventInput, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, serr.New("empty ICS body")
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, serr.Wrap(err, "failed to parse ICS")
	}

	var out []models.EventInput
	for _, ve := range cal.Events() {
		summary := ve.GetProperty(ical.ComponentPropertySummary)
		if summary == nil || strings.TrimSpace(summary.Value) == "" {
			continue
		}
		dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
		if dtStart == nil {
			continue
		}

		var desc string
		if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
			desc = p.Value
		}
		tm, notes := splitDescription(desc)

		in := models.EventInput{Title: summary.Value}
		if !strings.Contains(dtStart.Value, "T") {
			start, err := ve.GetAllDayStartAt()
			if err != nil {
				logger.Debug("Skipping VEVENT with bad all-day start", "value", dtStart.Value)
				continue
			}
			in.Date = start.Format(time.DateOnly)
			if tm != "" {
				in.Time = &tm
			}
		} else {
			start, err := ve.GetStartAt()
			if err != nil {
				logger.Debug("Skipping VEVENT with bad start", "value", dtStart.Value)
				continue
			}
			in.Date = start.Format(time.DateOnly)
			t := start.Format("3:04 PM")
			in.Time = &t
		}
		if notes != "" {
			in.Notes = &notes
		}
		out = append(out, in)
	}
	return out, nil
}

// splitDescription separates the time line written by BuildICS from the notes
func splitDescription(desc string) (tm, notes string) {
	desc = strings.TrimSpace(strings.ReplaceAll(desc, "\r\n", "\n"))
	first, rest, _ := strings.Cut(desc, "\n")
	if !strings.HasPrefix(first, icsTimePrefix) {
		return "", desc
	}
	return strings.TrimSpace(strings.TrimPrefix(first, icsTimePrefix)), strings.TrimSpace(rest)
}

// ExportICS handles GET /api/v1/calendar.ics
// Exports the events of the room's current window.
func (h *Handlers) ExportICS(ctx rweb.Context) error {
	reqCtx, cancel := requestContext()
	defer cancel()

	e, err := h.roomEngine(ctx, reqCtx)
	if e == nil {
		return err
	}

	body, err := BuildICS(e.Events(), time.Now().UTC())
	if err != nil {
		logger.LogErr(err, "failed to build ICS export")
		return writeError(ctx, http.StatusInternalServerError, "failed to export calendar")
	}

	ctx.Response().SetHeader("Content-Type", "text/calendar; charset=utf-8")
	ctx.Response().SetHeader("Content-Disposition", `attachment; filename="schedule.ics"`)
	return ctx.Bytes([]byte(body))
}

// ImportICS handles POST /api/v1/calendar.ics
// Creates one event per VEVENT in the uploaded calendar. Events that fail
// validation are counted as skipped; a store failure stops the import.
func (h *Handlers) ImportICS(ctx rweb.Context) error {
	inputs, err := ParseICS(ctx.Request().Body())
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	e, err := h.roomEngine(ctx, reqCtx)
	if e == nil {
		return err
	}

	imported, skipped := 0, 0
	for _, in := range inputs {
		_, err := e.Mutate(reqCtx, engine.Intent{
			Kind:  engine.IntentCreate,
			Date:  in.Date,
			Time:  in.Time,
			Title: in.Title,
			Notes: in.Notes,
		})
		if err != nil {
			var verr *engine.ValidationError
			if errors.As(err, &verr) {
				skipped++
				continue
			}
			return writeEngineError(ctx, err, "failed to import calendar")
		}
		imported++
	}

	logger.Info("ICS imported", "room_id", CurrentRoomID(ctx), "imported", imported, "skipped", skipped)
	return writeSuccess(ctx, http.StatusOK, map[string]int{"imported": imported, "skipped": skipped})
}
