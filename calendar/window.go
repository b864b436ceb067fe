package calendar

import (
	"time"

	"github.com/rohanthewiz/serr"

	"schedulehub/models"
)

// MonthLayout is the YYYY-MM form used to name a month
const MonthLayout = "2006-01"

// Window is an inclusive range of date keys
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// NewWindow validates and normalizes both bounds
func NewWindow(start, end string) (Window, error) {
	s, err := models.NormalizeDateKey(start)
	if err != nil {
		return Window{}, serr.Wrap(err, "invalid window start")
	}
	e, err := models.NormalizeDateKey(end)
	if err != nil {
		return Window{}, serr.Wrap(err, "invalid window end")
	}
	if e < s {
		return Window{}, serr.New("window end " + e + " is before start " + s)
	}
	return Window{Start: s, End: e}, nil
}

// Contains reports whether dateKey lies inside the window
func (w Window) Contains(dateKey string) bool {
	return w.Start != "" && dateKey >= w.Start && dateKey <= w.End
}

// IsZero reports whether no window has been set
func (w Window) IsZero() bool {
	return w.Start == "" && w.End == ""
}

// Month returns the first day of the month the window starts in
func (w Window) Month() time.Time {
	t, err := time.Parse(models.DateKeyLayout, w.Start)
	if err != nil {
		return time.Time{}
	}
	return FirstOfMonth(t)
}

// FirstOfMonth returns midnight of the first day of t's month, in UTC.
// Calendar days carry no zone; only the wall date of t matters.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthWindow spans the first through last day of t's month
func MonthWindow(t time.Time) Window {
	first := FirstOfMonth(t)
	last := first.AddDate(0, 1, -1)
	return Window{Start: Key(first), End: Key(last)}
}

// AddMonths moves t by n months, landing on the first of the month so that
// Jan 31 + 1 does not skip February
func AddMonths(t time.Time, n int) time.Time {
	return FirstOfMonth(t).AddDate(0, n, 0)
}

// ParseMonth parses YYYY-MM
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return time.Time{}, serr.Wrap(err, "invalid month, expected YYYY-MM")
	}
	return t, nil
}

// MonthLabel returns e.g. "June 2024"
func MonthLabel(t time.Time) string {
	return t.Format("January 2006")
}

// Key formats t's wall date as YYYY-MM-DD
func Key(t time.Time) string {
	return t.Format(models.DateKeyLayout)
}

// TodayKey is today's key in the local zone
func TodayKey() string {
	return Key(time.Now())
}
