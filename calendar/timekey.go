package calendar

import (
	"strings"
	"time"
)

// Times are free text. Values that read as a clock time ("9:00 AM", "2pm",
// "14:30") are compared by their 24-hour "HH:MM" form so that 9 AM sorts
// before 2 PM; anything else compares as the raw text. Empty sorts first.
var clockLayouts = []string{"3:04PM", "3PM", "15:04", "15.04", "3.04PM"}

// TimeKey returns the ordering key for a free-text time
func TimeKey(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	compact := strings.NewReplacer(" ", "", "A.M.", "AM", "P.M.", "PM").Replace(strings.ToUpper(s))
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, compact); err == nil {
			return t.Format("15:04")
		}
	}
	return s
}

// timeLess orders two free-text times
func timeLess(a, b string) bool {
	return TimeKey(a) < TimeKey(b)
}
