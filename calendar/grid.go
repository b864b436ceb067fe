package calendar

import (
	"time"
)

// GridCells is the fixed size of a month grid: six Sunday-first weeks
const GridCells = 42

// Cell is one day of the month grid
type Cell struct {
	Date           time.Time `json:"-"`
	Key            string    `json:"date"`
	Day            int       `json:"day"`
	InCurrentMonth bool      `json:"in_current_month"`
	EventCount     int       `json:"event_count"`
}

// Grid lays out the month containing t as 42 cells starting on the Sunday
// on or before the 1st. Counts come from ix when non-nil.
func Grid(t time.Time, ix *Index) []Cell {
	first := FirstOfMonth(t)
	start := first.AddDate(0, 0, -int(first.Weekday()))

	cells := make([]Cell, GridCells)
	for i := range cells {
		d := start.AddDate(0, 0, i)
		key := Key(d)
		c := Cell{
			Date:           d,
			Key:            key,
			Day:            d.Day(),
			InCurrentMonth: d.Month() == first.Month(),
		}
		if ix != nil {
			c.EventCount = ix.Count(key)
		}
		cells[i] = c
	}
	return cells
}
