// Package calendar holds the in-memory calendar read model: events grouped by
// day, the month window they were loaded for, and the derived views the
// dashboard renders from them.
package calendar

import (
	"sort"

	"schedulehub/models"
)

// Index maps a YYYY-MM-DD key to the events of that day.
// Within a bucket no two events share an id. Bucket order is insertion
// order; use SortByTime for display order.
// Index is not safe for concurrent use; the engine guards it.
type Index struct {
	buckets map[string][]models.Event
	dateOf  map[string]string // event id -> bucket key
}

// NewIndex returns an empty index
func NewIndex() *Index {
	return &Index{
		buckets: map[string][]models.Event{},
		dateOf:  map[string]string{},
	}
}

// Rebuild replaces the whole contents with events grouped by date.
// If events repeat an id the last occurrence wins.
func (ix *Index) Rebuild(events []models.Event) {
	ix.buckets = make(map[string][]models.Event, len(events))
	ix.dateOf = make(map[string]string, len(events))
	for _, e := range events {
		ix.Upsert(e)
	}
}

// Upsert inserts e into the bucket for e.Date, first removing any event
// with the same id from wherever it currently lives
func (ix *Index) Upsert(e models.Event) {
	if oldKey, ok := ix.dateOf[e.ID]; ok {
		if oldKey == e.Date {
			bucket := ix.buckets[oldKey]
			for i := range bucket {
				if bucket[i].ID == e.ID {
					bucket[i] = e
					return
				}
			}
		}
		ix.removeFrom(oldKey, e.ID)
	}
	ix.buckets[e.Date] = append(ix.buckets[e.Date], e)
	ix.dateOf[e.ID] = e.Date
}

// Remove drops the event with id. Absent ids are ignored.
func (ix *Index) Remove(id string) {
	key, ok := ix.dateOf[id]
	if !ok {
		return
	}
	ix.removeFrom(key, id)
}

func (ix *Index) removeFrom(key, id string) {
	bucket := ix.buckets[key]
	for i := range bucket {
		if bucket[i].ID == id {
			bucket = append(bucket[:i:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(ix.buckets, key)
	} else {
		ix.buckets[key] = bucket
	}
	delete(ix.dateOf, id)
}

// DayEvents returns a copy of the bucket for dateKey, never nil
func (ix *Index) DayEvents(dateKey string) []models.Event {
	bucket := ix.buckets[dateKey]
	out := make([]models.Event, len(bucket))
	copy(out, bucket)
	return out
}

// Get returns the event with id if it is indexed
func (ix *Index) Get(id string) (models.Event, bool) {
	key, ok := ix.dateOf[id]
	if !ok {
		return models.Event{}, false
	}
	for _, e := range ix.buckets[key] {
		if e.ID == id {
			return e, true
		}
	}
	return models.Event{}, false
}

// Count returns the number of events on dateKey
func (ix *Index) Count(dateKey string) int {
	return len(ix.buckets[dateKey])
}

// Len returns the total number of indexed events
func (ix *Index) Len() int {
	return len(ix.dateOf)
}

// Keys returns the non-empty bucket keys in ascending order
func (ix *Index) Keys() []string {
	keys := make([]string, 0, len(ix.buckets))
	for k := range ix.buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// All returns every indexed event ordered by date then time
func (ix *Index) All() []models.Event {
	out := make([]models.Event, 0, ix.Len())
	for _, k := range ix.Keys() {
		out = append(out, SortByTime(ix.buckets[k])...)
	}
	return out
}

// NextUpcoming returns the earliest-time event of the first non-empty day
// at or after fromKey. Keys compare as strings, which for YYYY-MM-DD is
// chronological.
func (ix *Index) NextUpcoming(fromKey string) (string, models.Event, bool) {
	for _, k := range ix.Keys() {
		if k < fromKey {
			continue
		}
		bucket := ix.buckets[k]
		if len(bucket) == 0 {
			continue
		}
		best := bucket[0]
		for _, e := range bucket[1:] {
			if timeLess(e.SortTime(), best.SortTime()) {
				best = e
			}
		}
		return k, best, true
	}
	return "", models.Event{}, false
}

// SortByTime returns a copy of events ordered by TimeKey.
// A missing time sorts first; ties keep their input order.
func SortByTime(events []models.Event) []models.Event {
	out := make([]models.Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return timeLess(out[i].SortTime(), out[j].SortTime())
	})
	return out
}
