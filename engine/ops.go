package engine

import (
	"schedulehub/models"
)

// op is one change to the index, kept so it can be replayed over a
// window load that was issued before it
type op struct {
	upsert *models.Event
	remove string
}

// applyOpLocked applies o within the current window. An upsert whose date
// left the window removes the event instead, so nothing outside the window
// is ever indexed.
func (e *Engine) applyOpLocked(o op) {
	if o.upsert == nil {
		e.index.Remove(o.remove)
		return
	}
	if e.window.Contains(o.upsert.Date) {
		e.index.Upsert(*o.upsert)
		return
	}
	e.index.Remove(o.upsert.ID)
}

// recordLocked applies o now and, while a load is in flight, keeps it for replay
func (e *Engine) recordLocked(o op) {
	e.applyOpLocked(o)
	if e.state == StateLoading {
		e.replay = append(e.replay, o)
	}
}
