package engine

import (
	"errors"

	"schedulehub/calendar"
)

var (
	// ErrSuperseded is returned to a window load whose result was discarded
	// because a newer load, a refresh or a rebind started after it
	ErrSuperseded = errors.New("superseded by a newer request")

	// ErrUnbound is returned by operations that need a room
	ErrUnbound = errors.New("engine is not bound to a room")

	// ErrClosed is returned after Close
	ErrClosed = errors.New("engine is closed")
)

// ValidationError rejects an intent before anything is sent to the store
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// WriteError means the store rejected a create, update or delete.
// The index was not touched.
type WriteError struct {
	Op  IntentKind
	Err error
}

func (e *WriteError) Error() string {
	return "write failed (" + string(e.Op) + "): " + e.Err.Error()
}

func (e *WriteError) Unwrap() error { return e.Err }

// ReadError means a window query failed. The previous index is kept;
// RefreshWindow retries.
type ReadError struct {
	Window calendar.Window
	Err    error
}

func (e *ReadError) Error() string {
	return "read failed for " + e.Window.Start + ".." + e.Window.End + ": " + e.Err.Error()
}

func (e *ReadError) Unwrap() error { return e.Err }

// FeedError means the change feed is unavailable; reads and writes still work
type FeedError struct {
	Err error
}

func (e *FeedError) Error() string {
	if e.Err == nil {
		return "change feed error"
	}
	return "change feed error: " + e.Err.Error()
}

func (e *FeedError) Unwrap() error { return e.Err }
