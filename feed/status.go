// Package feed delivers row-level change notifications for a room's events.
// Two backends share one subscription model: an in-process Broker for a
// single server, and RedisFeed for several servers on one database.
package feed

import (
	"context"
	"errors"

	"schedulehub/models"
)

// Status is the connection state of a subscription
type Status string

const (
	StatusConnecting Status = "connecting"
	StatusOpen       Status = "open"
	StatusClosed     Status = "closed"
	StatusError      Status = "error"
)

// Healthy reports whether live updates are flowing
func (s Status) Healthy() bool {
	return s == StatusOpen
}

// ChangeHandler receives one notification
type ChangeHandler func(change models.EventChange)

// StatusHandler receives connection transitions; err is set for StatusError
type StatusHandler func(status Status, err error)

// Subscription is a live registration for one room.
// After Dispose returns no handler of this subscription runs again.
// Dispose must not be called from inside one of its own handlers.
type Subscription interface {
	Dispose()
}

// Feed is implemented by Broker and RedisFeed
type Feed interface {
	Subscribe(ctx context.Context, roomID string, onChange ChangeHandler, onStatus StatusHandler) (Subscription, error)
	Publish(ctx context.Context, change models.EventChange) error
	Close() error
}

var (
	// ErrLagged is reported with StatusError when a slow subscriber had changes dropped
	ErrLagged = errors.New("subscriber fell behind, changes were dropped")

	// ErrFeedClosed is returned by operations on a closed feed
	ErrFeedClosed = errors.New("change feed is closed")
)
