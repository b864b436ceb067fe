package feed

import (
	"context"
	"sync"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"

	"schedulehub/models"
)

// Broker is the in-process change feed: the event store publishes into it
// and every subscriber of the same room gets a copy.
type Broker struct {
	mu        sync.RWMutex
	rooms     map[string]map[string]*subscription
	closed    bool
	queueSize int
}

// NewBroker returns an open broker
func NewBroker() *Broker {
	return &Broker{
		rooms:     map[string]map[string]*subscription{},
		queueSize: defaultQueueSize,
	}
}

// SetQueueSize changes the per-subscriber buffer for subscriptions made afterwards
func (b *Broker) SetQueueSize(n int) {
	b.mu.Lock()
	b.queueSize = n
	b.mu.Unlock()
}

// Subscribe registers handlers for roomID's changes
func (b *Broker) Subscribe(_ context.Context, roomID string, onChange ChangeHandler, onStatus StatusHandler) (Subscription, error) {
	if roomID == "" {
		return nil, serr.New("room id is required to subscribe")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrFeedClosed
	}

	sub := newSubscription(roomID, onChange, onStatus, b.queueSize)
	sub.release = func() { b.remove(sub) }

	if b.rooms[roomID] == nil {
		b.rooms[roomID] = map[string]*subscription{}
	}
	b.rooms[roomID][sub.id] = sub

	sub.offerStatus(StatusConnecting, nil)
	sub.offerStatus(StatusOpen, nil)
	sub.start()

	logger.Debug("Feed subscription opened", "room_id", roomID, "sub_id", sub.id)
	return sub, nil
}

func (b *Broker) remove(sub *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs := b.rooms[sub.roomID]; subs != nil {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(b.rooms, sub.roomID)
		}
	}
	logger.Debug("Feed subscription disposed", "room_id", sub.roomID, "sub_id", sub.id)
}

// Publish fans change out to the room's subscribers without blocking on them
func (b *Broker) Publish(_ context.Context, change models.EventChange) error {
	if !change.Kind.Valid() {
		return serr.New("invalid change kind: " + string(change.Kind))
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrFeedClosed
	}

	for _, sub := range b.rooms[change.RoomID] {
		if !sub.offerChange(change) {
			logger.Debug("Feed subscriber lagging, change dropped",
				"room_id", change.RoomID, "sub_id", sub.id, "event_id", change.ID())
		}
	}
	return nil
}

// SubscriberCount reports the live subscriptions of roomID
func (b *Broker) SubscriberCount(roomID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rooms[roomID])
}

// Close reports StatusClosed to every subscriber and refuses further use
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.rooms {
		for _, sub := range subs {
			sub.offerStatus(StatusClosed, nil)
		}
	}
	b.rooms = map[string]map[string]*subscription{}
	return nil
}
