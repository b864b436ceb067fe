package feed

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"

	"schedulehub/models"
)

// RedisFeed carries changes over Redis pub/sub, one channel per room
// ("<prefix>:<room id>"). Servers sharing a database each publish their own
// writes and see everyone else's.
type RedisFeed struct {
	client *redis.Client
	prefix string

	mu     sync.Mutex
	subs   map[string]*subscription
	closed bool
}

// Reconnect backoff bounds
const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// NewRedisFeed connects to the Redis server at url (redis://host:port/db)
func NewRedisFeed(ctx context.Context, url, prefix string) (*RedisFeed, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, serr.Wrap(err, "invalid Redis URL")
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, serr.Wrap(err, "failed to connect to Redis")
	}

	logger.Info("Connected to Redis change feed", "addr", opts.Addr, "prefix", prefix)
	return NewRedisFeedWithClient(client, prefix), nil
}

// NewRedisFeedWithClient wraps an existing client
func NewRedisFeedWithClient(client *redis.Client, prefix string) *RedisFeed {
	if prefix == "" {
		prefix = "events"
	}
	return &RedisFeed{
		client: client,
		prefix: prefix,
		subs:   map[string]*subscription{},
	}
}

// Channel names the pub/sub channel of roomID
func (f *RedisFeed) Channel(roomID string) string {
	return f.prefix + ":" + roomID
}

// Publish sends change on its room's channel
func (f *RedisFeed) Publish(ctx context.Context, change models.EventChange) error {
	data, err := EncodeChange(change)
	if err != nil {
		return err
	}
	if err := f.client.Publish(ctx, f.Channel(change.RoomID), data).Err(); err != nil {
		return serr.Wrap(err, "failed to publish change to Redis")
	}
	return nil
}

// Subscribe opens a pub/sub connection for roomID. Status follows the
// connection: open once Redis confirms the subscription, error while it is
// down, open again after go-redis resubscribes.
func (f *RedisFeed) Subscribe(ctx context.Context, roomID string, onChange ChangeHandler, onStatus StatusHandler) (Subscription, error) {
	if roomID == "" {
		return nil, serr.New("room id is required to subscribe")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrFeedClosed
	}

	recvCtx, cancel := context.WithCancel(context.Background())
	pubsub := f.client.Subscribe(recvCtx, f.Channel(roomID))

	sub := newSubscription(roomID, onChange, onStatus, defaultQueueSize)
	sub.release = func() {
		cancel()
		if err := pubsub.Close(); err != nil {
			logger.LogErr(err, "failed to close Redis subscription", "room_id", roomID)
		}
		f.mu.Lock()
		delete(f.subs, sub.id)
		f.mu.Unlock()
	}
	f.subs[sub.id] = sub

	sub.offerStatus(StatusConnecting, nil)
	sub.start()
	go f.receive(recvCtx, pubsub, sub)

	logger.Debug("Redis feed subscription opened", "channel", f.Channel(roomID), "sub_id", sub.id)
	return sub, nil
}

func (f *RedisFeed) receive(ctx context.Context, pubsub *redis.PubSub, sub *subscription) {
	backoff := minBackoff
	for {
		msg, err := pubsub.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || sub.isDone() || f.isClosed() {
				return
			}
			logger.LogErr(err, "Redis feed receive failed", "room_id", sub.roomID)
			sub.offerStatus(StatusError, err)

			select {
			case <-sub.done:
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		switch m := msg.(type) {
		case *redis.Subscription:
			if m.Kind == "subscribe" {
				backoff = minBackoff
				sub.offerStatus(StatusOpen, nil)
			}
		case *redis.Message:
			change, err := DecodeChange([]byte(m.Payload))
			if err != nil {
				logger.LogErr(err, "dropping undecodable change", "channel", m.Channel)
				continue
			}
			if change.RoomID != sub.roomID {
				continue
			}
			sub.offerChange(change)
		case *redis.Pong:
		}
	}
}

func (f *RedisFeed) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Close reports StatusClosed to every subscriber and closes the client
func (f *RedisFeed) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	subs := make([]*subscription, 0, len(f.subs))
	for _, s := range f.subs {
		subs = append(subs, s)
	}
	f.mu.Unlock()

	for _, s := range subs {
		s.offerStatus(StatusClosed, nil)
	}
	return f.client.Close()
}
