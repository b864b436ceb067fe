package feed

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"schedulehub/models"
)

// Per-subscription queue depth before changes are dropped and ErrLagged is reported
const defaultQueueSize = 64

// delivery is one queued callback
type delivery struct {
	change *models.EventChange
	status Status
	err    error
	final  bool // stop the pump after this one
}

// subscription runs handlers on its own goroutine, in arrival order.
// The liveness flag is checked under mu before every dispatch and mu is held
// while a handler runs, so Dispose waits out an in-flight callback.
type subscription struct {
	id       string
	roomID   string
	onChange ChangeHandler
	onStatus StatusHandler

	mu    sync.Mutex
	alive bool

	queue  chan delivery
	kick   chan struct{}
	lagged atomic.Bool
	done   chan struct{}
	once   sync.Once

	release func() // detaches from the owning feed
}

func newSubscription(roomID string, onChange ChangeHandler, onStatus StatusHandler, queueSize int) *subscription {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &subscription{
		id:       uuid.New().String(),
		roomID:   roomID,
		onChange: onChange,
		onStatus: onStatus,
		alive:    true,
		queue:    make(chan delivery, queueSize),
		kick:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func (s *subscription) start() {
	go s.pump()
}

func (s *subscription) pump() {
	for {
		select {
		case <-s.done:
			return
		case d := <-s.queue:
			s.dispatch(d)
			if d.final {
				return
			}
		case <-s.kick:
			if s.lagged.Swap(false) {
				// Report the gap, then resume; consumers reconcile on the way back to open
				s.dispatch(delivery{status: StatusError, err: ErrLagged})
				s.dispatch(delivery{status: StatusOpen})
			}
		}
	}
}

func (s *subscription) dispatch(d delivery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.alive {
		return
	}
	if d.change != nil {
		if s.onChange != nil {
			s.onChange(*d.change)
		}
		return
	}
	if s.onStatus != nil {
		s.onStatus(d.status, d.err)
	}
}

// offer queues d without blocking; a full queue marks the subscription lagged
func (s *subscription) offer(d delivery) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.queue <- d:
		return true
	default:
		s.lagged.Store(true)
		select {
		case s.kick <- struct{}{}:
		default:
		}
		return false
	}
}

func (s *subscription) offerChange(c models.EventChange) bool {
	if c.Event != nil {
		snap := *c.Event
		c.Event = &snap
	}
	return s.offer(delivery{change: &c})
}

func (s *subscription) offerStatus(status Status, err error) bool {
	return s.offer(delivery{status: status, err: err, final: status == StatusClosed})
}

func (s *subscription) isDone() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Dispose stops delivery. Safe to call more than once.
func (s *subscription) Dispose() {
	s.once.Do(func() {
		s.mu.Lock()
		s.alive = false
		s.mu.Unlock()
		close(s.done)
		if s.release != nil {
			s.release()
		}
	})
}
