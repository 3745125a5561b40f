package tracking

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/imrishuroy/bargainbot/internal/logging"
)

const (
	// DefaultInterval between two milestones.
	DefaultInterval = 5 * time.Second
	// DefaultRetention a registry keeps a finished tracker readable.
	DefaultRetention = time.Minute
)

// subscriberBuffer holds the current state plus every remaining advance, so
// the driver never blocks on a slow reader.
const subscriberBuffer = LastIndex + 1

// Ticker is the part of time.Ticker the driver needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }

// State is a snapshot of a tracker.
type State struct {
	OrderID     string `json:"orderId"`
	Index       int    `json:"index"`
	Milestone   string `json:"milestone"`
	Description string `json:"description"`
	Completed   []bool `json:"completed"`
	Delivered   bool   `json:"delivered"`
}

type options struct {
	interval  time.Duration
	newTicker func(time.Duration) Ticker
	log       *zap.Logger
	retention time.Duration
}

func defaultOptions() options {
	return options{
		interval:  DefaultInterval,
		newTicker: newTimeTicker,
		log:       zap.NewNop(),
		retention: DefaultRetention,
	}
}

type Option func(*options)

func WithInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithTicker replaces the wall-clock ticker, mostly for tests.
func WithTicker(fn func(time.Duration) Ticker) Option {
	return func(o *options) { o.newTicker = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = logging.OrNop(l) }
}

// WithRetention sets how long a Registry keeps a finished tracker around
// for late readers. Trackers started without a Registry ignore it.
func WithRetention(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.retention = d
		}
	}
}

// Tracker walks one order through the milestones, one step per tick. The
// index only moves forward and only the driver goroutine moves it.
type Tracker struct {
	orderID string
	log     *zap.Logger

	mu     sync.Mutex
	index  int
	subs   map[int]chan State
	nextID int
	closed bool

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Start begins tracking orderID at "Order Placed".
func Start(orderID string, opts ...Option) *Tracker {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	t := &Tracker{
		orderID: orderID,
		log:     o.log,
		subs:    map[int]chan State{},
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go t.run(o.newTicker(o.interval))
	return t
}

func (t *Tracker) OrderID() string { return t.orderID }

func (t *Tracker) run(tk Ticker) {
	defer close(t.done)
	defer tk.Stop()

	for {
		select {
		case <-t.stop:
			t.closeSubscribers()
			return
		case <-tk.C():
			if !t.advance() {
				t.log.Debug("tracker finished", zap.String("order_id", t.orderID))
				return
			}
		}
	}
}

// advance moves one milestone forward and reports whether the driver should
// keep running.
func (t *Tracker) advance() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.index >= LastIndex {
		return false
	}
	t.index++
	st := t.snapshotLocked()
	for _, ch := range t.subs {
		select {
		case ch <- st:
		default:
		}
	}
	t.log.Info("delivery milestone reached",
		zap.String("order_id", t.orderID),
		zap.String("milestone", st.Milestone))

	if st.Delivered {
		t.closeSubscribersLocked()
	}
	return true
}

// State returns the current snapshot.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() State {
	completed := make([]bool, len(milestones))
	for i := 0; i < t.index; i++ {
		completed[i] = true
	}
	m := milestones[t.index]
	return State{
		OrderID:     t.orderID,
		Index:       t.index,
		Milestone:   m.Name,
		Description: m.Description,
		Completed:   completed,
		Delivered:   t.index == LastIndex,
	}
}

// Subscribe streams the current state followed by every advance. The channel
// is closed once the order is delivered or the tracker is stopped; the
// returned func unsubscribes early.
func (t *Tracker) Subscribe() (<-chan State, func()) {
	ch := make(chan State, subscriberBuffer)

	t.mu.Lock()
	defer t.mu.Unlock()

	ch <- t.snapshotLocked()
	if t.closed {
		close(ch)
		return ch, func() {}
	}

	id := t.nextID
	t.nextID++
	t.subs[id] = ch

	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if c, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(c)
		}
	}
}

// Done is closed when the driver has exited.
func (t *Tracker) Done() <-chan struct{} { return t.done }

// Stop halts the driver and waits for it to exit. Safe to call more than
// once and after delivery.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
	<-t.done
	t.closeSubscribers()
}

func (t *Tracker) closeSubscribers() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeSubscribersLocked()
}

func (t *Tracker) closeSubscribersLocked() {
	for id, ch := range t.subs {
		close(ch)
		delete(t.subs, id)
	}
	t.closed = true
}
