package tracking

import (
	"sync"
	"time"
)

// Registry owns the live trackers, one per order. A tracker that reaches
// the end of its run is dropped once the retention window has passed.
type Registry struct {
	mu        sync.Mutex
	trackers  map[string]*Tracker
	opts      []Option
	retention time.Duration
}

// NewRegistry applies opts to every tracker it starts.
func NewRegistry(opts ...Option) *Registry {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry{trackers: map[string]*Tracker{}, opts: opts, retention: o.retention}
}

// Start returns the order's tracker, starting one if none exists. created
// reports whether a new tracker was started.
func (r *Registry) Start(orderID string) (t *Tracker, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.trackers[orderID]; ok {
		return t, false
	}
	t = Start(orderID, r.opts...)
	r.trackers[orderID] = t
	go r.expire(orderID, t)
	return t, true
}

func (r *Registry) expire(orderID string, t *Tracker) {
	<-t.Done()
	time.AfterFunc(r.retention, func() { r.forget(orderID, t) })
}

// forget removes orderID only while it still maps to t, so a tracker
// restarted under the same id survives the old one's expiry.
func (r *Registry) forget(orderID string, t *Tracker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.trackers[orderID] == t {
		delete(r.trackers, orderID)
	}
}

func (r *Registry) Get(orderID string) (*Tracker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trackers[orderID]
	return t, ok
}

// Stop tears down and forgets the order's tracker. It reports whether one
// existed.
func (r *Registry) Stop(orderID string) bool {
	r.mu.Lock()
	t, ok := r.trackers[orderID]
	delete(r.trackers, orderID)
	r.mu.Unlock()

	if ok {
		t.Stop()
	}
	return ok
}

// StopAll stops every tracker; used on shutdown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	all := r.trackers
	r.trackers = map[string]*Tracker{}
	r.mu.Unlock()

	for _, t := range all {
		t.Stop()
	}
}

// Len reports how many trackers are registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trackers)
}
