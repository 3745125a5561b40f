package negotiation

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// History is one shopper's negotiation list, newest first.
type History struct {
	mu      sync.RWMutex
	records []*Record
	nowFunc func() time.Time
}

func NewHistory() *History {
	return &History{nowFunc: time.Now}
}

// Begin records a pending negotiation for req and returns a copy of it.
func (h *History) Begin(req Request) Record {
	rec := &Record{
		ID:          uuid.NewString(),
		ProductLink: req.ProductLink,
		Status:      StatusPending,
		CreatedAt:   h.nowFunc().UTC(),
	}

	h.mu.Lock()
	h.records = append([]*Record{rec}, h.records...)
	h.mu.Unlock()

	return *rec
}

// Settle moves a pending record to success (err == nil) or error. A record
// settles once; later calls return ErrAlreadySettled.
func (h *History) Settle(id string, res *Result, err error) (Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec := h.find(id)
	if rec == nil {
		return Record{}, ErrRecordNotFound
	}
	if rec.Status != StatusPending {
		return *rec, ErrAlreadySettled
	}

	now := h.nowFunc().UTC()
	rec.SettledAt = &now
	if err != nil {
		rec.Status = StatusError
		rec.Error = err.Error()
	} else {
		rec.Status = StatusSuccess
		rec.Result = res
	}
	return *rec, nil
}

func (h *History) Get(id string) (Record, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if rec := h.find(id); rec != nil {
		return *rec, true
	}
	return Record{}, false
}

// List returns copies of every record, newest first.
func (h *History) List() []Record {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Record, 0, len(h.records))
	for _, rec := range h.records {
		out = append(out, *rec)
	}
	return out
}

// Clear drops every record. Negotiations still in flight settle into nothing.
func (h *History) Clear() {
	h.mu.Lock()
	h.records = nil
	h.mu.Unlock()
}

func (h *History) find(id string) *Record {
	for _, rec := range h.records {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

// Sessions hands every caller session its own History.
type Sessions struct {
	mu        sync.Mutex
	histories map[string]*History
}

func NewSessions() *Sessions {
	return &Sessions{histories: map[string]*History{}}
}

// Get returns the session's history, creating it on first use.
func (s *Sessions) Get(sessionID string) *History {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histories[sessionID]
	if !ok {
		h = NewHistory()
		s.histories[sessionID] = h
	}
	return h
}

// Lookup returns the session's history without creating one.
func (s *Sessions) Lookup(sessionID string) (*History, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histories[sessionID]
	return h, ok
}

// Drop clears and forgets a session's history.
func (s *Sessions) Drop(sessionID string) {
	s.mu.Lock()
	h, ok := s.histories[sessionID]
	delete(s.histories, sessionID)
	s.mu.Unlock()
	if ok {
		h.Clear()
	}
}
