package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Filter selects stored leads by creation time. Zero values leave that bound open.
type Filter struct {
	Since time.Time
	Until time.Time
	Limit int
}

func (f Filter) matches(l *StoredLead) bool {
	if !f.Since.IsZero() && l.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !l.CreatedAt.Before(f.Until) {
		return false
	}
	return true
}

// Store is the external record store consumed by the pipeline and by read-only
// reporting endpoints.
type Store interface {
	Insert(ctx context.Context, lead *StoredLead) (string, error)
	Query(ctx context.Context, filter Filter) ([]*StoredLead, error)
}

// MemoryStore keeps leads in process memory. It is used in tests and when
// USE_MEMORY_STORE is set.
type MemoryStore struct {
	mu    sync.RWMutex
	leads map[string]*StoredLead
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		leads: make(map[string]*StoredLead),
	}
}

// Insert stores a copy of lead and returns its id.
func (s *MemoryStore) Insert(ctx context.Context, lead *StoredLead) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	stored := *lead
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}

	s.mu.Lock()
	s.leads[stored.ID] = &stored
	s.mu.Unlock()

	return stored.ID, nil
}

// Query returns matching leads, newest first.
func (s *MemoryStore) Query(ctx context.Context, filter Filter) ([]*StoredLead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]*StoredLead, 0, len(s.leads))
	for _, l := range s.leads {
		if filter.matches(l) {
			cp := *l
			out = append(out, &cp)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Len reports how many leads are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.leads)
}
