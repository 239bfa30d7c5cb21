package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/redbuttegarden/memberships/pkg/logger"
	"github.com/redbuttegarden/memberships/pkg/metrics"
)

// InMemoryStore is a Store backed by a slice swapped atomically on Replace.
type InMemoryStore struct {
	mu     sync.RWMutex
	levels []CatalogLevel // ordered by id
	byID   map[int]int    // id -> index in levels
	active int

	logger logger.Logger
}

// NewInMemoryStore creates an empty catalog.
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{byID: make(map[int]int)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns a copy of the catalog.
func (s *InMemoryStore) List(_ context.Context) []CatalogLevel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CatalogLevel, len(s.levels))
	copy(out, s.levels)
	return out
}

// Get returns a single level by id.
func (s *InMemoryStore) Get(_ context.Context, id int) (CatalogLevel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return CatalogLevel{}, fmt.Errorf("level %d: %w", id, ErrNotFound)
	}
	return s.levels[i], nil
}

// Replace validates and installs a new catalog.
func (s *InMemoryStore) Replace(ctx context.Context, levels []CatalogLevel) error {
	if err := Validate(levels); err != nil {
		return err
	}

	next := make([]CatalogLevel, len(levels))
	copy(next, levels)
	sort.Slice(next, func(i, j int) bool { return next[i].ID < next[j].ID })

	byID := make(map[int]int, len(next))
	active := 0
	for i, l := range next {
		byID[l.ID] = i
		if l.Active {
			active++
		}
	}

	s.mu.Lock()
	s.levels, s.byID, s.active = next, byID, active
	s.mu.Unlock()

	metrics.UpdateCatalogLevels(len(next), active)
	if s.logger != nil {
		s.logger.Info(ctx, "membership catalog replaced",
			logger.Int("levels", len(next)),
			logger.Int("active", active),
		)
	}
	return nil
}

// Count returns the total and active level counts.
func (s *InMemoryStore) Count(_ context.Context) (total, active int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.levels), s.active
}
