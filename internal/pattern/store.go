// Package pattern holds the service load patterns the prediction engine
// reads every coordinator tick. The store is the sole writer of
// ServiceLoadPattern state; the API layer only relays validated mutations.
package pattern

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/scalemesh/coordinator/internal/logger"
	"github.com/scalemesh/coordinator/pkg/models"
)

// Repository persists patterns across restarts. The store works without
// one; all reads are served from memory either way.
type Repository interface {
	Save(ctx context.Context, p *models.ServiceLoadPattern) error
	Delete(ctx context.Context, service string) error
	LoadAll(ctx context.Context) ([]*models.ServiceLoadPattern, error)
}

type Store struct {
	mu       sync.RWMutex
	patterns map[string]*models.ServiceLoadPattern
	repo     Repository
}

func NewStore(repo Repository) *Store {
	return &Store{
		patterns: make(map[string]*models.ServiceLoadPattern),
		repo:     repo,
	}
}

// Restore loads persisted patterns into memory. Called once at startup,
// before the coordinator loop starts.
func (s *Store) Restore(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	patterns, err := s.repo.LoadAll(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range patterns {
		s.patterns[p.Service] = p
	}

	logger.Infof("Restored %d load patterns", len(patterns))
	return nil
}

// Upsert validates and replaces the pattern for its service. The write is
// atomic: a failed validation mutates nothing, and readers never observe a
// partially written pattern.
func (s *Store) Upsert(ctx context.Context, p *models.ServiceLoadPattern) error {
	if err := p.Validate(); err != nil {
		return err
	}

	stored := p.Clone()
	stored.LastUpdated = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.Save(ctx, stored); err != nil {
			return err
		}
	}

	s.patterns[stored.Service] = stored
	return nil
}

func (s *Store) Get(service string) (*models.ServiceLoadPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.patterns[service]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p.Clone(), nil
}

// List returns all patterns ordered by service name. The result is a deep
// copy and doubles as the coordinator's per-tick snapshot.
func (s *Store) List() []*models.ServiceLoadPattern {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ServiceLoadPattern, 0, len(s.patterns))
	for _, p := range s.patterns {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Service < out[j].Service })
	return out
}

func (s *Store) Delete(ctx context.Context, service string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.patterns[service]; !ok {
		return models.ErrNotFound
	}

	if s.repo != nil {
		if err := s.repo.Delete(ctx, service); err != nil {
			return err
		}
	}

	delete(s.patterns, service)
	return nil
}
