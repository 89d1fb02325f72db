// Package dependency holds the directed scaling constraints between
// services and guarantees the stored set always forms a DAG.
package dependency

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/scalemesh/coordinator/internal/logger"
	"github.com/scalemesh/coordinator/pkg/models"
)

// Repository persists dependency edges across restarts.
type Repository interface {
	Save(ctx context.Context, d *models.ScalingDependency) error
	Delete(ctx context.Context, source, target string) error
	LoadAll(ctx context.Context) ([]*models.ScalingDependency, error)
}

type edgeKey struct {
	source string
	target string
}

type Store struct {
	mu    sync.RWMutex
	edges map[edgeKey]*models.ScalingDependency
	repo  Repository
}

func NewStore(repo Repository) *Store {
	return &Store{
		edges: make(map[edgeKey]*models.ScalingDependency),
		repo:  repo,
	}
}

func (s *Store) Restore(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	edges, err := s.repo.LoadAll(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range edges {
		s.edges[edgeKey{d.Source, d.Target}] = d
	}

	logger.Infof("Restored %d scaling dependencies", len(edges))
	return nil
}

// Upsert validates the edge and rejects it before any mutation when the
// parameters are inconsistent, the edge is a self-loop, or adding it would
// close a cycle. The cycle check runs a topological sort over the stored
// graph with the candidate edge included.
func (s *Store) Upsert(ctx context.Context, d *models.ScalingDependency) error {
	if err := d.Validate(); err != nil {
		return err
	}

	stored := *d
	stored.LastUpdated = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkAcyclicLocked(&stored); err != nil {
		return err
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, &stored); err != nil {
			return err
		}
	}

	s.edges[edgeKey{stored.Source, stored.Target}] = &stored
	return nil
}

func (s *Store) checkAcyclicLocked(candidate *models.ScalingDependency) error {
	g := &Graph{
		nodes: make(map[string]struct{}),
		out:   make(map[string][]string),
	}
	for k := range s.edges {
		if k.source == candidate.Source && k.target == candidate.Target {
			continue // replaced by the candidate
		}
		g.AddEdge(k.source, k.target)
	}
	g.AddEdge(candidate.Source, candidate.Target)

	if _, unordered := g.TopologicalOrder(); len(unordered) > 0 {
		return &models.CycleError{Path: g.FindCycle()}
	}
	return nil
}

func (s *Store) Get(source, target string) (*models.ScalingDependency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.edges[edgeKey{source, target}]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

// ListAll returns every stored edge ordered by (source, target). The result
// is a copy and doubles as the coordinator's per-tick snapshot.
func (s *Store) ListAll() []*models.ScalingDependency {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ScalingDependency, 0, len(s.edges))
	for _, d := range s.edges {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Target < out[j].Target
	})
	return out
}

func (s *Store) Delete(ctx context.Context, source, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := edgeKey{source, target}
	if _, ok := s.edges[k]; !ok {
		return models.ErrNotFound
	}

	if s.repo != nil {
		if err := s.repo.Delete(ctx, source, target); err != nil {
			return err
		}
	}

	delete(s.edges, k)
	return nil
}

// SetEnabled toggles an edge without re-running cycle checks: acyclicity is
// enforced over all stored edges, enabled or not.
func (s *Store) SetEnabled(ctx context.Context, source, target string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.edges[edgeKey{source, target}]
	if !ok {
		return models.ErrNotFound
	}

	updated := *d
	updated.Enabled = enabled
	updated.LastUpdated = time.Now().UTC()

	if s.repo != nil {
		if err := s.repo.Save(ctx, &updated); err != nil {
			return err
		}
	}

	s.edges[edgeKey{source, target}] = &updated
	return nil
}
