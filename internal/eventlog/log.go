// Package eventlog is the append-only record of scaling actions. Each
// service keeps a bounded window of recent events, oldest evicted first.
package eventlog

import (
	"context"
	"sort"
	"sync"

	"github.com/scalemesh/coordinator/internal/logger"
	"github.com/scalemesh/coordinator/pkg/models"
)

const defaultMaxPerService = 100

// Repository archives events durably. Eviction only applies to the
// in-memory window; the archive keeps everything it was given.
type Repository interface {
	Insert(ctx context.Context, e *models.ScalingEvent) error
	UpdateOutcome(ctx context.Context, id string, before, after float64) error
	LoadRecent(ctx context.Context, perService int) ([]*models.ScalingEvent, error)
}

type Log struct {
	mu            sync.RWMutex
	events        map[string][]*models.ScalingEvent
	maxPerService int
	repo          Repository
}

func NewLog(maxPerService int, repo Repository) *Log {
	if maxPerService <= 0 {
		maxPerService = defaultMaxPerService
	}
	return &Log{
		events:        make(map[string][]*models.ScalingEvent),
		maxPerService: maxPerService,
		repo:          repo,
	}
}

func (l *Log) Restore(ctx context.Context) error {
	if l.repo == nil {
		return nil
	}

	events, err := l.repo.LoadRecent(ctx, l.maxPerService)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range events {
		l.appendLocked(e)
	}

	logger.Infof("Restored %d scaling events", len(events))
	return nil
}

// Append records an event, evicting the oldest one for the service once
// the retention window is full.
func (l *Log) Append(ctx context.Context, e *models.ScalingEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.repo != nil {
		if err := l.repo.Insert(ctx, e); err != nil {
			// The in-memory window stays authoritative for the loop;
			// a failed archive write must not lose the event.
			logger.Errorf("Failed to archive scaling event: %v", err)
		}
	}

	l.appendLocked(e.Clone())
	return nil
}

func (l *Log) appendLocked(e *models.ScalingEvent) {
	window := append(l.events[e.Service], e)
	if len(window) > l.maxPerService {
		window = window[len(window)-l.maxPerService:]
	}
	l.events[e.Service] = window
}

// RecordOutcome backfills the observed load samples of the identified
// event once outcome data arrives.
func (l *Log) RecordOutcome(ctx context.Context, eventID string, before, after float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, window := range l.events {
		for _, e := range window {
			if e.ID != eventID {
				continue
			}
			b, a := before, after
			e.ObservedLoadBefore = &b
			e.ObservedLoadAfter = &a

			if l.repo != nil {
				if err := l.repo.UpdateOutcome(ctx, eventID, before, after); err != nil {
					logger.Errorf("Failed to archive event outcome: %v", err)
				}
			}
			return nil
		}
	}
	return models.ErrNotFound
}

// RecordLatestOutcome backfills the most recent event of a service that
// has no outcome yet. Used by collaborators that report per-service rather
// than per-event samples.
func (l *Log) RecordLatestOutcome(ctx context.Context, service string, before, after float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	window := l.events[service]
	for i := len(window) - 1; i >= 0; i-- {
		e := window[i]
		if e.HasOutcome() {
			continue
		}
		b, a := before, after
		e.ObservedLoadBefore = &b
		e.ObservedLoadAfter = &a

		if l.repo != nil {
			if err := l.repo.UpdateOutcome(ctx, e.ID, before, after); err != nil {
				logger.Errorf("Failed to archive event outcome: %v", err)
			}
		}
		return nil
	}
	return models.ErrNotFound
}

// Recent returns up to limit events for one service, newest first.
func (l *Log) Recent(service string, limit int) []*models.ScalingEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	window := l.events[service]
	if limit <= 0 || limit > len(window) {
		limit = len(window)
	}

	out := make([]*models.ScalingEvent, 0, limit)
	for i := len(window) - 1; i >= len(window)-limit; i-- {
		out = append(out, window[i].Clone())
	}
	return out
}

// RecentAll returns up to limit events across all services, newest first.
func (l *Log) RecentAll(limit int) []*models.ScalingEvent {
	l.mu.RLock()

	var out []*models.ScalingEvent
	for _, window := range l.events {
		for _, e := range window {
			out = append(out, e.Clone())
		}
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// Services returns every service with at least one retained event.
func (l *Log) Services() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]string, 0, len(l.events))
	for s := range l.events {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
