package resilience

import "sync"

// BreakerGroup lazily creates one circuit breaker per key, all sharing the
// same configuration. The key becomes the breaker's name.
type BreakerGroup struct {
	cfg      CircuitBreakerConfig
	breakers map[string]*CircuitBreaker
	mu       sync.Mutex
}

func NewBreakerGroup(cfg CircuitBreakerConfig) *BreakerGroup {
	return &BreakerGroup{
		cfg:      cfg,
		breakers: make(map[string]*CircuitBreaker),
	}
}

func (g *BreakerGroup) For(key string) *CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	cb, ok := g.breakers[key]
	if !ok {
		cfg := g.cfg
		cfg.Name = key
		cb = NewCircuitBreaker(cfg)
		g.breakers[key] = cb
	}
	return cb
}

// States returns the current state of every breaker in the group.
func (g *BreakerGroup) States() map[string]State {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(map[string]State, len(g.breakers))
	for k, cb := range g.breakers {
		out[k] = cb.State()
	}
	return out
}
