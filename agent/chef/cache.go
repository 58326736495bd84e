package chef

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"voicechef/agent/contract"
)

// BuildFunc constructs the chef for one restaurant phone number. The
// provider calls it on a cache miss or after expiry.
type BuildFunc func(ctx context.Context, restaurantPhone string) (contract.Chef, error)

const defaultCacheTTL = 15 * time.Minute

type cacheEntry struct {
	chef    contract.Chef
	builtAt time.Time
}

// Provider hands out chefs keyed by restaurant phone number. Entries
// expire after the TTL so menu and prompt changes reach live calls
// without a restart, and Invalidate forces an immediate rebuild.
type Provider struct {
	build BuildFunc
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type ProviderOption func(*Provider)

func WithTTL(ttl time.Duration) ProviderOption {
	return func(p *Provider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

func NewProvider(build BuildFunc, opts ...ProviderOption) *Provider {
	p := &Provider{
		build:   build,
		ttl:     defaultCacheTTL,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ contract.ChefProvider = (*Provider)(nil)

func (p *Provider) Get(ctx context.Context, restaurantPhone string) (contract.Chef, error) {
	p.mu.Lock()
	entry, ok := p.entries[restaurantPhone]
	if ok && p.now().Sub(entry.builtAt) < p.ttl {
		p.mu.Unlock()
		return entry.chef, nil
	}
	p.mu.Unlock()

	// Build outside the lock; graph compilation is not cheap. Two
	// concurrent misses may both build, last write wins.
	built, err := p.build(ctx, restaurantPhone)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.entries[restaurantPhone] = cacheEntry{chef: built, builtAt: p.now()}
	p.mu.Unlock()

	log.Debug().Str("restaurant_phone", restaurantPhone).Msg("chef built")
	return built, nil
}

// Invalidate drops the cached chef for one restaurant.
func (p *Provider) Invalidate(restaurantPhone string) {
	p.mu.Lock()
	delete(p.entries, restaurantPhone)
	p.mu.Unlock()
}
