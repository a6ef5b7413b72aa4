package travel

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"crewtime/internal/metrics"
)

const (
	// DefaultConcurrency bounds provider calls in flight per Resolve.
	DefaultConcurrency = 5
	// DefaultCallTimeout bounds a single provider call.
	DefaultCallTimeout = 5 * time.Second
	// DefaultRetryUnresolvedAfter is how long an unresolved entry is served
	// as the default before the provider is asked again.
	DefaultRetryUnresolvedAfter = 5 * time.Minute
	// SharedCallTimeout bounds a single shared-tier read or write.
	SharedCallTimeout = 250 * time.Millisecond
)

// SharedStore is an optional second cache tier shared between processes.
// Implementations swallow their own errors.
type SharedStore interface {
	Get(ctx context.Context, k Key) (int, bool)
	Set(ctx context.Context, k Key, minutes int)
	Clear(ctx context.Context) error
}

// Resolver resolves travel legs through the cache, the optional shared tier,
// and finally the provider. It never fails: anything it cannot resolve comes
// back as DefaultTravelDurationMinutes.
type Resolver struct {
	cache       *Cache
	provider    Provider
	shared      SharedStore
	concurrency int
	timeout     time.Duration
	retryAfter  time.Duration
	logger      zerolog.Logger
}

type Option func(*Resolver)

func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func WithCallTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRetryUnresolvedAfter sets how long an unresolved entry is trusted.
// Zero keeps unresolved entries until the cache is cleared.
func WithRetryUnresolvedAfter(d time.Duration) Option {
	return func(r *Resolver) { r.retryAfter = d }
}

func WithSharedStore(s SharedStore) Option {
	return func(r *Resolver) { r.shared = s }
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Resolver) { r.logger = l.With().Str("component", "travel_resolver").Logger() }
}

func NewResolver(cache *Cache, provider Provider, opts ...Option) *Resolver {
	r := &Resolver{
		cache:       cache,
		provider:    provider,
		concurrency: DefaultConcurrency,
		timeout:     DefaultCallTimeout,
		retryAfter:  DefaultRetryUnresolvedAfter,
		logger:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Cache returns the local cache the resolver writes into.
func (r *Resolver) Cache() *Cache { return r.cache }

// Clear drops the local cache and, when configured, the shared tier.
func (r *Resolver) Clear(ctx context.Context) error {
	r.cache.Clear()
	if r.shared != nil {
		return r.shared.Clear(ctx)
	}
	return nil
}

// Resolve returns minutes for every pair key. Cached entries are served
// without a provider call; the rest are resolved concurrently, at most
// r.concurrency at a time, in any completion order.
func (r *Resolver) Resolve(ctx context.Context, pairs []Pair) map[Key]int {
	out := make(map[Key]int, len(pairs))
	var pending []Pair
	seen := make(map[Key]struct{}, len(pairs))
	for _, p := range pairs {
		if _, dup := seen[p.Key]; dup {
			continue
		}
		seen[p.Key] = struct{}{}
		if minutes, ok := r.cached(p.Key); ok {
			out[p.Key] = minutes
			continue
		}
		pending = append(pending, p)
	}
	if len(pending) == 0 {
		return out
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, p := range pending {
		p := p
		g.Go(func() error {
			minutes := r.resolveOne(ctx, p)
			mu.Lock()
			out[p.Key] = minutes
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// cached answers from the local cache. Unresolved entries still inside the
// retry window count as hits and yield the default.
func (r *Resolver) cached(k Key) (int, bool) {
	minutes, resolved, found := r.cache.Get(k)
	switch {
	case found && resolved:
		metrics.TravelCacheLookups.WithLabelValues("local", "hit").Inc()
		return minutes, true
	case found:
		if at, ok := r.cache.unresolvedSince(k); ok && (r.retryAfter == 0 || r.cache.now().Sub(at) < r.retryAfter) {
			metrics.TravelCacheLookups.WithLabelValues("local", "hit").Inc()
			return DefaultTravelDurationMinutes, true
		}
	}
	metrics.TravelCacheLookups.WithLabelValues("local", "miss").Inc()
	return 0, false
}

func (r *Resolver) resolveOne(ctx context.Context, p Pair) int {
	if blank(p.Origin) || blank(p.Destination) {
		metrics.TravelProviderCalls.WithLabelValues("skipped").Inc()
		r.cache.SetUnresolved(p.Key)
		return DefaultTravelDurationMinutes
	}
	if r.shared != nil {
		if minutes, ok := r.sharedGet(ctx, p.Key); ok {
			metrics.TravelCacheLookups.WithLabelValues("shared", "hit").Inc()
			r.cache.Set(p.Key, minutes)
			return minutes
		}
		metrics.TravelCacheLookups.WithLabelValues("shared", "miss").Inc()
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	start := time.Now()
	minutes, ok := r.provider.TravelMinutes(callCtx, p.Origin, p.Destination)
	metrics.TravelProviderLatency.Observe(float64(time.Since(start).Milliseconds()))
	if !ok || minutes < 0 {
		metrics.TravelProviderCalls.WithLabelValues("unresolved").Inc()
		// A cancelled caller says nothing about the leg itself.
		if ctx.Err() == nil {
			r.cache.SetUnresolved(p.Key)
		}
		r.logger.Debug().Str("key", string(p.Key)).Err(callCtx.Err()).Msg("travel leg unresolved")
		return DefaultTravelDurationMinutes
	}
	metrics.TravelProviderCalls.WithLabelValues("resolved").Inc()
	r.cache.Set(p.Key, minutes)
	if r.shared != nil {
		r.sharedSet(ctx, p.Key, minutes)
	}
	return minutes
}

// Shared-tier calls run detached from the caller's cancellation under their
// own short deadline, so a dropped request neither skips the write nor
// reaches Redis as a cancellation.
func (r *Resolver) sharedGet(ctx context.Context, k Key) (int, bool) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), SharedCallTimeout)
	defer cancel()
	return r.shared.Get(sctx, k)
}

func (r *Resolver) sharedSet(ctx context.Context, k Key, minutes int) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), SharedCallTimeout)
	defer cancel()
	r.shared.Set(sctx, k, minutes)
}
