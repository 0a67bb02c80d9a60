package breaker

import (
	"sort"
	"sync"
	"time"

	"perp-trader/internal/domain"
)

const (
	DefaultThreshold   = 3
	DefaultCooldown    = 300 * time.Second
	DefaultGeoCooldown = time.Hour

	// GeoFailureCount is the failure count stored for geo-restricted
	// providers so they stay above any threshold until the geo cooldown ends.
	GeoFailureCount = 999
)

type record struct {
	failures    int
	lastFailure time.Time
	kind        domain.FailureKind
}

// Registry tracks consecutive failures per provider key. Keys are free-form;
// the gateway uses "provider:capability".
type Registry struct {
	mu          sync.Mutex
	threshold   int
	cooldown    time.Duration
	geoCooldown time.Duration
	records     map[string]*record
	now         func() time.Time
}

type Option func(*Registry)

func WithThreshold(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.threshold = n
		}
	}
}

func WithCooldown(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.cooldown = d
		}
	}
}

func WithGeoCooldown(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.geoCooldown = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		threshold:   DefaultThreshold,
		cooldown:    DefaultCooldown,
		geoCooldown: DefaultGeoCooldown,
		records:     make(map[string]*record),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsAvailable reports whether key may be tried. A record whose cooldown has
// elapsed is cleared here.
func (r *Registry) IsAvailable(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[key]
	if !ok {
		return true
	}
	if r.now().Sub(rec.lastFailure) > r.cooldownFor(rec) {
		delete(r.records, key)
		return true
	}
	return rec.failures < r.threshold
}

func (r *Registry) RecordSuccess(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, key)
}

func (r *Registry) RecordFailure(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[key]
	if !ok {
		rec = &record{kind: domain.FailureTransient}
		r.records[key] = rec
	}
	if rec.kind != domain.FailureGeoRestricted {
		rec.failures++
	}
	rec.lastFailure = r.now()
}

func (r *Registry) RecordGeoRestriction(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[key] = &record{
		failures:    GeoFailureCount,
		lastFailure: r.now(),
		kind:        domain.FailureGeoRestricted,
	}
}

// Snapshot returns the current health of every tracked key, sorted by key.
// It does not clear expired records.
func (r *Registry) Snapshot() []domain.ProviderHealth {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	out := make([]domain.ProviderHealth, 0, len(r.records))
	for key, rec := range r.records {
		out = append(out, domain.ProviderHealth{
			Key:         key,
			Failures:    rec.failures,
			LastFailure: rec.lastFailure,
			Kind:        rec.kind,
			Available:   rec.failures < r.threshold || now.Sub(rec.lastFailure) > r.cooldownFor(rec),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (r *Registry) cooldownFor(rec *record) time.Duration {
	if rec.kind == domain.FailureGeoRestricted {
		return r.geoCooldown
	}
	return r.cooldown
}
