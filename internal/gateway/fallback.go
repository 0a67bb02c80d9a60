package gateway

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"perp-trader/internal/domain"
	"perp-trader/internal/provider"
)

type fetchFunc[T any] func(ctx context.Context, a provider.Adapter) (T, error)

// fetchFirst walks order and returns the first validated result. Skipped
// providers (breaker open or capability unsupported) leave no trace; every
// other failure is recorded against the provider's breaker key.
func fetchFirst[T any](ctx context.Context, g *Gateway, capability domain.Capability, order []domain.ProviderID, fetch fetchFunc[T], validate func(T) error) (T, domain.ProviderID, error) {
	if g.cfg.Mode == ModeRace {
		return raceFirst(ctx, g, capability, order, fetch, validate)
	}

	var zero T
	var errs []error
	for _, id := range g.candidates(capability, order) {
		adapter := g.adapters[id]
		key := BreakerKey(id, capability)

		v, err := fetch(ctx, adapter)
		if err == nil {
			err = validate(v)
		}
		if err == nil {
			g.breaker.RecordSuccess(key)
			g.logger.Info("provider succeeded", zap.String("provider", string(id)), zap.String("capability", string(capability)))
			return v, id, nil
		}
		if provider.IsUnsupported(err) {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, "", ctxErr
		}

		errs = append(errs, err)
		if g.recordFailure(key, id, capability, err) {
			if serr := g.sleep(ctx, g.cfg.Backoff); serr != nil {
				return zero, "", serr
			}
		}
	}
	return zero, "", noData(capability, errs)
}

// candidates returns the providers in order that exist and whose breaker
// currently admits a call.
func (g *Gateway) candidates(capability domain.Capability, order []domain.ProviderID) []domain.ProviderID {
	out := make([]domain.ProviderID, 0, len(order))
	for _, id := range order {
		if _, ok := g.adapters[id]; !ok {
			continue
		}
		if !g.breaker.IsAvailable(BreakerKey(id, capability)) {
			g.logger.Debug("provider skipped by circuit breaker",
				zap.String("provider", string(id)), zap.String("capability", string(capability)))
			continue
		}
		out = append(out, id)
	}
	return out
}

// recordFailure updates the breaker and reports whether the failure was
// transient, in which case the caller backs off.
func (g *Gateway) recordFailure(key string, id domain.ProviderID, capability domain.Capability, err error) bool {
	fields := []zap.Field{zap.String("provider", string(id)), zap.String("capability", string(capability)), zap.Error(err)}
	if provider.IsGeoRestricted(err) {
		g.breaker.RecordGeoRestriction(key)
		g.logger.Warn("provider geo-restricted", fields...)
		return false
	}
	g.breaker.RecordFailure(key)
	g.logger.Warn("provider failed", fields...)
	return true
}

func noData(capability domain.Capability, errs []error) error {
	if len(errs) == 0 {
		return fmt.Errorf("%w: no %s provider available", ErrNoData, capability)
	}
	return fmt.Errorf("%w: %s: %w", ErrNoData, capability, errors.Join(errs...))
}

type raceResult[T any] struct {
	id  domain.ProviderID
	v   T
	err error
}

// raceFirst queries every candidate at once. The first validated result wins
// and cancels the rest; attempts cut short by that cancellation are not
// counted as failures.
func raceFirst[T any](ctx context.Context, g *Gateway, capability domain.Capability, order []domain.ProviderID, fetch fetchFunc[T], validate func(T) error) (T, domain.ProviderID, error) {
	var zero T
	ids := g.candidates(capability, order)
	if len(ids) == 0 {
		return zero, "", noData(capability, nil)
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan raceResult[T], len(ids))
	for _, id := range ids {
		go func(id domain.ProviderID) {
			v, err := fetch(raceCtx, g.adapters[id])
			if err == nil {
				err = validate(v)
			}
			results <- raceResult[T]{id: id, v: v, err: err}
		}(id)
	}

	var errs []error
	for range ids {
		r := <-results
		key := BreakerKey(r.id, capability)
		if r.err == nil {
			cancel()
			g.breaker.RecordSuccess(key)
			g.logger.Info("provider won race", zap.String("provider", string(r.id)), zap.String("capability", string(capability)))
			return r.v, r.id, nil
		}
		if provider.IsUnsupported(r.err) {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, "", ctxErr
		}
		errs = append(errs, r.err)
		g.recordFailure(key, r.id, capability, r.err)
	}
	return zero, "", noData(capability, errs)
}
