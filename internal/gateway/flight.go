package gateway

import (
	"context"
	"errors"
)

// flight is one shared fetch. It runs on its own context, which is cancelled
// once the last caller waiting on it has left.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func (g *Gateway) join(ctx context.Context, key string) *flight {
	g.flightMu.Lock()
	defer g.flightMu.Unlock()
	f, ok := g.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		g.flights[key] = f
	}
	f.waiters++
	return f
}

func (g *Gateway) leave(key string, f *flight) {
	g.flightMu.Lock()
	defer g.flightMu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if g.flights[key] == f {
		delete(g.flights, key)
	}
}

// shared collapses concurrent fetches for key into one call. Each caller
// stops waiting when its own ctx ends; the others keep the fetch alive.
func shared[T any](ctx context.Context, g *Gateway, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	f := g.join(ctx, key)
	defer g.leave(key, f)

	// A caller can land on a fetch abandoned by its own waiters just before
	// it wound down; one retry starts a fresh call on this caller's flight.
	for attempt := 0; attempt < 2; attempt++ {
		ch := g.group.DoChan(key, func() (any, error) {
			return fetch(f.ctx)
		})
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(T), nil
			}
			if errors.Is(res.Err, context.Canceled) && ctx.Err() == nil && f.ctx.Err() == nil {
				continue
			}
			return zero, res.Err
		}
	}
	return zero, context.Canceled
}
