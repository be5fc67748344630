// Package catalog implements the dispatcher's domain.CatalogRouter: a
// registry of catalog handles keyed by catalog identifier, plus the
// startup routine that warms them all up concurrently.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"metacat/internal/domain"
)

// Attachable is implemented by backends that need to establish a
// connection or otherwise prepare themselves before serving traffic.
// Backends that don't need this (memcatalog) simply don't implement it.
type Attachable interface {
	Attach(ctx context.Context) error
}

// Router resolves catalog identifiers to handles and rate-limits calls
// into each one. It implements domain.CatalogRouter.
type Router struct {
	mu       sync.RWMutex
	handles  map[string]domain.CatalogHandle
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
	logger   *slog.Logger
}

// New returns an empty Router. rps/burst configure the per-catalog token
// bucket guarding calls into Resolve's returned handles; both must be
// positive or no limiter is installed and calls pass straight through.
func New(rps float64, burst int, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		handles:  make(map[string]domain.CatalogHandle),
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
		logger:   logger,
	}
}

// Register adds or replaces the handle for a catalog identifier (e.g.
// "lake.mem"). Not safe to call concurrently with Resolve for the same
// key beyond what the internal mutex already serializes; typically only
// called during startup wiring.
func (r *Router) Register(catalogIdent domain.Ident, handle domain.CatalogHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := catalogIdent.String()
	r.handles[key] = handle
	if r.rps > 0 && r.burst > 0 {
		r.limiters[key] = rate.NewLimiter(rate.Limit(r.rps), r.burst)
	}
}

// Resolve implements domain.CatalogRouter. It rate-limits on the calling
// goroutine before returning the handle, so every backend call the
// dispatcher subsequently makes is throttled uniformly.
func (r *Router) Resolve(ctx context.Context, catalogIdent domain.Ident) (domain.CatalogHandle, error) {
	key := catalogIdent.String()

	r.mu.RLock()
	handle, ok := r.handles[key]
	limiter := r.limiters[key]
	r.mu.RUnlock()

	if !ok {
		return nil, &domain.NoSuchCatalogError{Ident: key}
	}
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait for catalog %q: %w", key, err)
		}
	}
	return handle, nil
}

// Catalogs returns the identifiers of every registered catalog, for
// callers (the reconciliation sweeper) that need to walk all of them
// rather than resolve one by name.
func (r *Router) Catalogs() []domain.Ident {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idents := make([]domain.Ident, 0, len(r.handles))
	for key := range r.handles {
		idents = append(idents, domain.ParseIdent(key))
	}
	return idents
}

// AttachAll warms up every registered Attachable handle concurrently,
// bounded to 8 in flight at once. A single backend's attach failure is
// logged and does not prevent the others from starting.
func (r *Router) AttachAll(ctx context.Context) error {
	r.mu.RLock()
	handles := make(map[string]domain.CatalogHandle, len(r.handles))
	for k, v := range r.handles {
		handles[k] = v
	}
	r.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for name, handle := range handles {
		attachable, ok := handle.(Attachable)
		if !ok {
			continue
		}
		name, attachable := name, attachable
		g.Go(func() error {
			if err := attachable.Attach(gctx); err != nil {
				r.logger.Warn("catalog attach failed", "catalog", name, "error", err)
				return nil
			}
			r.logger.Info("catalog attached", "catalog", name)
			return nil
		})
	}

	return g.Wait()
}
