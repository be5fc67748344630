// Package reconcile runs a best-effort background sweep that proactively
// imports any backend schema the dispatcher hasn't seen yet. It exists
// purely to shrink the window during which a caller's first LoadSchema
// after an external change pays the write-lock import cost; nothing in
// the dispatcher depends on it running.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"metacat/internal/domain"
)

// CatalogLister is the subset of domain.CatalogRouter the sweeper needs
// to discover what catalogs exist. *catalog.Router satisfies it.
type CatalogLister interface {
	Catalogs() []domain.Ident
	Resolve(ctx context.Context, catalogIdent domain.Ident) (domain.CatalogHandle, error)
}

// Sweeper periodically walks every catalog the router knows about and
// calls LoadSchema for each schema name the backend reports, so that
// externally renamed or newly created schemas get reconciled into the
// entity store without waiting for a caller to trigger it.
type Sweeper struct {
	cron       *cron.Cron
	router     CatalogLister
	dispatcher domain.SchemaDispatcher
	logger     *slog.Logger

	mu      sync.Mutex
	entryID cron.EntryID
	started bool
}

// New builds a Sweeper. It schedules nothing until Start is called.
func New(router CatalogLister, dispatcher domain.SchemaDispatcher, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		cron:       cron.New(),
		router:     router,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Start schedules the sweep at the given cron expression and starts the
// underlying cron scheduler. schedule is a standard 5-field cron expression
// (e.g. "*/5 * * * *" for every five minutes) or a descriptor such as
// "@every 5m". Calling Start twice without an intervening
// Stop replaces the existing schedule.
func (s *Sweeper) Start(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.cron.Remove(s.entryID)
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.sweepOnce(context.Background())
	})
	if err != nil {
		return err
	}
	s.entryID = entryID

	if !s.started {
		s.cron.Start()
		s.started = true
	}
	s.logger.Info("reconciliation sweeper started", "schedule", schedule)
	return nil
}

// Stop gracefully stops the cron scheduler.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.cron.Stop()
	s.started = false
	s.logger.Info("reconciliation sweeper stopped")
}

// sweepOnce walks every registered catalog once. A failure loading one
// schema, or resolving one catalog, is logged and never aborts the rest
// of the sweep.
func (s *Sweeper) sweepOnce(ctx context.Context) {
	for _, catalogIdent := range s.router.Catalogs() {
		handle, err := s.router.Resolve(ctx, catalogIdent)
		if err != nil {
			s.logger.Warn("sweep: catalog resolve failed", "catalog", catalogIdent.String(), "error", err)
			continue
		}

		ns := domain.NewNamespace(catalogIdent.Levels...)
		idents, err := handle.SchemaOps().ListSchemas(ctx, ns)
		if err != nil {
			s.logger.Warn("sweep: list schemas failed", "catalog", catalogIdent.String(), "error", err)
			continue
		}

		for _, ident := range idents {
			if _, err := s.dispatcher.LoadSchema(ctx, ident); err != nil {
				var conflict *domain.MultipleCatalogsManageSchemaError
				var runtime *domain.RuntimeError
				switch {
				case errors.As(err, &conflict):
					s.logger.Warn("sweep: multi-catalog conflict", "ident", ident.String(), "id", conflict.ID)
				case errors.As(err, &runtime):
					s.logger.Warn("sweep: runtime error", "ident", ident.String(), "op", runtime.Op, "cause", runtime.Cause)
				default:
					s.logger.Warn("sweep: load failed", "ident", ident.String(), "error", err)
				}
			}
		}
	}
}
