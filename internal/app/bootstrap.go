// Package app wires the dispatcher and its supporting infrastructure from
// config: one Deps struct for what main() must supply, one New that
// assembles everything else.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"metacat/internal/authz"
	"metacat/internal/catalog"
	"metacat/internal/catalog/memcatalog"
	"metacat/internal/catalog/sqlcatalog"
	"metacat/internal/config"
	"metacat/internal/dispatcher"
	"metacat/internal/domain"
	"metacat/internal/idgen"
	"metacat/internal/lock"
	"metacat/internal/reconcile"
	"metacat/internal/service"
	"metacat/internal/store"
)

// Deps holds what main() must provide: config, an already-migrated SQLite
// write/read pair, and a logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// App holds the fully-wired dispatcher stack: the service layer httpapi
// and cmd/dispatcherctl actually call, plus the background pieces main()
// needs to start and stop.
type App struct {
	Schema  *service.SchemaService
	Audit   *service.AuditService
	Router  *catalog.Router
	Locks   *lock.TreeLock
	Sweeper *reconcile.Sweeper
}

// New wires the entity store, catalog router (with the two reference
// backends registered under lake.mem / lake.pg), dispatcher, schema
// service, and reconciliation sweeper.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	entityStore := store.NewSQLStore(deps.WriteDB, deps.ReadDB)
	auditRepo := store.NewAuditStore(deps.WriteDB, deps.ReadDB)

	router := catalog.New(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	router.Register(domain.NewIdent("lake", "mem"), memcatalog.NewHandle(memcatalog.New()))

	sqlBackend := sqlcatalog.New(deps.WriteDB)
	if err := sqlcatalog.EnsureSchema(ctx, deps.WriteDB); err != nil {
		return nil, fmt.Errorf("ensure sqlcatalog schema: %w", err)
	}
	router.Register(domain.NewIdent("lake", "pg"), sqlcatalog.NewHandle(sqlBackend))

	if err := router.AttachAll(ctx); err != nil {
		return nil, fmt.Errorf("attach catalogs: %w", err)
	}

	locks := lock.New()
	idGen := idgen.New()
	dsp := dispatcher.New(router, entityStore, locks, idGen, logger)

	schemaSvc := service.NewSchemaService(dsp, authz.AllowAll{}, auditRepo, logger)
	auditSvc := service.NewAuditService(auditRepo)

	var sweeper *reconcile.Sweeper
	if cfg.ReconcileInterval > 0 {
		sweeper = reconcile.New(router, dsp, logger)
		schedule := fmt.Sprintf("@every %s", cfg.ReconcileInterval)
		if err := sweeper.Start(schedule); err != nil {
			return nil, fmt.Errorf("start reconciliation sweeper: %w", err)
		}
	}

	return &App{Schema: schemaSvc, Audit: auditSvc, Router: router, Locks: locks, Sweeper: sweeper}, nil
}

// Close stops the background sweeper, if running.
func (a *App) Close() {
	if a.Sweeper != nil {
		a.Sweeper.Stop()
	}
}

