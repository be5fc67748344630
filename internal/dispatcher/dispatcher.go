// Package dispatcher implements the schema operation dispatcher: the
// coordination core that routes schema mutations to catalog backends,
// reconciles backend state with the internal entity store, and serializes
// concurrent operations on a name path through the hierarchical lock.
//
// The dispatcher never talks to a backend or the entity store without
// holding the matching lock first, and backend success is always
// authoritative: after a successful backend create or alter, a store
// hiccup degrades the returned view instead of failing the call. After a
// successful backend drop, a missing store row is only logged, while any
// other store failure is returned as a Runtime error alongside the
// backend's own result.
package dispatcher

import (
	"context"
	"log/slog"
	"time"

	"metacat/internal/domain"
	"metacat/internal/identity"
	"metacat/internal/lock"
	"metacat/internal/view"
)

// Dispatcher implements domain.SchemaDispatcher.
type Dispatcher struct {
	router domain.CatalogRouter
	store  domain.EntityStore
	locks  *lock.TreeLock
	idGen  domain.IDGenerator
	logger *slog.Logger
}

// New wires a Dispatcher from its four collaborators: the catalog router,
// the entity store, the hierarchical lock, and the id generator.
func New(router domain.CatalogRouter, store domain.EntityStore, locks *lock.TreeLock, idGen domain.IDGenerator, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{router: router, store: store, locks: locks, idGen: idGen, logger: logger}
}

var _ domain.SchemaDispatcher = (*Dispatcher)(nil)

// ListSchemas implements listSchemas: read-lock the catalog path, resolve,
// delegate.
func (d *Dispatcher) ListSchemas(ctx context.Context, ns domain.Namespace) ([]domain.Ident, error) {
	release, err := d.locks.Acquire(ctx, ns.Levels, lock.Read)
	if err != nil {
		return nil, err
	}
	defer release()

	handle, err := d.router.Resolve(ctx, ns.CatalogIdent())
	if err != nil {
		return nil, err
	}
	return handle.SchemaOps().ListSchemas(ctx, ns)
}

// CreateSchema implements createSchema. Identity allocation and property
// validation happen before the write lock is taken, since neither touches
// shared mutable state; only the backend/store calls that follow need the
// catalog's WRITE lock held.
func (d *Dispatcher) CreateSchema(ctx context.Context, ident domain.Ident, comment string, properties map[string]string) (domain.CombinedSchema, error) {
	catalogIdent := ident.CatalogIdent()

	handle, err := d.router.Resolve(ctx, catalogIdent)
	if err != nil {
		return domain.CombinedSchema{}, err
	}

	if err := handle.PropertiesMeta().ValidateForCreate(properties); err != nil {
		return domain.CombinedSchema{}, err
	}

	uid := d.idGen.Next()
	propsWithTag := identity.InjectInto(properties, uid)

	release, err := d.locks.AcquireIdent(ctx, catalogIdent, lock.Write)
	if err != nil {
		return domain.CombinedSchema{}, err
	}
	defer release()

	backendSchema, err := handle.SchemaOps().CreateSchema(ctx, ident, comment, propsWithTag)
	if err != nil {
		return domain.CombinedSchema{}, err
	}
	hidden := handle.PropertiesMeta().HiddenPropertyNames(backendSchema.Properties)

	if handle.Capability().Scope(domain.ScopeSchema).Managed {
		return view.Build(backendSchema, nil, hidden, true), nil
	}

	entity := domain.SchemaEntity{
		ID:        uid,
		Name:      ident.Name(),
		Namespace: ident.Namespace(),
		Audit: domain.AuditInfo{
			Creator:    domain.CurrentPrincipalName(ctx),
			CreateTime: time.Now().UTC(),
		},
	}

	if err := d.store.Put(ctx, entity, true); err != nil {
		// The backend already succeeded; per the dual-write policy we must
		// not lie about that by failing the call. The next load's import
		// pass reconciles this once the store recovers.
		d.logger.Warn("store put failed after backend create succeeded",
			"op", "createSchema", "ident", ident.String(), "phase", "store-put", "cause", err)
		return view.Build(backendSchema, nil, hidden, false), nil
	}

	return view.Build(backendSchema, &entity, hidden, true), nil
}
