package dispatcher

import (
	"context"
	"time"

	"metacat/internal/domain"
	"metacat/internal/identity"
	"metacat/internal/lock"
	"metacat/internal/view"
)

// AlterSchema implements alterSchema. Rename is never supported: it is
// rejected before any backend or store call, per spec.
func (d *Dispatcher) AlterSchema(ctx context.Context, ident domain.Ident, changes ...domain.SchemaChange) (domain.CombinedSchema, error) {
	for _, ch := range changes {
		if ch.Kind == domain.RenameSchema {
			return domain.CombinedSchema{}, domain.ErrIllegalArgument("schema rename is not supported")
		}
	}

	catalogIdent := ident.CatalogIdent()
	handle, err := d.router.Resolve(ctx, catalogIdent)
	if err != nil {
		return domain.CombinedSchema{}, err
	}

	if err := handle.PropertiesMeta().ValidateForAlter(changes); err != nil {
		return domain.CombinedSchema{}, err
	}

	// Note: this locks the schema path only, not the catalog path, even
	// though a property change could in principle have side effects the
	// catalog cares about. Left as-is; see the dispatcher's design notes.
	release, err := d.locks.AcquireIdent(ctx, ident, lock.Write)
	if err != nil {
		return domain.CombinedSchema{}, err
	}
	defer release()

	backendSchema, err := handle.SchemaOps().AlterSchema(ctx, ident, changes...)
	if err != nil {
		return domain.CombinedSchema{}, err
	}
	hidden := handle.PropertiesMeta().HiddenPropertyNames(backendSchema.Properties)

	if handle.Capability().Scope(domain.ScopeSchema).Managed {
		return view.Build(backendSchema, nil, hidden, true), nil
	}

	var id uint64
	if tag, ok := identity.Extract(backendSchema.Properties); ok {
		id = tag
	} else {
		entity, err := d.store.Get(ctx, ident)
		if err != nil {
			return domain.CombinedSchema{}, domain.ErrRuntime("alterSchema", ident.String(), err)
		}
		if entity == nil {
			return view.Build(backendSchema, nil, hidden, false), nil
		}
		id = entity.ID
	}

	updated, err := d.store.Update(ctx, id, func(e domain.SchemaEntity) domain.SchemaEntity {
		now := time.Now().UTC()
		modifier := domain.CurrentPrincipalName(ctx)
		e.Audit.LastModifier = &modifier
		e.Audit.LastModifiedTime = &now
		return e
	})
	if err != nil {
		// The backend already succeeded; per the dual-write policy we must
		// not lie about that by failing the call. The store row keeps its
		// previous audit fields and the returned view carries no entity.
		d.logger.Warn("store update failed after backend alter succeeded",
			"op", "alterSchema", "ident", ident.String(), "phase", "store-update", "cause", err)
		return view.Build(backendSchema, nil, hidden, true), nil
	}

	return view.Build(backendSchema, &updated, hidden, true), nil
}
