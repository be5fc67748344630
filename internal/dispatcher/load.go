package dispatcher

import (
	"context"
	"time"

	"metacat/internal/domain"
	"metacat/internal/identity"
	"metacat/internal/lock"
	"metacat/internal/view"
)

// LoadSchema implements loadSchema's two-phase protocol: a READ-locked
// internalLoad, and, only if that didn't find a reconciled store row, a
// WRITE-locked import on the catalog path. The caller always sees the
// combined view internalLoad computed first; import only fixes up the
// store for subsequent calls.
func (d *Dispatcher) LoadSchema(ctx context.Context, ident domain.Ident) (domain.CombinedSchema, error) {
	release, err := d.locks.AcquireIdent(ctx, ident, lock.Read)
	if err != nil {
		return domain.CombinedSchema{}, err
	}
	combined, _, err := d.internalLoad(ctx, ident)
	release()
	if err != nil {
		return domain.CombinedSchema{}, err
	}
	if combined.Imported {
		return combined, nil
	}

	catalogRelease, err := d.locks.AcquireIdent(ctx, ident.CatalogIdent(), lock.Write)
	if err != nil {
		return domain.CombinedSchema{}, err
	}
	defer catalogRelease()

	if err := d.importSchema(ctx, ident); err != nil {
		return domain.CombinedSchema{}, err
	}
	return combined, nil
}

// internalLoad resolves and loads from the backend, then reconciles
// against the store without writing to it. It also returns the raw entity
// it found (if any) so importSchema can reuse it without a second lookup.
func (d *Dispatcher) internalLoad(ctx context.Context, ident domain.Ident) (domain.CombinedSchema, *domain.SchemaEntity, error) {
	catalogIdent := ident.CatalogIdent()
	handle, err := d.router.Resolve(ctx, catalogIdent)
	if err != nil {
		return domain.CombinedSchema{}, nil, err
	}

	backendSchema, err := handle.SchemaOps().LoadSchema(ctx, ident)
	if err != nil {
		return domain.CombinedSchema{}, nil, err
	}
	hidden := handle.PropertiesMeta().HiddenPropertyNames(backendSchema.Properties)

	if handle.Capability().Scope(domain.ScopeSchema).Managed {
		return view.Build(backendSchema, nil, hidden, true), nil, nil
	}

	tag, hasTag := identity.Extract(backendSchema.Properties)
	if !hasTag {
		entity, err := d.store.Get(ctx, ident)
		if err != nil {
			return domain.CombinedSchema{}, nil, domain.ErrRuntime("loadSchema", ident.String(), err)
		}
		if entity == nil {
			return view.Build(backendSchema, nil, hidden, false), nil, nil
		}
		return view.Build(backendSchema, entity, hidden, true), entity, nil
	}

	entity, err := d.store.GetByID(ctx, tag)
	if err != nil {
		return domain.CombinedSchema{}, nil, domain.ErrRuntime("loadSchema", ident.String(), err)
	}
	if entity == nil {
		return view.Build(backendSchema, nil, hidden, false), nil, nil
	}
	if entity.FullName() != ident.String() {
		// The tag round-tripped but the name didn't: the backend was
		// renamed behind the dispatcher's back. The row is stale until
		// importSchema corrects it.
		return view.Build(backendSchema, entity, hidden, false), entity, nil
	}
	return view.Build(backendSchema, entity, hidden, true), entity, nil
}

// importSchema (re-)establishes a store row consistent with what the
// backend currently holds. It is always called with the catalog's WRITE
// lock held.
func (d *Dispatcher) importSchema(ctx context.Context, ident domain.Ident) error {
	combined, entity, err := d.internalLoad(ctx, ident)
	if err != nil {
		return err
	}
	if combined.Imported {
		return nil
	}

	var uid uint64
	if tag, ok := identity.Extract(combined.Backend.Properties); ok {
		uid = tag
	} else {
		uid = d.idGen.Next()
	}

	if entity != nil && entity.Namespace.CatalogIdent().String() != ident.CatalogIdent().String() {
		return &domain.MultipleCatalogsManageSchemaError{Ident: ident.String(), ID: uid}
	}

	audit := domain.AuditInfo{Creator: domain.CurrentPrincipalName(ctx), CreateTime: time.Now().UTC()}
	if entity != nil {
		audit = entity.Audit
	}

	newEntity := domain.SchemaEntity{
		ID:        uid,
		Name:      ident.Name(),
		Namespace: ident.Namespace(),
		Audit:     audit,
	}

	if entity != nil {
		// Same catalog, stale name: this is a rename, not a conflict.
		// Update moves the row atomically instead of leaving a duplicate
		// behind under the old name.
		if _, err := d.store.Update(ctx, uid, func(domain.SchemaEntity) domain.SchemaEntity { return newEntity }); err != nil {
			return domain.ErrRuntime("import", ident.String(), err)
		}
		d.logger.Warn("reconciled store entity renamed externally",
			"op", "import", "ident", ident.String(), "id", uid)
		return nil
	}

	if err := d.store.Put(ctx, newEntity, true); err != nil {
		return domain.ErrRuntime("import", ident.String(), err)
	}
	return nil
}
