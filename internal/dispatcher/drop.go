package dispatcher

import (
	"context"
	"errors"

	"metacat/internal/domain"
	"metacat/internal/lock"
)

// DropSchema implements dropSchema. The store's outcome never affects the
// return value: a missing store row is logged and swallowed, any other
// store failure is raised as a Runtime error, but in both cases the
// backend's own boolean result is what the caller sees.
func (d *Dispatcher) DropSchema(ctx context.Context, ident domain.Ident, cascade bool) (bool, error) {
	catalogIdent := ident.CatalogIdent()
	handle, err := d.router.Resolve(ctx, catalogIdent)
	if err != nil {
		return false, err
	}

	release, err := d.locks.AcquireIdent(ctx, catalogIdent, lock.Write)
	if err != nil {
		return false, err
	}
	defer release()

	dropped, err := handle.SchemaOps().DropSchema(ctx, ident, cascade)
	if err != nil {
		return false, err
	}

	if handle.Capability().Scope(domain.ScopeSchema).Managed {
		return dropped, nil
	}

	if err := d.store.Delete(ctx, ident); err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			d.logger.Warn("schema absent from store on drop",
				"op", "dropSchema", "ident", ident.String(), "phase", "store-delete")
			return dropped, nil
		}
		return dropped, domain.ErrRuntime("dropSchema", ident.String(), err)
	}

	return dropped, nil
}
