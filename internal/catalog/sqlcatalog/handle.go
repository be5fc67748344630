package sqlcatalog

import (
	"context"

	"metacat/internal/domain"
)

// PropertiesMeta rejects the reserved identity tag key when a caller tries
// to set it directly (it is injected by the dispatcher, never by a
// caller) and declares no hidden keys. Other keys sharing its prefix are
// accepted.
type PropertiesMeta struct{}

func (PropertiesMeta) ValidateForCreate(properties map[string]string) error {
	if _, ok := properties[domain.IdentityTagKey]; ok {
		return domain.ErrIllegalArgument("property %q is reserved", domain.IdentityTagKey)
	}
	return nil
}

func (PropertiesMeta) ValidateForAlter(changes []domain.SchemaChange) error {
	for _, ch := range changes {
		if ch.Kind == domain.SetProperty && ch.Property == domain.IdentityTagKey {
			return domain.ErrIllegalArgument("property %q is reserved", domain.IdentityTagKey)
		}
	}
	return nil
}

func (PropertiesMeta) HiddenPropertyNames(map[string]string) map[string]struct{} {
	return nil
}

// Handle bundles Backend with its properties metadata. SCHEMA is not
// managed: the dispatcher owns identity and audit for every schema this
// catalog holds.
type Handle struct {
	backend *Backend
}

// NewHandle wraps backend as a domain.CatalogHandle with SCHEMA unmanaged.
func NewHandle(backend *Backend) Handle {
	return Handle{backend: backend}
}

func (h Handle) SchemaOps() domain.SchemaOps          { return h.backend }
func (h Handle) PropertiesMeta() domain.PropertiesMeta { return PropertiesMeta{} }

func (h Handle) Capability() domain.Capability {
	return domain.Capability{domain.ScopeSchema: {Managed: false}}
}

// Backend exposes the underlying Backend for test harnesses that need to
// call SimulateExternalRename directly.
func (h Handle) Backend() *Backend { return h.backend }

// Attach ensures the backend's own table exists, satisfying
// catalog.Attachable so Router.AttachAll can warm this catalog up at
// startup the same way it would attach a real external connection.
func (h Handle) Attach(ctx context.Context) error {
	return EnsureSchema(ctx, h.backend.db)
}
