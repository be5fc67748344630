// Package memcatalog implements an in-memory schema-ops backend: the
// reference SCHEMA-managed catalog (named lake.mem in the operation
// scenarios). Because it is managed, it is its own store of record for
// identity — the dispatcher never writes a mirror entity for it.
package memcatalog

import (
	"context"
	"sync"

	"metacat/internal/domain"
)

// Backend is an in-memory catalog backend. It is safe for concurrent use.
type Backend struct {
	mu      sync.RWMutex
	schemas map[string]domain.Schema
}

// New returns an empty Backend.
func New() *Backend {
	return &Backend{schemas: make(map[string]domain.Schema)}
}

func (b *Backend) ListSchemas(_ context.Context, ns domain.Namespace) ([]domain.Ident, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	idents := make([]domain.Ident, 0, len(b.schemas))
	for name := range b.schemas {
		idents = append(idents, ns.Ident(name))
	}
	return idents, nil
}

func (b *Backend) CreateSchema(_ context.Context, ident domain.Ident, comment string, properties map[string]string) (domain.Schema, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	name := ident.Name()
	if _, exists := b.schemas[name]; exists {
		return domain.Schema{}, &domain.SchemaAlreadyExistsError{Ident: ident.String()}
	}

	props := make(map[string]string, len(properties))
	for k, v := range properties {
		props[k] = v
	}
	schema := domain.Schema{Name: name, Comment: comment, Properties: props}
	b.schemas[name] = schema
	return schema, nil
}

func (b *Backend) LoadSchema(_ context.Context, ident domain.Ident) (domain.Schema, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	schema, ok := b.schemas[ident.Name()]
	if !ok {
		return domain.Schema{}, &domain.NoSuchSchemaError{Ident: ident.String()}
	}
	return schema, nil
}

func (b *Backend) AlterSchema(_ context.Context, ident domain.Ident, changes ...domain.SchemaChange) (domain.Schema, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	name := ident.Name()
	schema, ok := b.schemas[name]
	if !ok {
		return domain.Schema{}, &domain.NoSuchSchemaError{Ident: ident.String()}
	}

	props := make(map[string]string, len(schema.Properties))
	for k, v := range schema.Properties {
		props[k] = v
	}
	for _, ch := range changes {
		switch ch.Kind {
		case domain.SetProperty:
			props[ch.Property] = ch.Value
		case domain.RemoveProperty:
			delete(props, ch.Property)
		case domain.UpdateComment:
			schema.Comment = ch.Value
		case domain.RenameSchema:
			return domain.Schema{}, domain.ErrIllegalArgument("rename is not supported")
		}
	}
	schema.Properties = props
	b.schemas[name] = schema
	return schema, nil
}

func (b *Backend) DropSchema(_ context.Context, ident domain.Ident, _ bool) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	name := ident.Name()
	if _, ok := b.schemas[name]; !ok {
		return false, &domain.NoSuchSchemaError{Ident: ident.String()}
	}
	delete(b.schemas, name)
	return true, nil
}

// PropertiesMeta is the no-op property validator for the reference
// in-memory catalog: every property is accepted, and none are hidden.
type PropertiesMeta struct{}

func (PropertiesMeta) ValidateForCreate(map[string]string) error { return nil }
func (PropertiesMeta) ValidateForAlter([]domain.SchemaChange) error { return nil }
func (PropertiesMeta) HiddenPropertyNames(map[string]string) map[string]struct{} {
	return nil
}

// Handle bundles Backend with its properties metadata and declares SCHEMA
// as managed, so the dispatcher never mirrors an entity for it.
type Handle struct {
	backend *Backend
}

// NewHandle wraps backend as a domain.CatalogHandle with SCHEMA managed.
func NewHandle(backend *Backend) Handle {
	return Handle{backend: backend}
}

func (h Handle) SchemaOps() domain.SchemaOps          { return h.backend }
func (h Handle) PropertiesMeta() domain.PropertiesMeta { return PropertiesMeta{} }

func (h Handle) Capability() domain.Capability {
	return domain.Capability{domain.ScopeSchema: {Managed: true}}
}
