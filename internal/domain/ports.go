package domain

import "context"

// SchemaOps is the capability surface a catalog backend implements for
// schema-scoped operations. Every backend (relational, table-format,
// stream, filesystem) sits behind this one interface; the dispatcher
// dispatches through it rather than switching on backend kind.
type SchemaOps interface {
	ListSchemas(ctx context.Context, ns Namespace) ([]Ident, error)
	CreateSchema(ctx context.Context, ident Ident, comment string, properties map[string]string) (Schema, error)
	LoadSchema(ctx context.Context, ident Ident) (Schema, error)
	AlterSchema(ctx context.Context, ident Ident, changes ...SchemaChange) (Schema, error)
	DropSchema(ctx context.Context, ident Ident, cascade bool) (bool, error)
}

// PropertiesMeta validates property maps against a catalog's declared
// schema-property metadata and reports which keys it considers hidden
// (confidential) once resolved.
type PropertiesMeta interface {
	ValidateForCreate(properties map[string]string) error
	ValidateForAlter(changes []SchemaChange) error
	HiddenPropertyNames(properties map[string]string) map[string]struct{}
}

// SchemaChangeKind enumerates the alterations alterSchema accepts.
type SchemaChangeKind int

const (
	SetProperty SchemaChangeKind = iota
	RemoveProperty
	UpdateComment
	RenameSchema // rejected unconditionally; see Dispatcher.AlterSchema
)

// SchemaChange is one requested alteration.
type SchemaChange struct {
	Kind     SchemaChangeKind
	Property string
	Value    string
}

// CatalogHandle is what the router resolves a catalog identifier to: a
// handle onto one backend's schema-ops and properties-meta surfaces, plus
// its declared capabilities.
type CatalogHandle interface {
	SchemaOps() SchemaOps
	PropertiesMeta() PropertiesMeta
	Capability() Capability
}

// CatalogRouter resolves a name identifier to the catalog that owns it.
type CatalogRouter interface {
	Resolve(ctx context.Context, catalogIdent Ident) (CatalogHandle, error)
}

// EntityStore is the typed CRUD surface the dispatcher needs from the
// internal entity store. It is the source of truth for identity and
// audit only; the backend remains the source of truth for structure and
// properties. Every method must be atomic with respect to concurrent
// store operations on the same key.
type EntityStore interface {
	// Put upserts by full name when overwrite is true; otherwise it fails
	// if a row already exists under that name.
	Put(ctx context.Context, entity SchemaEntity, overwrite bool) error
	// Get looks up an entity by its full name. Returns nil, nil if absent.
	Get(ctx context.Context, name Ident) (*SchemaEntity, error)
	// GetByID looks up an entity by its store-assigned id.
	GetByID(ctx context.Context, id uint64) (*SchemaEntity, error)
	// Update reads the entity by id, applies f, and writes the result
	// back. Fails if id is absent.
	Update(ctx context.Context, id uint64, f func(SchemaEntity) SchemaEntity) (SchemaEntity, error)
	// Delete removes the row keyed by name. Returns an error satisfying
	// errors.As(*domain.NotFoundError) if the key is absent.
	Delete(ctx context.Context, name Ident) error
}

// IDGenerator produces process-wide monotonic, unique 64-bit identities.
type IDGenerator interface {
	Next() uint64
}

// SchemaDispatcher is the stable operation surface of the coordination
// core: every external caller (REST, CLI, reconciliation sweeper) depends
// on this interface rather than the concrete dispatcher type.
type SchemaDispatcher interface {
	ListSchemas(ctx context.Context, ns Namespace) ([]Ident, error)
	CreateSchema(ctx context.Context, ident Ident, comment string, properties map[string]string) (CombinedSchema, error)
	LoadSchema(ctx context.Context, ident Ident) (CombinedSchema, error)
	AlterSchema(ctx context.Context, ident Ident, changes ...SchemaChange) (CombinedSchema, error)
	DropSchema(ctx context.Context, ident Ident, cascade bool) (bool, error)
}
