// Package sqlcatalog implements a SQLite-backed schema-ops backend: the
// reference non-managed catalog (named lake.pg in the operation
// scenarios, standing in for an external relational catalog). Because it
// is not managed, the dispatcher mirrors identity and audit data for it
// in the entity store.
package sqlcatalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"metacat/internal/domain"
)

// Backend is a schema-ops backend whose schemas live in a dedicated
// catalog_schemas table. It owns a database distinct from the dispatcher's
// entity store, modelling an external catalog the dispatcher does not
// control the schema of.
type Backend struct {
	db *sql.DB
}

// New wraps an already-migrated *sql.DB. Callers must have run
// EnsureSchema once before using the Backend.
func New(db *sql.DB) *Backend {
	return &Backend{db: db}
}

// EnsureSchema creates the backend's own table if it doesn't exist yet.
// Kept separate from goose migrations: this table belongs to the
// simulated external catalog, not the dispatcher's own store.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS catalog_schemas (
		namespace  TEXT NOT NULL,
		name       TEXT NOT NULL,
		comment    TEXT NOT NULL DEFAULT '',
		properties TEXT NOT NULL DEFAULT '{}',
		PRIMARY KEY (namespace, name)
	)`)
	return err
}

func (b *Backend) ListSchemas(ctx context.Context, ns domain.Namespace) ([]domain.Ident, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT name FROM catalog_schemas WHERE namespace = ?`, ns.String())
	if err != nil {
		return nil, domain.ErrRuntime("sqlcatalog.ListSchemas", ns.String(), err)
	}
	defer rows.Close() //nolint:errcheck

	var idents []domain.Ident
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, domain.ErrRuntime("sqlcatalog.ListSchemas", ns.String(), err)
		}
		idents = append(idents, ns.Ident(name))
	}
	return idents, rows.Err()
}

func (b *Backend) CreateSchema(ctx context.Context, ident domain.Ident, comment string, properties map[string]string) (domain.Schema, error) {
	encoded, err := json.Marshal(properties)
	if err != nil {
		return domain.Schema{}, domain.ErrRuntime("sqlcatalog.CreateSchema", ident.String(), err)
	}

	_, err = b.db.ExecContext(ctx,
		`INSERT INTO catalog_schemas (namespace, name, comment, properties) VALUES (?, ?, ?, ?)`,
		ident.Namespace().String(), ident.Name(), comment, string(encoded))
	if err != nil {
		if isUniqueConstraintErr(err) {
			return domain.Schema{}, &domain.SchemaAlreadyExistsError{Ident: ident.String()}
		}
		return domain.Schema{}, domain.ErrRuntime("sqlcatalog.CreateSchema", ident.String(), err)
	}
	return domain.Schema{Name: ident.Name(), Comment: comment, Properties: properties}, nil
}

func (b *Backend) LoadSchema(ctx context.Context, ident domain.Ident) (domain.Schema, error) {
	return b.loadByNamespaceAndName(ctx, ident.Namespace().String(), ident.Name())
}

func (b *Backend) loadByNamespaceAndName(ctx context.Context, namespace, name string) (domain.Schema, error) {
	row := b.db.QueryRowContext(ctx,
		`SELECT comment, properties FROM catalog_schemas WHERE namespace = ? AND name = ?`, namespace, name)

	var comment, propsJSON string
	if err := row.Scan(&comment, &propsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Schema{}, &domain.NoSuchSchemaError{Ident: namespace + "." + name}
		}
		return domain.Schema{}, domain.ErrRuntime("sqlcatalog.LoadSchema", namespace+"."+name, err)
	}

	props := map[string]string{}
	if err := json.Unmarshal([]byte(propsJSON), &props); err != nil {
		return domain.Schema{}, domain.ErrRuntime("sqlcatalog.LoadSchema", namespace+"."+name, err)
	}
	return domain.Schema{Name: name, Comment: comment, Properties: props}, nil
}

func (b *Backend) AlterSchema(ctx context.Context, ident domain.Ident, changes ...domain.SchemaChange) (domain.Schema, error) {
	schema, err := b.LoadSchema(ctx, ident)
	if err != nil {
		return domain.Schema{}, err
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

	encoded, err := json.Marshal(props)
	if err != nil {
		return domain.Schema{}, domain.ErrRuntime("sqlcatalog.AlterSchema", ident.String(), err)
	}
	_, err = b.db.ExecContext(ctx,
		`UPDATE catalog_schemas SET comment = ?, properties = ? WHERE namespace = ? AND name = ?`,
		schema.Comment, string(encoded), ident.Namespace().String(), ident.Name())
	if err != nil {
		return domain.Schema{}, domain.ErrRuntime("sqlcatalog.AlterSchema", ident.String(), err)
	}

	schema.Properties = props
	return schema, nil
}

func (b *Backend) DropSchema(ctx context.Context, ident domain.Ident, _ bool) (bool, error) {
	res, err := b.db.ExecContext(ctx,
		`DELETE FROM catalog_schemas WHERE namespace = ? AND name = ?`,
		ident.Namespace().String(), ident.Name())
	if err != nil {
		return false, domain.ErrRuntime("sqlcatalog.DropSchema", ident.String(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.ErrRuntime("sqlcatalog.DropSchema", ident.String(), err)
	}
	if n == 0 {
		return false, &domain.NoSuchSchemaError{Ident: ident.String()}
	}
	return true, nil
}

// SimulateExternalRename renames a schema row in place while preserving
// its properties (and therefore any identity tag they carry), modelling
// an out-of-band rename performed directly against the external catalog
// rather than through the dispatcher.
func (b *Backend) SimulateExternalRename(ctx context.Context, ident domain.Ident, newName string) error {
	res, err := b.db.ExecContext(ctx,
		`UPDATE catalog_schemas SET name = ? WHERE namespace = ? AND name = ?`,
		newName, ident.Namespace().String(), ident.Name())
	if err != nil {
		return domain.ErrRuntime("sqlcatalog.SimulateExternalRename", ident.String(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.ErrRuntime("sqlcatalog.SimulateExternalRename", ident.String(), err)
	}
	if n == 0 {
		return &domain.NoSuchSchemaError{Ident: ident.String()}
	}
	return nil
}

func isUniqueConstraintErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
