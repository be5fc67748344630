package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"metacat/internal/domain"
)

// SQLStore is a SQLite-backed domain.EntityStore. It owns the
// schema_entities table created by internal/db's goose migrations.
type SQLStore struct {
	write *sql.DB // single-connection writer, per internal/db.OpenSQLite convention
	read  *sql.DB
}

// NewSQLStore wraps an already-migrated SQLite connection pair. write must
// have MaxOpenConns(1) (see internal/db.OpenSQLite) so writes serialize at
// the connection level; read may be a separate read-only pool.
func NewSQLStore(write, read *sql.DB) *SQLStore {
	return &SQLStore{write: write, read: read}
}

func (s *SQLStore) Put(ctx context.Context, entity domain.SchemaEntity, overwrite bool) error {
	query := `INSERT INTO schema_entities
		(id, full_name, namespace, creator, create_time, last_modifier, last_modified_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	if overwrite {
		query += ` ON CONFLICT(id) DO UPDATE SET
			full_name = excluded.full_name,
			namespace = excluded.namespace,
			last_modifier = excluded.last_modifier,
			last_modified_time = excluded.last_modified_time`
	}

	_, err := s.write.ExecContext(ctx, query,
		entity.ID, entity.FullName(), entity.Namespace.String(),
		entity.Audit.Creator, entity.Audit.CreateTime,
		nullableString(entity.Audit.LastModifier), nullableTime(entity.Audit.LastModifiedTime))
	if err != nil {
		if isUniqueConstraintErr(err) {
			return domain.ErrConflict("entity %q already exists", entity.FullName())
		}
		return domain.ErrRuntime("store.Put", entity.FullName(), err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, name domain.Ident) (*domain.SchemaEntity, error) {
	row := s.read.QueryRowContext(ctx,
		`SELECT id, full_name, namespace, creator, create_time, last_modifier, last_modified_time
		 FROM schema_entities WHERE full_name = ?`, name.String())
	return scanEntity(row)
}

func (s *SQLStore) GetByID(ctx context.Context, id uint64) (*domain.SchemaEntity, error) {
	row := s.read.QueryRowContext(ctx,
		`SELECT id, full_name, namespace, creator, create_time, last_modifier, last_modified_time
		 FROM schema_entities WHERE id = ?`, int64(id))
	return scanEntity(row)
}

func (s *SQLStore) Update(ctx context.Context, id uint64, f func(domain.SchemaEntity) domain.SchemaEntity) (domain.SchemaEntity, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.SchemaEntity{}, err
	}
	if existing == nil {
		return domain.SchemaEntity{}, domain.ErrNotFound("entity id %d not found", id)
	}

	updated := f(*existing)
	_, err = s.write.ExecContext(ctx,
		`UPDATE schema_entities SET full_name = ?, namespace = ?, last_modifier = ?, last_modified_time = ?
		 WHERE id = ?`,
		updated.FullName(), updated.Namespace.String(),
		nullableString(updated.Audit.LastModifier), nullableTime(updated.Audit.LastModifiedTime),
		int64(id))
	if err != nil {
		return domain.SchemaEntity{}, domain.ErrRuntime("store.Update", updated.FullName(), err)
	}
	return updated, nil
}

func (s *SQLStore) Delete(ctx context.Context, name domain.Ident) error {
	res, err := s.write.ExecContext(ctx, `DELETE FROM schema_entities WHERE full_name = ?`, name.String())
	if err != nil {
		return domain.ErrRuntime("store.Delete", name.String(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.ErrRuntime("store.Delete", name.String(), err)
	}
	if n == 0 {
		return domain.ErrNotFound("entity %q not found", name.String())
	}
	return nil
}

func scanEntity(row *sql.Row) (*domain.SchemaEntity, error) {
	var (
		id               int64
		fullName         string
		namespace        string
		creator          string
		createTime       time.Time
		lastModifier     sql.NullString
		lastModifiedTime sql.NullTime
	)
	if err := row.Scan(&id, &fullName, &namespace, &creator, &createTime, &lastModifier, &lastModifiedTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.ErrRuntime("store.Get", fullName, err)
	}

	entity := &domain.SchemaEntity{
		ID:        uint64(id),
		Name:      domain.ParseIdent(fullName).Name(),
		Namespace: domain.NewNamespace(splitNamespace(namespace)...),
		Audit: domain.AuditInfo{
			Creator:    creator,
			CreateTime: createTime,
		},
	}
	if lastModifier.Valid {
		v := lastModifier.String
		entity.Audit.LastModifier = &v
	}
	if lastModifiedTime.Valid {
		v := lastModifiedTime.Time
		entity.Audit.LastModifiedTime = &v
	}
	return entity, nil
}

func splitNamespace(ns string) []string {
	if ns == "" {
		return nil
	}
	return domain.ParseIdent(ns).Levels
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func isUniqueConstraintErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
