package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"metacat/internal/domain"
)

// AuditStore is a SQLite-backed domain.AuditRepository. It owns the
// audit_log table created by internal/db's goose migrations.
type AuditStore struct {
	write *sql.DB
	read  *sql.DB
}

// NewAuditStore wraps an already-migrated SQLite connection pair, mirroring
// NewSQLStore's write/read split.
func NewAuditStore(write, read *sql.DB) *AuditStore {
	return &AuditStore{write: write, read: read}
}

func (s *AuditStore) Insert(ctx context.Context, e *domain.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.write.ExecContext(ctx,
		`INSERT INTO audit_log
			(id, principal_name, action, catalog_ident, schema_ident, phase, status, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.PrincipalName, e.Action, e.CatalogIdent, e.SchemaIdent, e.Phase, e.Status,
		nullableString(e.ErrorMessage), e.CreatedAt)
	if err != nil {
		return domain.ErrRuntime("audit.Insert", e.ID, err)
	}
	return nil
}

func (s *AuditStore) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error) {
	where, args := auditFilterClause(filter)

	var total int64
	countQuery := "SELECT COUNT(*) FROM audit_log" + where
	if err := s.read.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, domain.ErrRuntime("audit.List", "count", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	listQuery := `SELECT id, principal_name, action, catalog_ident, schema_ident, phase, status,
			error_message, created_at
		FROM audit_log` + where + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	rows, err := s.read.QueryContext(ctx, listQuery, append(args, limit, filter.Offset)...)
	if err != nil {
		return nil, 0, domain.ErrRuntime("audit.List", "select", err)
	}
	defer rows.Close() //nolint:errcheck

	var entries []domain.AuditEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, 0, domain.ErrRuntime("audit.List", "scan", err)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func auditFilterClause(filter domain.AuditFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if filter.PrincipalName != nil {
		clauses = append(clauses, "principal_name = ?")
		args = append(args, *filter.PrincipalName)
	}
	if filter.Action != nil {
		clauses = append(clauses, "action = ?")
		args = append(args, *filter.Action)
	}
	if filter.SchemaIdent != nil {
		clauses = append(clauses, "schema_ident = ?")
		args = append(args, *filter.SchemaIdent)
	}
	if filter.Status != nil {
		clauses = append(clauses, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, *filter.Since)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanAuditEntry(rows *sql.Rows) (domain.AuditEntry, error) {
	var (
		e            domain.AuditEntry
		errorMessage sql.NullString
	)
	if err := rows.Scan(&e.ID, &e.PrincipalName, &e.Action, &e.CatalogIdent, &e.SchemaIdent, &e.Phase,
		&e.Status, &errorMessage, &e.CreatedAt); err != nil {
		return domain.AuditEntry{}, err
	}
	if errorMessage.Valid {
		e.ErrorMessage = &errorMessage.String
	}
	return e, nil
}
