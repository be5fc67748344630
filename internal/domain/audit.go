package domain

import "time"

// AuditEntry represents a single audit log record for one schema
// operation: who attempted what, on which schema, with what outcome.
// Every failure path logs the same correlation shape spec §9 requires —
// {op, ident, phase, cause} — and an AuditEntry is that shape's durable,
// queryable form: Action is op, SchemaIdent is ident, Phase narrows where
// in the call the outcome was decided, and ErrorMessage is cause.
type AuditEntry struct {
	ID            string
	PrincipalName string
	Action        string // e.g. "CREATE_SCHEMA", "LOAD_SCHEMA"
	CatalogIdent  string // catalog-level identifier, e.g. "lake.mem"
	SchemaIdent   string // full schema identifier, e.g. "lake.mem.orders"
	Phase         string // e.g. "authz", "dispatch"
	Status        string // "ALLOWED", "DENIED", "ERROR"
	ErrorMessage  *string
	CreatedAt     time.Time
}
