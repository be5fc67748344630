package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metacat/internal/db"
	"metacat/internal/domain"
)

func newTestAuditStore(t *testing.T) *AuditStore {
	t.Helper()
	write, read := db.OpenTestSQLite(t)
	return NewAuditStore(write, read)
}

func TestAuditStore_InsertGeneratesIDAndList(t *testing.T) {
	s := newTestAuditStore(t)
	ctx := context.Background()

	e := &domain.AuditEntry{
		PrincipalName: "alice",
		Action:        "CREATE_SCHEMA",
		CatalogIdent:  "lake.mem",
		SchemaIdent:   "lake.mem.orders",
		Phase:         "dispatch",
		Status:        "ALLOWED",
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.Insert(ctx, e))
	assert.NotEmpty(t, e.ID)

	entries, total, err := s.List(ctx, domain.AuditFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].PrincipalName)
	assert.Equal(t, "lake.mem.orders", entries[0].SchemaIdent)
	assert.Nil(t, entries[0].ErrorMessage)
}

func TestAuditStore_List_FiltersBySchemaIdentAndStatus(t *testing.T) {
	s := newTestAuditStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, &domain.AuditEntry{
		PrincipalName: "alice", Action: "CREATE_SCHEMA", CatalogIdent: "lake.mem",
		SchemaIdent: "lake.mem.orders", Phase: "dispatch", Status: "ALLOWED", CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, s.Insert(ctx, &domain.AuditEntry{
		PrincipalName: "bob", Action: "DROP_SCHEMA", CatalogIdent: "lake.mem",
		SchemaIdent: "lake.mem.orders", Phase: "authz", Status: "DENIED", CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, s.Insert(ctx, &domain.AuditEntry{
		PrincipalName: "alice", Action: "CREATE_SCHEMA", CatalogIdent: "lake.pg",
		SchemaIdent: "lake.pg.customers", Phase: "dispatch", Status: "ALLOWED", CreatedAt: time.Now().UTC(),
	}))

	schemaIdent := "lake.mem.orders"
	entries, total, err := s.List(ctx, domain.AuditFilter{SchemaIdent: &schemaIdent})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, entries, 2)

	status := "DENIED"
	entries, total, err = s.List(ctx, domain.AuditFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, "bob", entries[0].PrincipalName)
}

func TestAuditStore_Insert_PreservesCallerProvidedID(t *testing.T) {
	s := newTestAuditStore(t)
	ctx := context.Background()

	e := &domain.AuditEntry{
		ID: "fixed-id", PrincipalName: "alice", Action: "LOAD_SCHEMA", CatalogIdent: "lake.mem",
		SchemaIdent: "lake.mem.orders", Phase: "authz", Status: "DENIED", CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Insert(ctx, e))
	assert.Equal(t, "fixed-id", e.ID)
}
