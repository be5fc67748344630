package sqlcatalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metacat/internal/domain"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sqlcatalog.sqlite")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, EnsureSchema(context.Background(), db))
	return New(db)
}

func TestBackend_CreateLoadDropRoundTrip(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	ident := domain.NewIdent("lake", "pg", "s1")

	_, err := b.CreateSchema(ctx, ident, "hello", map[string]string{"k": "v"})
	require.NoError(t, err)

	loaded, err := b.LoadSchema(ctx, ident)
	require.NoError(t, err)
	assert.Equal(t, "hello", loaded.Comment)
	assert.Equal(t, map[string]string{"k": "v"}, loaded.Properties)

	ok, err := b.DropSchema(ctx, ident, false)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = b.LoadSchema(ctx, ident)
	var notFound *domain.NoSuchSchemaError
	assert.ErrorAs(t, err, &notFound)
}

func TestBackend_CreateSchema_DuplicateFails(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	ident := domain.NewIdent("lake", "pg", "s1")

	_, err := b.CreateSchema(ctx, ident, "", nil)
	require.NoError(t, err)

	_, err = b.CreateSchema(ctx, ident, "", nil)
	var exists *domain.SchemaAlreadyExistsError
	assert.ErrorAs(t, err, &exists)
}

func TestBackend_SimulateExternalRename_PreservesProperties(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	ident := domain.NewIdent("lake", "pg", "s1")

	_, err := b.CreateSchema(ctx, ident, "", map[string]string{domain.IdentityTagKey: "TAG"})
	require.NoError(t, err)

	require.NoError(t, b.SimulateExternalRename(ctx, ident, "s1_new"))

	renamed := domain.NewIdent("lake", "pg", "s1_new")
	loaded, err := b.LoadSchema(ctx, renamed)
	require.NoError(t, err)
	assert.Equal(t, "TAG", loaded.Properties[domain.IdentityTagKey])

	_, err = b.LoadSchema(ctx, ident)
	var notFound *domain.NoSuchSchemaError
	assert.ErrorAs(t, err, &notFound)
}

func TestBackend_AlterSchema_RejectsRename(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	ident := domain.NewIdent("lake", "pg", "s1")
	_, err := b.CreateSchema(ctx, ident, "", nil)
	require.NoError(t, err)

	_, err = b.AlterSchema(ctx, ident, domain.SchemaChange{Kind: domain.RenameSchema})
	var illegal *domain.IllegalArgumentError
	assert.ErrorAs(t, err, &illegal)
}

func TestPropertiesMeta_RejectsReservedKey(t *testing.T) {
	pm := PropertiesMeta{}
	err := pm.ValidateForCreate(map[string]string{domain.IdentityTagKey: "x"})
	var illegal *domain.IllegalArgumentError
	assert.ErrorAs(t, err, &illegal)
}

func TestHandle_Capability_UnmanagedSchema(t *testing.T) {
	h := NewHandle(newTestBackend(t))
	assert.False(t, h.Capability().Scope(domain.ScopeSchema).Managed)
}
