package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metacat/internal/config"
	"metacat/internal/domain"
	"metacat/internal/httpapi/authctx"
	"metacat/internal/service"
	"metacat/internal/testutil"
)

func newTestRouter(dispatcher *testutil.MockDispatcher) http.Handler {
	return newTestRouterWithAudit(dispatcher, &testutil.MockAuditRepo{})
}

func newTestRouterWithAudit(dispatcher *testutil.MockDispatcher, auditRepo *testutil.MockAuditRepo) http.Handler {
	svc := service.NewSchemaService(dispatcher, &testutil.MockAuthChecker{}, auditRepo, nil)
	audit := service.NewAuditService(auditRepo)
	return NewRouter(svc, audit, config.AuthConfig{}, nil)
}

func devRequest(method, path string, body []byte) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	r.Header.Set(authctx.DevPrincipalHeader, "alice")
	return r
}

func TestRouter_ListSchemas(t *testing.T) {
	dispatcher := &testutil.MockDispatcher{
		ListSchemasFn: func(_ context.Context, ns domain.Namespace) ([]domain.Ident, error) {
			assert.Equal(t, "lake.mem", ns.String())
			return []domain.Ident{domain.NewIdent("lake", "mem", "s1")}, nil
		},
	}
	router := newTestRouter(dispatcher)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, devRequest(http.MethodGet, "/v1/catalogs/lake.mem/schemas", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []interface{}{"lake.mem.s1"}, body["schemas"])
}

func TestRouter_CreateSchema(t *testing.T) {
	dispatcher := &testutil.MockDispatcher{
		CreateSchemaFn: func(_ context.Context, ident domain.Ident, comment string, _ map[string]string) (domain.CombinedSchema, error) {
			assert.Equal(t, "lake.mem.s1", ident.String())
			assert.Equal(t, "hello", comment)
			return domain.CombinedSchema{Backend: domain.Schema{Name: "s1", Comment: comment}, Imported: true}, nil
		},
	}
	router := newTestRouter(dispatcher)

	payload, _ := json.Marshal(map[string]interface{}{"name": "s1", "comment": "hello"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, devRequest(http.MethodPost, "/v1/catalogs/lake.mem/schemas", payload))

	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestRouter_LoadSchema_NotFound(t *testing.T) {
	dispatcher := &testutil.MockDispatcher{
		LoadSchemaFn: func(context.Context, domain.Ident) (domain.CombinedSchema, error) {
			return domain.CombinedSchema{}, &domain.NoSuchSchemaError{Ident: "lake.mem.missing"}
		},
	}
	router := newTestRouter(dispatcher)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, devRequest(http.MethodGet, "/v1/schemas/lake.mem/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_DropSchema(t *testing.T) {
	dispatcher := &testutil.MockDispatcher{
		DropSchemaFn: func(_ context.Context, ident domain.Ident, cascade bool) (bool, error) {
			assert.Equal(t, "lake.mem.s1", ident.String())
			assert.True(t, cascade)
			return true, nil
		},
	}
	router := newTestRouter(dispatcher)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, devRequest(http.MethodDelete, "/v1/schemas/lake.mem/s1?cascade=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["dropped"])
}

func TestRouter_MissingAuthRejected(t *testing.T) {
	router := newTestRouter(&testutil.MockDispatcher{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/catalogs/lake.mem/schemas", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_ListAudit(t *testing.T) {
	auditRepo := &testutil.MockAuditRepo{
		ListFn: func(_ context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error) {
			require.NotNil(t, filter.SchemaIdent)
			assert.Equal(t, "lake.mem.s1", *filter.SchemaIdent)
			return []domain.AuditEntry{{PrincipalName: "alice", Action: "CREATE_SCHEMA", Status: "ALLOWED"}}, 1, nil
		},
	}
	router := newTestRouterWithAudit(&testutil.MockDispatcher{}, auditRepo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, devRequest(http.MethodGet, "/v1/audit?schema_ident=lake.mem.s1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["total"])
}
