// Package httpapi is a thin REST façade over internal/service.SchemaService,
// one handler per dispatcher operation, JSON in and out.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"metacat/internal/config"
	"metacat/internal/domain"
	"metacat/internal/httpapi/authctx"
	"metacat/internal/service"
)

// NewRouter builds the chi router exposing the five schema endpoints plus
// the audit query endpoint under /v1, guarded by authctx.Middleware. No
// rate limiter is installed on this router.
func NewRouter(svc *service.SchemaService, audit *service.AuditService, authCfg config.AuthConfig, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	if len(corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}))
	}

	h := &handler{svc: svc, audit: audit}

	r.Route("/v1", func(r chi.Router) {
		r.Use(authctx.Middleware(authCfg))
		r.Get("/catalogs/{catalog}/schemas", h.listSchemas)
		r.Post("/catalogs/{catalog}/schemas", h.createSchema)
		r.Get("/schemas/{catalog}/{schema}", h.loadSchema)
		r.Patch("/schemas/{catalog}/{schema}", h.alterSchema)
		r.Delete("/schemas/{catalog}/{schema}", h.dropSchema)
		r.Get("/audit", h.listAudit)
	})

	return r
}

type handler struct {
	svc   *service.SchemaService
	audit *service.AuditService
}

func (h *handler) listSchemas(w http.ResponseWriter, r *http.Request) {
	catalog := chi.URLParam(r, "catalog")
	ns := domain.NewNamespace(domain.ParseIdent(catalog).Levels...)

	idents, err := h.svc.ListSchemas(r.Context(), ns)
	if err != nil {
		writeError(w, err)
		return
	}
	names := make([]string, len(idents))
	for i, id := range idents {
		names[i] = id.String()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"schemas": names})
}

type createSchemaRequest struct {
	Name       string            `json:"name"`
	Comment    string            `json:"comment"`
	Properties map[string]string `json:"properties"`
}

func (h *handler) createSchema(w http.ResponseWriter, r *http.Request) {
	catalog := chi.URLParam(r, "catalog")
	var req createSchemaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"code": 400, "message": "invalid request body"})
		return
	}

	ident := domain.NewIdent(append(domain.ParseIdent(catalog).Levels, req.Name)...)
	combined, err := h.svc.CreateSchema(r.Context(), ident, req.Comment, req.Properties)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, combinedSchemaView(combined))
}

func (h *handler) loadSchema(w http.ResponseWriter, r *http.Request) {
	ident := schemaIdentFromRequest(r)
	combined, err := h.svc.LoadSchema(r.Context(), ident)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, combinedSchemaView(combined))
}

type alterSchemaRequest struct {
	SetProperties    map[string]string `json:"set_properties"`
	RemoveProperties []string          `json:"remove_properties"`
	Comment          *string           `json:"comment"`
}

func (h *handler) alterSchema(w http.ResponseWriter, r *http.Request) {
	ident := schemaIdentFromRequest(r)
	var req alterSchemaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"code": 400, "message": "invalid request body"})
		return
	}

	var changes []domain.SchemaChange
	for k, v := range req.SetProperties {
		changes = append(changes, domain.SchemaChange{Kind: domain.SetProperty, Property: k, Value: v})
	}
	for _, k := range req.RemoveProperties {
		changes = append(changes, domain.SchemaChange{Kind: domain.RemoveProperty, Property: k})
	}
	if req.Comment != nil {
		changes = append(changes, domain.SchemaChange{Kind: domain.UpdateComment, Value: *req.Comment})
	}

	combined, err := h.svc.AlterSchema(r.Context(), ident, changes...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, combinedSchemaView(combined))
}

func (h *handler) dropSchema(w http.ResponseWriter, r *http.Request) {
	ident := schemaIdentFromRequest(r)
	cascade := r.URL.Query().Get("cascade") == "true"

	dropped, err := h.svc.DropSchema(r.Context(), ident, cascade)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"dropped": dropped})
}

// listAudit implements GET /v1/audit, translating query parameters into a
// domain.AuditFilter and paginated JSON response.
func (h *handler) listAudit(w http.ResponseWriter, r *http.Request) {
	filter := domain.AuditFilter{}
	q := r.URL.Query()

	if v := q.Get("principal_name"); v != "" {
		filter.PrincipalName = &v
	}
	if v := q.Get("action"); v != "" {
		filter.Action = &v
	}
	if v := q.Get("schema_ident"); v != "" {
		filter.SchemaIdent = &v
	}
	if v := q.Get("status"); v != "" {
		filter.Status = &v
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"code": 400, "message": "invalid since: must be RFC3339"})
			return
		}
		filter.Since = &since
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	entries, total, err := h.audit.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries, "total": total})
}

func schemaIdentFromRequest(r *http.Request) domain.Ident {
	catalog := chi.URLParam(r, "catalog")
	schema := chi.URLParam(r, "schema")
	return domain.NewIdent(append(domain.ParseIdent(catalog).Levels, schema)...)
}

func combinedSchemaView(c domain.CombinedSchema) map[string]interface{} {
	body := map[string]interface{}{
		"name":       c.Backend.Name,
		"comment":    c.Backend.Comment,
		"properties": c.Properties(),
		"imported":   c.Imported,
	}
	if c.Entity != nil {
		body["id"] = c.Entity.ID
		body["namespace"] = c.Entity.Namespace.String()
		body["creator"] = c.Entity.Audit.Creator
		body["create_time"] = c.Entity.Audit.CreateTime
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"

	var noSuchCatalog *domain.NoSuchCatalogError
	var noSuchSchema *domain.NoSuchSchemaError
	var illegalArg *domain.IllegalArgumentError
	var accessDenied *domain.AccessDeniedError
	var conflict *domain.MultipleCatalogsManageSchemaError
	var alreadyExists *domain.SchemaAlreadyExistsError
	var nonEmpty *domain.NonEmptySchemaError

	switch {
	case errors.As(err, &noSuchCatalog), errors.As(err, &noSuchSchema):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.As(err, &illegalArg):
		status, code = http.StatusBadRequest, "ILLEGAL_ARGUMENT"
	case errors.As(err, &accessDenied):
		status, code = http.StatusForbidden, "ACCESS_DENIED"
	case errors.As(err, &conflict):
		status, code = http.StatusConflict, "MULTIPLE_CATALOGS_MANAGE_SCHEMA"
	case errors.As(err, &alreadyExists):
		status, code = http.StatusConflict, "SCHEMA_ALREADY_EXISTS"
	case errors.As(err, &nonEmpty):
		status, code = http.StatusConflict, "NON_EMPTY_SCHEMA"
	}

	writeJSON(w, status, map[string]interface{}{"code": code, "message": err.Error()})
}
