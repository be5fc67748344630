package service

import (
	"context"
	"log/slog"
	"time"

	"metacat/internal/domain"
)

// SchemaService wraps a domain.SchemaDispatcher with the privilege check
// and audit trail the dispatcher itself deliberately stays free of. It is
// the layer internal/httpapi and cmd/dispatcherctl actually call.
type SchemaService struct {
	dispatcher domain.SchemaDispatcher
	auth       domain.AuthorizationChecker
	audit      domain.AuditRepository
	logger     *slog.Logger
}

func NewSchemaService(dispatcher domain.SchemaDispatcher, auth domain.AuthorizationChecker, audit domain.AuditRepository, logger *slog.Logger) *SchemaService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SchemaService{dispatcher: dispatcher, auth: auth, audit: audit, logger: logger}
}

func (s *SchemaService) ListSchemas(ctx context.Context, ns domain.Namespace) ([]domain.Ident, error) {
	return s.dispatcher.ListSchemas(ctx, ns)
}

func (s *SchemaService) CreateSchema(ctx context.Context, ident domain.Ident, comment string, properties map[string]string) (domain.CombinedSchema, error) {
	principal := domain.CurrentPrincipalName(ctx)
	catalogName := ident.CatalogIdent().String()

	allowed, err := s.auth.CheckPrivilege(ctx, principal, domain.SecurableCatalog, catalogName, domain.PrivCreateSchema)
	if err != nil {
		return domain.CombinedSchema{}, err
	}
	if !allowed {
		s.logAudit(ctx, principal, "CREATE_SCHEMA", catalogName, ident.String(), "authz", "DENIED", nil)
		return domain.CombinedSchema{}, domain.ErrAccessDenied("%q lacks CREATE_SCHEMA on catalog %q", principal, catalogName)
	}

	combined, err := s.dispatcher.CreateSchema(ctx, ident, comment, properties)
	s.logAudit(ctx, principal, "CREATE_SCHEMA", catalogName, ident.String(), "dispatch", statusFor(err), err)
	return combined, err
}

func (s *SchemaService) LoadSchema(ctx context.Context, ident domain.Ident) (domain.CombinedSchema, error) {
	principal := domain.CurrentPrincipalName(ctx)

	allowed, err := s.auth.CheckPrivilege(ctx, principal, domain.SecurableSchema, ident.String(), domain.PrivUsage)
	if err != nil {
		return domain.CombinedSchema{}, err
	}
	if !allowed {
		s.logAudit(ctx, principal, "LOAD_SCHEMA", ident.CatalogIdent().String(), ident.String(), "authz", "DENIED", nil)
		return domain.CombinedSchema{}, domain.ErrAccessDenied("%q lacks USAGE on schema %q", principal, ident.String())
	}

	return s.dispatcher.LoadSchema(ctx, ident)
}

func (s *SchemaService) AlterSchema(ctx context.Context, ident domain.Ident, changes ...domain.SchemaChange) (domain.CombinedSchema, error) {
	principal := domain.CurrentPrincipalName(ctx)

	allowed, err := s.auth.CheckPrivilege(ctx, principal, domain.SecurableSchema, ident.String(), domain.PrivUsage)
	if err != nil {
		return domain.CombinedSchema{}, err
	}
	if !allowed {
		s.logAudit(ctx, principal, "ALTER_SCHEMA", ident.CatalogIdent().String(), ident.String(), "authz", "DENIED", nil)
		return domain.CombinedSchema{}, domain.ErrAccessDenied("%q lacks USAGE on schema %q", principal, ident.String())
	}

	combined, err := s.dispatcher.AlterSchema(ctx, ident, changes...)
	s.logAudit(ctx, principal, "ALTER_SCHEMA", ident.CatalogIdent().String(), ident.String(), "dispatch", statusFor(err), err)
	return combined, err
}

func (s *SchemaService) DropSchema(ctx context.Context, ident domain.Ident, cascade bool) (bool, error) {
	principal := domain.CurrentPrincipalName(ctx)

	allowed, err := s.auth.CheckPrivilege(ctx, principal, domain.SecurableSchema, ident.String(), domain.PrivUsage)
	if err != nil {
		return false, err
	}
	if !allowed {
		s.logAudit(ctx, principal, "DROP_SCHEMA", ident.CatalogIdent().String(), ident.String(), "authz", "DENIED", nil)
		return false, domain.ErrAccessDenied("%q lacks USAGE on schema %q", principal, ident.String())
	}

	dropped, err := s.dispatcher.DropSchema(ctx, ident, cascade)
	s.logAudit(ctx, principal, "DROP_SCHEMA", ident.CatalogIdent().String(), ident.String(), "dispatch", statusFor(err), err)
	return dropped, err
}

func statusFor(err error) string {
	if err != nil {
		return "ERROR"
	}
	return "ALLOWED"
}

func (s *SchemaService) logAudit(ctx context.Context, principal, action, catalogIdent, schemaIdent, phase, status string, err error) {
	entry := &domain.AuditEntry{
		PrincipalName: principal,
		Action:        action,
		CatalogIdent:  catalogIdent,
		SchemaIdent:   schemaIdent,
		Phase:         phase,
		Status:        status,
		CreatedAt:     time.Now().UTC(),
	}
	if err != nil {
		msg := err.Error()
		entry.ErrorMessage = &msg
	}
	if writeErr := s.audit.Insert(ctx, entry); writeErr != nil {
		s.logger.Warn("audit insert failed", "action", action, "principal", principal, "ident", schemaIdent, "error", writeErr)
	}
}
