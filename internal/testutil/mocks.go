// Package testutil provides shared mock implementations of domain
// interfaces for use in tests across the codebase, following the same
// function-field mock convention the rest of the project's tests use.
package testutil

import (
	"context"

	"metacat/internal/domain"
)

// MockAuditRepo implements domain.AuditRepository for testing.
type MockAuditRepo struct {
	InsertFn func(ctx context.Context, e *domain.AuditEntry) error
	ListFn   func(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error)
	Entries  []*domain.AuditEntry
}

func (m *MockAuditRepo) Insert(ctx context.Context, e *domain.AuditEntry) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, e); err != nil {
			return err
		}
	}
	m.Entries = append(m.Entries, e)
	return nil
}

func (m *MockAuditRepo) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	panic("unexpected call to MockAuditRepo.List")
}

func (m *MockAuditRepo) LastEntry() *domain.AuditEntry {
	if len(m.Entries) == 0 {
		return nil
	}
	return m.Entries[len(m.Entries)-1]
}

// MockAuthChecker implements domain.AuthorizationChecker for testing.
type MockAuthChecker struct {
	CheckPrivilegeFn func(ctx context.Context, principal string, kind domain.SecurableKind, securable string, priv domain.Privilege) (bool, error)
}

func (m *MockAuthChecker) CheckPrivilege(ctx context.Context, principal string, kind domain.SecurableKind, securable string, priv domain.Privilege) (bool, error) {
	if m.CheckPrivilegeFn != nil {
		return m.CheckPrivilegeFn(ctx, principal, kind, securable, priv)
	}
	return true, nil
}

// MockDispatcher implements domain.SchemaDispatcher for testing the
// service layer without a real router/store/lock stack behind it.
type MockDispatcher struct {
	ListSchemasFn  func(ctx context.Context, ns domain.Namespace) ([]domain.Ident, error)
	CreateSchemaFn func(ctx context.Context, ident domain.Ident, comment string, properties map[string]string) (domain.CombinedSchema, error)
	LoadSchemaFn   func(ctx context.Context, ident domain.Ident) (domain.CombinedSchema, error)
	AlterSchemaFn  func(ctx context.Context, ident domain.Ident, changes ...domain.SchemaChange) (domain.CombinedSchema, error)
	DropSchemaFn   func(ctx context.Context, ident domain.Ident, cascade bool) (bool, error)
}

func (m *MockDispatcher) ListSchemas(ctx context.Context, ns domain.Namespace) ([]domain.Ident, error) {
	if m.ListSchemasFn != nil {
		return m.ListSchemasFn(ctx, ns)
	}
	panic("unexpected call to MockDispatcher.ListSchemas")
}

func (m *MockDispatcher) CreateSchema(ctx context.Context, ident domain.Ident, comment string, properties map[string]string) (domain.CombinedSchema, error) {
	if m.CreateSchemaFn != nil {
		return m.CreateSchemaFn(ctx, ident, comment, properties)
	}
	panic("unexpected call to MockDispatcher.CreateSchema")
}

func (m *MockDispatcher) LoadSchema(ctx context.Context, ident domain.Ident) (domain.CombinedSchema, error) {
	if m.LoadSchemaFn != nil {
		return m.LoadSchemaFn(ctx, ident)
	}
	panic("unexpected call to MockDispatcher.LoadSchema")
}

func (m *MockDispatcher) AlterSchema(ctx context.Context, ident domain.Ident, changes ...domain.SchemaChange) (domain.CombinedSchema, error) {
	if m.AlterSchemaFn != nil {
		return m.AlterSchemaFn(ctx, ident, changes...)
	}
	panic("unexpected call to MockDispatcher.AlterSchema")
}

func (m *MockDispatcher) DropSchema(ctx context.Context, ident domain.Ident, cascade bool) (bool, error) {
	if m.DropSchemaFn != nil {
		return m.DropSchemaFn(ctx, ident, cascade)
	}
	panic("unexpected call to MockDispatcher.DropSchema")
}
