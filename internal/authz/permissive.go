// Package authz provides a minimal domain.AuthorizationChecker for
// deployments that haven't wired a real privilege store. It is not a
// security boundary — it exists so internal/service can depend on the
// AuthorizationChecker port unconditionally rather than special-casing a
// nil checker at every call site.
package authz

import (
	"context"

	"metacat/internal/domain"
)

// AllowAll grants every privilege check. Wire a real implementation
// (backed by whatever grant model the deployment already has) in its
// place; the schema service only ever talks to the interface.
type AllowAll struct{}

func (AllowAll) CheckPrivilege(_ context.Context, _ string, _ domain.SecurableKind, _ string, _ domain.Privilege) (bool, error) {
	return true, nil
}

// DenyAll rejects every privilege check. Useful for tests that need to
// assert a caller path is actually authorization-gated.
type DenyAll struct{}

func (DenyAll) CheckPrivilege(_ context.Context, _ string, _ domain.SecurableKind, _ string, _ domain.Privilege) (bool, error) {
	return false, nil
}
