package lock

import (
	"context"

	"metacat/internal/domain"
)

// AcquireIdent acquires the lock for ident.Levels in mode, a small
// convenience wrapper so callers in internal/dispatcher never build a raw
// []string path by hand.
func (t *TreeLock) AcquireIdent(ctx context.Context, ident domain.Ident, mode Mode) (Release, error) {
	return t.Acquire(ctx, ident.Levels, mode)
}
