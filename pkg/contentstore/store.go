package contentstore

import (
	"context"
	"errors"
)

// ErrNotFound means the content key has no stored body. The indexer treats
// it as "skip this report", not as a failure.
var ErrNotFound = errors.New("content not found")

// ContentStore hands out raw report bodies by content key. Release is a
// best-effort cleanup hook for stores that drop the heavyweight original
// after indexing; implementations where deletion makes no sense may no-op.
type ContentStore interface {
	Fetch(ctx context.Context, key string) (string, error)
	Release(ctx context.Context, key string) error
}
