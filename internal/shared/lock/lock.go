// Package lock serializes work on a single document. Only operations on the
// same key exclude each other; there is no global lock.
package lock

import "context"

// Unlock releases a held lock. Calling it more than once is a no-op.
type Unlock func()

// Locker acquires exclusive, context-bounded locks by key.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// DocumentKey namespaces a document id.
func DocumentKey(documentID string) string {
	return "document:" + documentID
}
