package documents

import "context"

// Repo persists documents and their extracted content. Every method runs in
// its own transaction scope; Upsert and Delete touch both tables atomically.
type Repo interface {
	// Upsert writes the document row and its content in one transaction.
	// An existing document keeps its owner and upload time; a different
	// owner yields ErrOwnerMismatch.
	Upsert(ctx context.Context, doc Document, content Content) error
	Get(ctx context.Context, id string) (Document, error)
	GetContent(ctx context.Context, id string) (Content, error)
	GetMany(ctx context.Context, ids []string) (map[string]Document, error)
	FindByHash(ctx context.Context, ownerID, hash string) (Document, error)
	List(ctx context.Context, ownerID string, limit, offset int) ([]Document, error)
	// ListIDs pages through every document id in ascending order.
	ListIDs(ctx context.Context, afterID string, limit int) ([]string, error)
	// Delete removes the document; its content goes with it.
	Delete(ctx context.Context, id string) error
}
