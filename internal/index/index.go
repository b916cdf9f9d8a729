// Package index defines the searchable representation of document text.
//
// Implementations live in subpackages: pgindex keeps a tsvector column in
// Postgres, bleveindex keeps a standalone bleve index. Both apply the same
// normalization policy on the write and the read side, and both report match
// spans as code-point offsets into the original text.
package index

import (
	"context"
	"errors"
)

// ErrClosed is returned by an index used after Close.
var ErrClosed = errors.New("index closed")

// Entry is one document's searchable text.
type Entry struct {
	DocumentID string
	OwnerID    string
	Text       string
}

// Query selects documents and match locations.
type Query struct {
	Text       string
	Exact      bool
	OwnerID    string
	DocumentID string
	// Limit caps the number of documents returned; zero means the
	// implementation default.
	Limit int
}

// Span is a half-open code-point range [Start, End) in the original text.
type Span struct {
	Start int
	End   int
}

// Hit is one matching document. Spans are sorted by Start and never
// overlap. Text is the snapshot the spans refer to.
type Hit struct {
	DocumentID string
	Score      float64
	Spans      []Span
	Text       string
}

// Index is the contract the ingestion and search paths depend on.
type Index interface {
	// Upsert replaces the document's representation atomically.
	Upsert(ctx context.Context, e Entry) error
	// Remove deletes the document's representation. Removing an absent
	// document is not an error.
	Remove(ctx context.Context, documentID string) error
	Query(ctx context.Context, q Query) ([]Hit, error)
	Close() error
}

// DefaultLimit is the document cap used when Query.Limit is zero.
const DefaultLimit = 200
