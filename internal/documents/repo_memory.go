package documents

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu       sync.RWMutex
	docs     map[string]Document
	contents map[string]Content
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs:     make(map[string]Document),
		contents: make(map[string]Content),
	}
}

func (r *MemoryRepo) Upsert(ctx context.Context, doc Document, content Content) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.docs[doc.ID]; ok {
		if prev.OwnerID != doc.OwnerID {
			return ErrOwnerMismatch
		}
		doc.UploadedAt = prev.UploadedAt
	}
	content.DocumentID = doc.ID
	r.docs[doc.ID] = doc
	r.contents[doc.ID] = content
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepo) GetContent(ctx context.Context, id string) (Content, error) {
	if err := ctx.Err(); err != nil {
		return Content{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contents[id]
	if !ok {
		return Content{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) GetMany(ctx context.Context, ids []string) (map[string]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Document, len(ids))
	for _, id := range ids {
		if doc, ok := r.docs[id]; ok {
			out[id] = doc
		}
	}
	return out, nil
}

func (r *MemoryRepo) FindByHash(ctx context.Context, ownerID, hash string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found []Document
	for _, doc := range r.docs {
		if doc.OwnerID == ownerID && doc.FileHash == hash {
			found = append(found, doc)
		}
	}
	if len(found) == 0 {
		return Document{}, ErrNotFound
	}
	sort.Slice(found, func(i, j int) bool { return found[i].UploadedAt.Before(found[j].UploadedAt) })
	return found[0], nil
}

// List returns documents for an owner, newest first, honoring limit/offset.
func (r *MemoryRepo) List(ctx context.Context, ownerID string, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	docs := make([]Document, 0)
	for _, doc := range r.docs {
		if ownerID == "" || doc.OwnerID == ownerID {
			docs = append(docs, doc)
		}
	}
	r.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].UploadedAt.After(docs[j].UploadedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	if offset >= len(docs) {
		return []Document{}, nil
	}
	end := len(docs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return docs[offset:end], nil
}

func (r *MemoryRepo) ListIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	ids := make([]string, 0, len(r.docs))
	for id := range r.docs {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return ErrNotFound
	}
	delete(r.docs, id)
	delete(r.contents, id)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
