package ingest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jirafa27/DocumentSearcher/internal/documents"
	"github.com/jirafa27/DocumentSearcher/internal/index"
	"github.com/jirafa27/DocumentSearcher/internal/index/bleveindex"
	"github.com/jirafa27/DocumentSearcher/internal/shared/apperr"
	"github.com/jirafa27/DocumentSearcher/internal/shared/lock"
	"github.com/jirafa27/DocumentSearcher/internal/shared/storage/object/local"
)

const (
	ownerA = "0b1f3d4e-5a6b-4c7d-8e9f-a0b1c2d3e4f5"
	ownerB = "1c2d3e4f-6a7b-4d8e-9f0a-b1c2d3e4f5a6"
)

var errInjected = errors.New("injected failure")

// textExtractor treats the payload as UTF-8 text.
type textExtractor struct {
	calls atomic.Int32
	err   error
}

func (e *textExtractor) Extract(_ context.Context, data []byte, _ string) (string, error) {
	e.calls.Add(1)
	if e.err != nil {
		return "", e.err
	}
	return string(data), nil
}

type flakyIndex struct {
	index.Index
	mu         sync.Mutex
	failUpsert int
	failRemove bool
}

func (f *flakyIndex) Upsert(ctx context.Context, e index.Entry) error {
	f.mu.Lock()
	fail := f.failUpsert > 0
	if fail {
		f.failUpsert--
	}
	f.mu.Unlock()
	if fail {
		return apperr.Storage("index.upsert", errInjected)
	}
	return f.Index.Upsert(ctx, e)
}

func (f *flakyIndex) Remove(ctx context.Context, id string) error {
	if f.failRemove {
		return apperr.Storage("index.remove", errInjected)
	}
	return f.Index.Remove(ctx, id)
}

type flakyRepo struct {
	*documents.MemoryRepo
	failDelete     bool
	failUpsert     bool
	missingContent bool

	mu       sync.Mutex
	upserted []documents.Content
}

func (r *flakyRepo) GetContent(ctx context.Context, id string) (documents.Content, error) {
	if r.missingContent {
		return documents.Content{}, documents.ErrNotFound
	}
	return r.MemoryRepo.GetContent(ctx, id)
}

func (r *flakyRepo) Delete(ctx context.Context, id string) error {
	if r.failDelete {
		return apperr.Storage("documents.delete", errInjected)
	}
	return r.MemoryRepo.Delete(ctx, id)
}

func (r *flakyRepo) Upsert(ctx context.Context, doc documents.Document, c documents.Content) error {
	if r.failUpsert {
		return apperr.Storage("documents.upsert", errInjected)
	}
	r.mu.Lock()
	r.upserted = append(r.upserted, c)
	r.mu.Unlock()
	return r.MemoryRepo.Upsert(ctx, doc, c)
}

type fixture struct {
	svc       *Service
	repo      *flakyRepo
	index     *flakyIndex
	store     *local.Store
	storeDir  string
	extractor *textExtractor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ix, err := bleveindex.Open("")
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	t.Cleanup(func() { ix.Close() })

	dir := t.TempDir()
	f := &fixture{
		repo:      &flakyRepo{MemoryRepo: documents.NewMemoryRepo()},
		index:     &flakyIndex{Index: ix},
		store:     local.New(dir),
		storeDir:  dir,
		extractor: &textExtractor{},
	}
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f.svc = &Service{
		Repo:        f.repo,
		Index:       f.index,
		Store:       f.store,
		Locker:      lock.NewMemory(),
		Extractor:   f.extractor,
		MaxFileSize: 1 << 20,
		Now:         func() time.Time { return now },
	}
	return f
}

func upload(owner, name, text string) documents.UploadInput {
	return documents.UploadInput{OwnerID: owner, FileName: name, DeclaredType: "pdf", Data: []byte(text)}
}

func (f *fixture) search(t *testing.T, q index.Query) []index.Hit {
	t.Helper()
	hits, err := f.index.Index.Query(context.Background(), q)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	return hits
}
