package ingest

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/jirafa27/DocumentSearcher/internal/documents"
	"github.com/jirafa27/DocumentSearcher/internal/index"
	"github.com/jirafa27/DocumentSearcher/internal/shared/lock"
	"github.com/jirafa27/DocumentSearcher/internal/shared/metrics"
	"github.com/jirafa27/DocumentSearcher/internal/shared/telemetry"
)

const reindexPageSize = 500

// Reindex rebuilds a document's index entry from its stored content. When
// the document no longer exists any leftover index entry is removed.
func (s *Service) Reindex(ctx context.Context, id string) error {
	r := newRun("reindex", id)
	if err := ValidateID(id); err != nil {
		return r.fail(err)
	}

	unlock, err := s.Locker.Lock(ctx, lock.DocumentKey(id))
	if err != nil {
		return r.fail(err)
	}
	defer unlock()

	doc, content, existed, err := s.current(ctx, id)
	if err != nil {
		return r.fail(err)
	}
	if !existed {
		if err := s.Index.Remove(ctx, id); err != nil {
			return r.fail(err)
		}
		return r.fail(documents.ErrNotFound)
	}
	r.to(StateStored)

	if err := s.Index.Upsert(ctx, index.Entry{DocumentID: id, OwnerID: doc.OwnerID, Text: content.Text}); err != nil {
		return r.fail(err)
	}
	r.to(StateIndexed)
	r.to(StateComplete)
	metrics.IncIngest("reindex", "ok")
	return nil
}

// ReindexAll rebuilds the index for every stored document with at most
// workers concurrent rebuilds. It returns the number of rebuilt documents.
func (s *Service) ReindexAll(ctx context.Context, workers int) (int, error) {
	if workers <= 0 {
		workers = 1
	}
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	after := ""
	for {
		ids, err := s.Repo.ListIDs(gctx, after, reindexPageSize)
		if err != nil {
			_ = g.Wait()
			return int(done.Load()), err
		}
		if len(ids) == 0 {
			break
		}
		for _, id := range ids {
			g.Go(func() error {
				err := s.Reindex(gctx, id)
				if errors.Is(err, documents.ErrNotFound) {
					return nil
				}
				if err != nil {
					return err
				}
				done.Add(1)
				return nil
			})
		}
		after = ids[len(ids)-1]
		if len(ids) < reindexPageSize {
			break
		}
	}

	err := g.Wait()
	telemetry.Info("ingest.reindex_all", map[string]any{
		"documents": done.Load(),
		"error":     err,
	})
	return int(done.Load()), err
}
