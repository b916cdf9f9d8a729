// Package bleveindex implements index.Index with a standalone bleve index.
package bleveindex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/lang/ru"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	unicodetok "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/jirafa27/DocumentSearcher/internal/index"
	"github.com/jirafa27/DocumentSearcher/internal/shared/apperr"
	"github.com/jirafa27/DocumentSearcher/internal/shared/telemetry"
)

const (
	fieldContent = "content"
	fieldExact   = "exact"
	fieldOwner   = "owner_id"

	exactAnalyzer = "exact_ci"

	scanPageSize = 500
)

// Index wraps a bleve index. The content field is analyzed with the Russian
// analyzer (lowercase, stop words, snowball stemming); the exact field is
// only lowercased.
type Index struct {
	idx bleve.Index
}

// Open opens the index at path, creating it when missing. An empty path
// keeps the index in memory.
func Open(path string) (*Index, error) {
	m, err := buildMapping()
	if err != nil {
		return nil, err
	}
	if path == "" {
		idx, err := bleve.NewMemOnly(m)
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &Index{idx: idx}, nil
	}
	if _, statErr := os.Stat(path); statErr == nil {
		idx, err := bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open index %s: %w", path, err)
		}
		telemetry.Info("index.bleve.opened", map[string]any{"path": path})
		return &Index{idx: idx}, nil
	}
	idx, err := bleve.New(path, m)
	if err != nil {
		return nil, fmt.Errorf("create index %s: %w", path, err)
	}
	telemetry.Info("index.bleve.created", map[string]any{"path": path})
	return &Index{idx: idx}, nil
}

func buildMapping() (mapping.IndexMapping, error) {
	im := bleve.NewIndexMapping()
	err := im.AddCustomAnalyzer(exactAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicodetok.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("register analyzer: %w", err)
	}

	content := bleve.NewTextFieldMapping()
	content.Analyzer = ru.AnalyzerName
	content.Store = true
	content.IncludeTermVectors = true
	content.IncludeInAll = false

	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = exactAnalyzer
	exact.Store = false
	exact.IncludeTermVectors = true
	exact.IncludeInAll = false

	owner := bleve.NewKeywordFieldMapping()
	owner.IncludeInAll = false

	doc := bleve.NewDocumentMapping()
	doc.Dynamic = false
	doc.AddFieldMappingsAt(fieldContent, content)
	doc.AddFieldMappingsAt(fieldExact, exact)
	doc.AddFieldMappingsAt(fieldOwner, owner)

	im.DefaultMapping = doc
	im.DefaultAnalyzer = ru.AnalyzerName
	return im, nil
}

func (ix *Index) Upsert(ctx context.Context, e index.Entry) error {
	if ix.idx == nil {
		return index.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := map[string]interface{}{
		fieldContent: e.Text,
		fieldExact:   e.Text,
		fieldOwner:   e.OwnerID,
	}
	if err := ix.idx.Index(e.DocumentID, doc); err != nil {
		return apperr.Storage("index.upsert", err)
	}
	return nil
}

func (ix *Index) Remove(ctx context.Context, documentID string) error {
	if ix.idx == nil {
		return index.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ix.idx.Delete(documentID); err != nil {
		return apperr.Storage("index.remove", err)
	}
	return nil
}

func (ix *Index) Query(ctx context.Context, q index.Query) ([]index.Hit, error) {
	if ix.idx == nil {
		return nil, index.ErrClosed
	}
	text := index.NormalizeQuery(q.Text)
	if text == "" {
		return nil, nil
	}
	limit := q.Limit
	if limit <= 0 {
		limit = index.DefaultLimit
	}

	var filters []query.Query
	if q.OwnerID != "" {
		tq := bleve.NewTermQuery(q.OwnerID)
		tq.SetField(fieldOwner)
		filters = append(filters, tq)
	}
	if q.DocumentID != "" {
		filters = append(filters, bleve.NewDocIDQuery([]string{q.DocumentID}))
	}

	// The exact analyzer drops punctuation, so a phrase without word runes
	// has no tokens to match on and every candidate is verified by scan.
	if q.Exact && strings.IndexFunc(text, index.IsWordRune) < 0 {
		return ix.scanExact(ctx, conjoin(bleve.NewMatchAllQuery(), filters), text, limit)
	}

	var main query.Query
	if q.Exact {
		pq := bleve.NewMatchPhraseQuery(text)
		pq.SetField(fieldExact)
		pq.Analyzer = exactAnalyzer
		main = pq
	} else {
		mq := bleve.NewMatchQuery(text)
		mq.SetField(fieldContent)
		mq.Analyzer = ru.AnalyzerName
		mq.SetOperator(query.MatchQueryOperatorAnd)
		main = mq
	}

	req := bleve.NewSearchRequestOptions(conjoin(main, filters), limit, 0, false)
	req.Fields = []string{fieldContent}
	req.IncludeLocations = !q.Exact
	req.SortBy([]string{"-_score", "_id"})

	res, err := ix.search(ctx, req)
	if err != nil {
		return nil, err
	}

	hits := make([]index.Hit, 0, len(res.Hits))
	for _, dm := range res.Hits {
		content, _ := dm.Fields[fieldContent].(string)
		h := index.Hit{DocumentID: dm.ID, Score: dm.Score, Text: content}
		if q.Exact {
			h.Spans = index.FindExact(content, text)
			h.Score = float64(len(h.Spans))
		} else {
			h.Spans = termSpans(content, dm.Locations[fieldContent])
		}
		if len(h.Spans) == 0 {
			continue
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// scanExact walks every document q selects in id order and keeps those
// containing text, best occurrence count first.
func (ix *Index) scanExact(ctx context.Context, q query.Query, text string, limit int) ([]index.Hit, error) {
	var hits []index.Hit
	for from := 0; ; from += scanPageSize {
		req := bleve.NewSearchRequestOptions(q, scanPageSize, from, false)
		req.Fields = []string{fieldContent}
		req.SortBy([]string{"_id"})

		res, err := ix.search(ctx, req)
		if err != nil {
			return nil, err
		}
		for _, dm := range res.Hits {
			content, _ := dm.Fields[fieldContent].(string)
			spans := index.FindExact(content, text)
			if len(spans) == 0 {
				continue
			}
			hits = append(hits, index.Hit{DocumentID: dm.ID, Score: float64(len(spans)), Spans: spans, Text: content})
		}
		if len(res.Hits) < scanPageSize {
			break
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (ix *Index) search(ctx context.Context, req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	res, err := ix.idx.SearchInContext(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, apperr.Storage("index.query", err)
	}
	return res, nil
}

func conjoin(main query.Query, filters []query.Query) query.Query {
	if len(filters) == 0 {
		return main
	}
	return bleve.NewConjunctionQuery(append([]query.Query{main}, filters...)...)
}

func termSpans(content string, locs search.TermLocationMap) []index.Span {
	var byteSpans []index.Span
	for _, ls := range locs {
		for _, l := range ls {
			byteSpans = append(byteSpans, index.Span{Start: int(l.Start), End: int(l.End)})
		}
	}
	if len(byteSpans) == 0 {
		return nil
	}
	spans := index.ByteSpansToRunes(content, byteSpans)
	return index.MergePhrases([]rune(content), spans)
}

// Count returns the number of indexed documents.
func (ix *Index) Count() (uint64, error) {
	if ix.idx == nil {
		return 0, index.ErrClosed
	}
	return ix.idx.DocCount()
}

func (ix *Index) Close() error {
	if ix.idx == nil {
		return nil
	}
	err := ix.idx.Close()
	ix.idx = nil
	return err
}

var _ index.Index = (*Index)(nil)
