// Package search plans queries against the index and turns match spans into
// ranked results with surrounding context.
package search

import (
	"context"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jirafa27/DocumentSearcher/internal/documents"
	"github.com/jirafa27/DocumentSearcher/internal/index"
	"github.com/jirafa27/DocumentSearcher/internal/shared/apperr"
	"github.com/jirafa27/DocumentSearcher/internal/shared/config"
	"github.com/jirafa27/DocumentSearcher/internal/shared/metrics"
	"github.com/jirafa27/DocumentSearcher/internal/shared/telemetry"
	"github.com/jirafa27/DocumentSearcher/internal/snippet"
)

const (
	MaxQueryLength = 1000
	DefaultLimit   = 20
	MaxLimit       = 100
)

// DocumentLookup resolves metadata for matched documents.
type DocumentLookup interface {
	GetMany(ctx context.Context, ids []string) (map[string]documents.Document, error)
}

// Request is one search. Empty OwnerID and DocumentID mean no filter; both
// filters combine conjunctively.
type Request struct {
	Query         string
	OwnerID       string
	DocumentID    string
	Exact         bool
	ContextBefore int
	ContextAfter  int
	Limit         int
	Offset        int
}

// Match is one located occurrence.
type Match struct {
	DocumentID    string
	Start         int
	End           int
	Matched       string
	Score         float64
	ContextBefore string
	ContextAfter  string
	Window        snippet.Window
	Document      documents.Document
}

// Meta summarizes a search before pagination.
type Meta struct {
	Query          string
	Exact          bool
	ContextBefore  int
	ContextAfter   int
	Limit          int
	Offset         int
	TotalDocuments int
	TotalMatches   int
}

// Result is a page of matches.
type Result struct {
	Matches []Match
	Meta    Meta
}

// Service runs searches.
type Service struct {
	Index          index.Index
	Docs           DocumentLookup
	MaxContextSize int
	// MaxDocuments caps how many documents the index may return.
	MaxDocuments int
}

// Search validates req, queries the index and orders matches by score,
// then document id, then offset.
func (s *Service) Search(ctx context.Context, req Request) (Result, error) {
	started := time.Now()
	mode := "morph"
	if req.Exact {
		mode = "exact"
	}

	query, err := s.validate(&req)
	if err != nil {
		metrics.ObserveSearch(mode, "invalid", time.Since(started), 0)
		return Result{}, err
	}

	hits, err := s.Index.Query(ctx, index.Query{
		Text:       query,
		Exact:      req.Exact,
		OwnerID:    req.OwnerID,
		DocumentID: req.DocumentID,
		Limit:      s.MaxDocuments,
	})
	if err != nil {
		metrics.ObserveSearch(mode, "error", time.Since(started), 0)
		return Result{}, err
	}

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.DocumentID)
	}
	docs := map[string]documents.Document{}
	if len(ids) > 0 && s.Docs != nil {
		docs, err = s.Docs.GetMany(ctx, ids)
		if err != nil {
			metrics.ObserveSearch(mode, "error", time.Since(started), 0)
			return Result{}, err
		}
	}

	var (
		matches  []Match
		docCount int
	)
	for _, h := range hits {
		doc, ok := docs[h.DocumentID]
		if s.Docs != nil && !ok {
			// Deleted between the index read and the metadata read.
			continue
		}
		if len(h.Spans) == 0 {
			continue
		}
		docCount++
		runes := snippet.NewRunes(h.Text)
		for _, sp := range h.Spans {
			w := runes.Extract(sp.Start, sp.End, req.ContextBefore, req.ContextAfter)
			matches = append(matches, Match{
				DocumentID:    h.DocumentID,
				Start:         sp.Start,
				End:           sp.End,
				Matched:       w.Matched,
				Score:         h.Score,
				ContextBefore: w.Before,
				ContextAfter:  w.After,
				Window:        w,
				Document:      doc,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.DocumentID != b.DocumentID {
			return a.DocumentID < b.DocumentID
		}
		return a.Start < b.Start
	})

	meta := Meta{
		Query:          query,
		Exact:          req.Exact,
		ContextBefore:  req.ContextBefore,
		ContextAfter:   req.ContextAfter,
		Limit:          req.Limit,
		Offset:         req.Offset,
		TotalDocuments: docCount,
		TotalMatches:   len(matches),
	}

	page := paginate(matches, req.Offset, req.Limit)
	metrics.ObserveSearch(mode, "ok", time.Since(started), len(matches))
	telemetry.Info("search.complete", map[string]any{
		"mode":        mode,
		"owner_id":    req.OwnerID,
		"document_id": req.DocumentID,
		"documents":   docCount,
		"matches":     len(matches),
		"duration_ms": time.Since(started).Milliseconds(),
	})
	return Result{Matches: page, Meta: meta}, nil
}

func (s *Service) validate(req *Request) (string, error) {
	query := index.NormalizeQuery(req.Query)
	n := utf8.RuneCountInString(query)
	if n == 0 {
		return "", apperr.Invalid("query", "must not be empty")
	}
	if n > MaxQueryLength {
		return "", apperr.Invalid("query", fmt.Sprintf("must be at most %d characters", MaxQueryLength))
	}

	maxContext := s.MaxContextSize
	if maxContext <= 0 {
		maxContext = config.MaxContextSize
	}
	if req.ContextBefore < 0 || req.ContextBefore > maxContext {
		return "", apperr.Invalid("context_before", fmt.Sprintf("must be between 0 and %d", maxContext))
	}
	if req.ContextAfter < 0 || req.ContextAfter > maxContext {
		return "", apperr.Invalid("context_after", fmt.Sprintf("must be between 0 and %d", maxContext))
	}

	if req.OwnerID != "" {
		if _, err := uuid.Parse(req.OwnerID); err != nil {
			return "", apperr.Invalid("owner_id", "must be a UUID")
		}
	}
	if req.DocumentID != "" {
		if _, err := uuid.Parse(req.DocumentID); err != nil {
			return "", apperr.Invalid("document_id", "must be a UUID")
		}
	}

	switch {
	case req.Limit == 0:
		req.Limit = DefaultLimit
	case req.Limit < 0 || req.Limit > MaxLimit:
		return "", apperr.Invalid("limit", fmt.Sprintf("must be between 1 and %d", MaxLimit))
	}
	if req.Offset < 0 {
		return "", apperr.Invalid("offset", "must not be negative")
	}
	return query, nil
}

func paginate(matches []Match, offset, limit int) []Match {
	if offset >= len(matches) {
		return []Match{}
	}
	end := offset + limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[offset:end]
}
