// Package pgindex implements index.Index on a Postgres tsvector column.
//
// Documents are matched with plainto_tsquery and ranked with ts_rank_cd.
// Match spans are located by tokenizing the stored text in Go and asking
// Postgres for each word's lexeme under the same text search configuration,
// so the write side and the read side normalize words identically.
package pgindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jirafa27/DocumentSearcher/internal/index"
	"github.com/jirafa27/DocumentSearcher/internal/shared/apperr"
)

const defaultConfig = "russian"

const upsertSQL = `
INSERT INTO document_search_index (document_id, ts_config, tsv, indexed_at)
VALUES ($1, $2::regconfig, to_tsvector($2::regconfig, $3), now())
ON CONFLICT (document_id) DO UPDATE
SET ts_config = EXCLUDED.ts_config,
    tsv = EXCLUDED.tsv,
    indexed_at = EXCLUDED.indexed_at`

const removeSQL = `DELETE FROM document_search_index WHERE document_id = $1`

const morphQuerySQL = `
SELECT s.document_id::text, c.content, ts_rank_cd(s.tsv, q.query)::float8 AS score
FROM document_search_index s
JOIN documents d ON d.id = s.document_id
JOIN document_contents c ON c.document_id = s.document_id
CROSS JOIN plainto_tsquery($1::regconfig, $2) AS q(query)
WHERE s.tsv @@ q.query
  AND ($3::uuid IS NULL OR d.owner_id = $3::uuid)
  AND ($4::uuid IS NULL OR d.id = $4::uuid)
ORDER BY score DESC, s.document_id
LIMIT $5`

const exactQuerySQL = `
SELECT c.document_id::text, c.content
FROM document_contents c
JOIN documents d ON d.id = c.document_id
JOIN document_search_index s ON s.document_id = c.document_id
WHERE c.content ILIKE '%' || $1 || '%' ESCAPE '\'
  AND ($2::uuid IS NULL OR d.owner_id = $2::uuid)
  AND ($3::uuid IS NULL OR d.id = $3::uuid)
ORDER BY (length(lower(c.content)) - length(replace(lower(c.content), lower($5), ''))) / length($5) DESC,
         c.document_id
LIMIT $4`

// Index stores tsvectors in document_search_index.
type Index struct {
	DB     *sql.DB
	Config string
	lexer  *Lexer
}

// New returns an Index using the given text search configuration.
func New(db *sql.DB, config string) *Index {
	if strings.TrimSpace(config) == "" {
		config = defaultConfig
	}
	return &Index{DB: db, Config: config, lexer: &Lexer{DB: db, Config: config}}
}

func (ix *Index) Upsert(ctx context.Context, e index.Entry) error {
	if ix.DB == nil {
		return index.ErrClosed
	}
	if _, err := ix.DB.ExecContext(ctx, upsertSQL, e.DocumentID, ix.Config, e.Text); err != nil {
		return apperr.Storage("index.upsert", err)
	}
	return nil
}

func (ix *Index) Remove(ctx context.Context, documentID string) error {
	if ix.DB == nil {
		return index.ErrClosed
	}
	if _, err := ix.DB.ExecContext(ctx, removeSQL, documentID); err != nil {
		return apperr.Storage("index.remove", err)
	}
	return nil
}

func (ix *Index) Query(ctx context.Context, q index.Query) ([]index.Hit, error) {
	if ix.DB == nil {
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
	if q.Exact {
		return ix.queryExact(ctx, text, q, limit)
	}
	return ix.queryMorph(ctx, text, q, limit)
}

func (ix *Index) queryMorph(ctx context.Context, text string, q index.Query, limit int) ([]index.Hit, error) {
	rows, err := ix.DB.QueryContext(ctx, morphQuerySQL, ix.Config, text, nullUUID(q.OwnerID), nullUUID(q.DocumentID), limit)
	if err != nil {
		return nil, apperr.Storage("index.query", err)
	}
	defer rows.Close()

	var hits []index.Hit
	for rows.Next() {
		var h index.Hit
		if err := rows.Scan(&h.DocumentID, &h.Text, &h.Score); err != nil {
			return nil, apperr.Storage("index.query", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("index.query", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	queryWords := index.Words(text)
	docWords := make([][]index.Word, len(hits))
	distinct := make(map[string]struct{})
	for _, w := range queryWords {
		distinct[strings.ToLower(w.Text)] = struct{}{}
	}
	for i, h := range hits {
		docWords[i] = index.Words(h.Text)
		for _, w := range docWords[i] {
			distinct[strings.ToLower(w.Text)] = struct{}{}
		}
	}
	lexemes, err := ix.lexer.Lexemes(ctx, keys(distinct))
	if err != nil {
		return nil, err
	}

	terms := make(map[string]struct{})
	for _, w := range queryWords {
		if lx := lexemes[strings.ToLower(w.Text)]; lx != "" {
			terms[lx] = struct{}{}
		}
	}

	out := hits[:0]
	for i, h := range hits {
		var spans []index.Span
		for _, w := range docWords[i] {
			if _, ok := terms[lexemes[strings.ToLower(w.Text)]]; ok {
				spans = append(spans, index.Span{Start: w.Start, End: w.End})
			}
		}
		if len(spans) == 0 {
			continue
		}
		h.Spans = index.MergePhrases([]rune(h.Text), spans)
		out = append(out, h)
	}
	return out, nil
}

func (ix *Index) queryExact(ctx context.Context, text string, q index.Query, limit int) ([]index.Hit, error) {
	rows, err := ix.DB.QueryContext(ctx, exactQuerySQL, escapeLike(text), nullUUID(q.OwnerID), nullUUID(q.DocumentID), limit, text)
	if err != nil {
		return nil, apperr.Storage("index.query", err)
	}
	defer rows.Close()

	var hits []index.Hit
	for rows.Next() {
		var h index.Hit
		if err := rows.Scan(&h.DocumentID, &h.Text); err != nil {
			return nil, apperr.Storage("index.query", err)
		}
		h.Spans = index.FindExact(h.Text, text)
		if len(h.Spans) == 0 {
			continue
		}
		h.Score = float64(len(h.Spans))
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("index.query", err)
	}
	// Substring counts include matches inside longer words.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}

func (ix *Index) Close() error {
	ix.DB = nil
	return nil
}

func nullUUID(v string) sql.NullString {
	v = strings.TrimSpace(v)
	return sql.NullString{String: v, Valid: v != ""}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// ErrLexize wraps failures of the lexeme lookup.
var ErrLexize = errors.New("lexize failed")

func lexizeError(err error) error {
	return apperr.Storage("index.lexize", fmt.Errorf("%w: %w", ErrLexize, err))
}

var _ index.Index = (*Index)(nil)
