package pgindex

import (
	"context"
	"database/sql"
	"sort"
)

const lexizeBatch = 5000

const lexizeSQL = `
SELECT w, COALESCE((tsvector_to_array(to_tsvector($1::regconfig, w)))[1], '')
FROM unnest($2::text[]) AS w`

// Lexer maps words to the lexeme Postgres would store for them. Stop words
// map to the empty string.
type Lexer struct {
	DB     *sql.DB
	Config string
}

// Lexemes resolves every word in one round trip per batch.
func (l *Lexer) Lexemes(ctx context.Context, words []string) (map[string]string, error) {
	out := make(map[string]string, len(words))
	if len(words) == 0 {
		return out, nil
	}
	sorted := append([]string(nil), words...)
	sort.Strings(sorted)

	for start := 0; start < len(sorted); start += lexizeBatch {
		end := min(start+lexizeBatch, len(sorted))
		if err := l.lexizeBatch(ctx, sorted[start:end], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (l *Lexer) lexizeBatch(ctx context.Context, words []string, out map[string]string) error {
	rows, err := l.DB.QueryContext(ctx, lexizeSQL, l.Config, words)
	if err != nil {
		return lexizeError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var word, lexeme string
		if err := rows.Scan(&word, &lexeme); err != nil {
			return lexizeError(err)
		}
		out[word] = lexeme
	}
	if err := rows.Err(); err != nil {
		return lexizeError(err)
	}
	return nil
}
