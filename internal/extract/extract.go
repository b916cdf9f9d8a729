// Package extract turns uploaded PDF and DOCX bytes into plain text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/sync/semaphore"
	"golang.org/x/text/unicode/norm"

	"github.com/jirafa27/DocumentSearcher/internal/shared/apperr"
	"github.com/jirafa27/DocumentSearcher/internal/shared/telemetry"
)

// DefaultTimeout bounds a single extraction when the caller sets no deadline.
const DefaultTimeout = 60 * time.Second

type parseFunc func(data []byte) (string, error)

// Extractor runs format parsers under a deadline and a concurrency bound.
type Extractor struct {
	timeout time.Duration
	sem     *semaphore.Weighted
	parsers map[string]parseFunc
}

// New builds an Extractor. A non-positive concurrency means unbounded.
func New(timeout time.Duration, concurrency int64) *Extractor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	e := &Extractor{
		timeout: timeout,
		parsers: map[string]parseFunc{
			TypePDF:  extractPDF,
			TypeDOCX: extractDOCX,
		},
	}
	if concurrency > 0 {
		e.sem = semaphore.NewWeighted(concurrency)
	}
	return e
}

// Extract returns the NFC-normalized text of data. fileType is a canonical
// type tag as returned by CanonicalType. Whitespace is preserved as parsed.
func (e *Extractor) Extract(ctx context.Context, data []byte, fileType string) (string, error) {
	parse, ok := e.parsers[fileType]
	if !ok {
		return "", apperr.Invalid("type", fmt.Sprintf("unsupported document type %q", fileType))
	}
	if len(data) == 0 {
		return "", &apperr.ExtractionError{Kind: apperr.Unreadable, Err: errors.New("empty payload")}
	}

	// A caller deadline can only shorten the extraction budget.
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	if e.sem != nil {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			return "", contextError(ctx, err)
		}
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	started := time.Now()
	go func() {
		if e.sem != nil {
			defer e.sem.Release(1)
		}
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("parser panic: %v", r)}
			}
		}()
		text, err := parse(data)
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		telemetry.Warn("extract.abandoned", map[string]any{
			"type":       fileType,
			"bytes":      len(data),
			"elapsed_ms": time.Since(started).Milliseconds(),
		})
		return "", contextError(ctx, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return "", &apperr.ExtractionError{Kind: apperr.Unreadable, Err: res.err}
		}
		text := norm.NFC.String(res.text)
		if isBlank(text) {
			return "", &apperr.ExtractionError{Kind: apperr.Unreadable, Err: errors.New("no text content")}
		}
		return text, nil
	}
}

func contextError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &apperr.ExtractionError{Kind: apperr.Timeout, Err: context.DeadlineExceeded}
	}
	return err
}

func isBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}
