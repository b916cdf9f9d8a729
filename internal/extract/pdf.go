package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jirafa27/DocumentSearcher/internal/shared/telemetry"
)

type pageSource interface {
	NumPage() int
	PageText(i int) (string, error)
}

type pdfPages struct {
	r *pdf.Reader
}

func (p pdfPages) NumPage() int { return p.r.NumPage() }

func (p pdfPages) PageText(i int) (string, error) {
	page := p.r.Page(i)
	if page.V.IsNull() {
		return "", errors.New("missing page object")
	}
	return page.GetPlainText(nil)
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	return joinPages(pdfPages{r: r})
}

// joinPages concatenates page texts in order with one newline between
// pages. Pages that fail or panic are skipped.
func joinPages(src pageSource) (string, error) {
	pages, err := safeNumPage(src)
	if err != nil {
		return "", err
	}
	if pages <= 0 {
		return "", errors.New("pdf has no pages")
	}

	texts := make([]string, 0, pages)
	skipped := 0
	for i := 1; i <= pages; i++ {
		text, err := safePageText(src, i)
		if err != nil {
			skipped++
			telemetry.Warn("extract.pdf_page_skipped", map[string]any{
				"page":  i,
				"error": err,
			})
			continue
		}
		texts = append(texts, text)
	}
	if skipped == pages {
		return "", fmt.Errorf("all %d pages failed to parse", pages)
	}
	return strings.Join(texts, "\n"), nil
}

func safeNumPage(src pageSource) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read page count: %v", r)
		}
	}()
	return src.NumPage(), nil
}

func safePageText(src pageSource, i int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: %v", i, r)
		}
	}()
	return src.PageText(i)
}
