package bleveindex

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jirafa27/DocumentSearcher/internal/index"
)

func openMem(t *testing.T) *Index {
	t.Helper()
	ix, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

func upsert(t *testing.T, ix *Index, id, owner, text string) {
	t.Helper()
	if err := ix.Upsert(context.Background(), index.Entry{DocumentID: id, OwnerID: owner, Text: text}); err != nil {
		t.Fatalf("Upsert %s: %v", id, err)
	}
}

func spanTexts(h index.Hit) []string {
	runes := []rune(h.Text)
	var out []string
	for _, s := range h.Spans {
		out = append(out, string(runes[s.Start:s.End]))
	}
	return out
}

func TestInflectedFormMatchesAtOriginalOffset(t *testing.T) {
	ix := openMem(t)
	text := "Сегодня пришли важные известия из столицы."
	upsert(t, ix, "doc-1", "owner-a", text)

	hits, err := ix.Query(context.Background(), index.Query{Text: "известие"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if len(hits[0].Spans) != 1 {
		t.Fatalf("expected 1 span, got %v", hits[0].Spans)
	}
	span := hits[0].Spans[0]
	if span.Start != 22 || span.End != 30 {
		t.Fatalf("expected span [22,30), got %v", span)
	}
	if got := spanTexts(hits[0]); got[0] != "известия" {
		t.Fatalf("span covers %q", got[0])
	}
}

func TestExactAndMorphologicalModesDiverge(t *testing.T) {
	ix := openMem(t)
	upsert(t, ix, "doc-1", "owner-a", "В папке лежат документы и договоры.")

	morph, err := ix.Query(context.Background(), index.Query{Text: "документ"})
	if err != nil {
		t.Fatalf("morph query: %v", err)
	}
	if len(morph) != 1 {
		t.Fatalf("expected morphological match, got %d hits", len(morph))
	}
	if got := spanTexts(morph[0]); len(got) != 1 || got[0] != "документы" {
		t.Fatalf("unexpected morphological spans %q", got)
	}

	exact, err := ix.Query(context.Background(), index.Query{Text: "документ", Exact: true})
	if err != nil {
		t.Fatalf("exact query: %v", err)
	}
	if len(exact) != 0 {
		t.Fatalf("expected no exact match, got %+v", exact)
	}

	exact, err = ix.Query(context.Background(), index.Query{Text: "ДОКУМЕНТЫ", Exact: true})
	if err != nil {
		t.Fatalf("exact query: %v", err)
	}
	if len(exact) != 1 || exact[0].Score != 1 {
		t.Fatalf("expected one case-insensitive exact match, got %+v", exact)
	}
}

func TestExactPunctuationOnlyPhrase(t *testing.T) {
	ix := openMem(t)
	upsert(t, ix, "doc-1", "owner-a", "Итак... продолжение следует...")
	upsert(t, ix, "doc-2", "owner-a", "Без многоточий.")
	upsert(t, ix, "doc-3", "owner-b", "Чужой текст...")

	hits, err := ix.Query(context.Background(), index.Query{Text: "...", Exact: true, OwnerID: "owner-a"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 || hits[0].DocumentID != "doc-1" {
		t.Fatalf("expected doc-1 only, got %+v", hits)
	}
	if hits[0].Score != 2 || len(hits[0].Spans) != 2 {
		t.Fatalf("expected two occurrences, got score %v spans %+v", hits[0].Score, hits[0].Spans)
	}
	if hits[0].Spans[0] != (index.Span{Start: 4, End: 7}) {
		t.Fatalf("unexpected first span %+v", hits[0].Spans[0])
	}

	hits, err = ix.Query(context.Background(), index.Query{Text: "...", Exact: true, Limit: 1})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 || hits[0].DocumentID != "doc-1" {
		t.Fatalf("expected the best match to survive the limit, got %+v", hits)
	}
}

func TestPhraseSpansAreMerged(t *testing.T) {
	ix := openMem(t)
	upsert(t, ix, "doc-1", "owner-a", "Сотрудник отдела по продажам уволился.")

	hits, err := ix.Query(context.Background(), index.Query{Text: "отдел продаж"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if got := spanTexts(hits[0]); len(got) != 1 || got[0] != "отдела по продажам" {
		t.Fatalf("expected merged phrase span, got %q", got)
	}
}

func TestFiltersAreConjunctive(t *testing.T) {
	ix := openMem(t)
	upsert(t, ix, "doc-a", "owner-a", "квартальный отчёт")
	upsert(t, ix, "doc-b", "owner-b", "годовой отчёт")

	hits, err := ix.Query(context.Background(), index.Query{Text: "отчёт", OwnerID: "owner-b"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 || hits[0].DocumentID != "doc-b" {
		t.Fatalf("expected only doc-b, got %+v", hits)
	}

	hits, err = ix.Query(context.Background(), index.Query{Text: "отчёт", OwnerID: "owner-b", DocumentID: "doc-a"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits for mismatched owner and document, got %+v", hits)
	}
}

func TestUpsertReplacesAndRemoveDeletes(t *testing.T) {
	ix := openMem(t)
	upsert(t, ix, "doc-1", "owner-a", "старый текст про яблоки")
	upsert(t, ix, "doc-1", "owner-a", "новый текст про груши")

	hits, err := ix.Query(context.Background(), index.Query{Text: "яблоко"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected old content to be gone, got %+v", hits)
	}
	hits, err = ix.Query(context.Background(), index.Query{Text: "груша"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected new content to match, got %d", len(hits))
	}
	if n, _ := ix.Count(); n != 1 {
		t.Fatalf("expected a single document after re-index, got %d", n)
	}

	if err := ix.Remove(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	hits, err = ix.Query(context.Background(), index.Query{Text: "груша"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits after remove, got %+v", hits)
	}
	if err := ix.Remove(context.Background(), "doc-1"); err != nil {
		t.Fatalf("removing an absent document should succeed: %v", err)
	}
}

func TestOpenPersistsToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.bleve")
	ix, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	upsert(t, ix, "doc-1", "owner-a", "договор поставки")
	if err := ix.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	hits, err := reopened.Query(context.Background(), index.Query{Text: "договоры"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected persisted document to match, got %d", len(hits))
	}
}

func TestClosedIndex(t *testing.T) {
	ix, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ix.Close()
	if _, err := ix.Query(context.Background(), index.Query{Text: "x"}); err != index.ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
