package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := []struct{ name, content string }{
		{"[Content_Types].xml", `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`},
		{"word/document.xml", `<?xml version="1.0" encoding="UTF-8"?><w:document ` + wordNS + `><w:body>` + body + `</w:body></w:document>`},
	}
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			t.Fatalf("create %s: %v", f.name, err)
		}
		if _, err := w.Write([]byte(f.content)); err != nil {
			t.Fatalf("write %s: %v", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestDocxParagraphsTabsAndBreaks(t *testing.T) {
	body := `<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr>` +
		`<w:r><w:t>Отдел</w:t><w:tab/><w:t xml:space="preserve">продаж </w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>строка</w:t><w:br/><w:t>перенос</w:t></w:r></w:p>` +
		`<w:p/>` +
		`<w:p><w:r><w:t>конец</w:t></w:r></w:p>`

	got, err := extractDOCX(buildDOCX(t, body))
	if err != nil {
		t.Fatalf("extractDOCX: %v", err)
	}
	want := "Отдел\tпродаж \nстрока\nперенос\n\nконец"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDocxTablesInDocumentOrder(t *testing.T) {
	body := `<w:p><w:r><w:t>до таблицы</w:t></w:r></w:p>` +
		`<w:tbl><w:tr>` +
		`<w:tc><w:p><w:r><w:t>A1</w:t></w:r></w:p></w:tc>` +
		`<w:tc><w:p><w:r><w:t>B1</w:t></w:r></w:p></w:tc>` +
		`</w:tr></w:tbl>` +
		`<w:p><w:r><w:t>после</w:t></w:r></w:p>`

	got, err := extractDOCX(buildDOCX(t, body))
	if err != nil {
		t.Fatalf("extractDOCX: %v", err)
	}
	if got != "до таблицы\nA1\nB1\nпосле" {
		t.Fatalf("unexpected order: %q", got)
	}
}

func TestDocxSkipsNonTextContent(t *testing.T) {
	body := `<w:p>` +
		`<w:r><w:t>видимый</w:t></w:r>` +
		`<w:r><w:drawing><w:p><w:r><w:t>надпись</w:t></w:r></w:p></w:drawing></w:r>` +
		`<w:del><w:r><w:delText>удалено</w:delText></w:r></w:del>` +
		`<w:r><w:instrText> PAGE </w:instrText></w:r>` +
		`<w:r><w:pict><w:t>картинка</w:t></w:pict></w:r>` +
		`<w:r><w:t xml:space="preserve"> текст</w:t></w:r>` +
		`</w:p>`

	got, err := extractDOCX(buildDOCX(t, body))
	if err != nil {
		t.Fatalf("extractDOCX: %v", err)
	}
	if got != "видимый текст" {
		t.Fatalf("got %q", got)
	}
}

func TestDocxCorruptContainer(t *testing.T) {
	if _, err := extractDOCX([]byte("PK\x03\x04 definitely not a zip")); err == nil {
		t.Fatalf("expected error for corrupt container")
	}
}

func TestDocxMissingBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("notes.txt")
	_, _ = w.Write([]byte("hello"))
	_ = zw.Close()

	_, err := extractDOCX(buf.Bytes())
	if err == nil || !strings.Contains(err.Error(), "document.xml") {
		t.Fatalf("expected missing body error, got %v", err)
	}
}

func TestDocxMalformedXML(t *testing.T) {
	if _, err := extractDOCX(buildDOCX(t, `<w:p><w:r><w:t>broken</w:r>`)); err == nil {
		t.Fatalf("expected parse error")
	}
}
