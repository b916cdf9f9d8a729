package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jirafa27/DocumentSearcher/internal/bootstrap"
	"github.com/jirafa27/DocumentSearcher/internal/shared/config"
)

const testOwner = "0b1f3d4e-5a6b-4c7d-8e9f-a0b1c2d3e4f5"

func testCLI(t *testing.T) (*cli, *bytes.Buffer) {
	t.Helper()
	app, err := bootstrap.Build(config.Config{
		Env:             "test",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		IndexBackend:    "bleve",
		LockBackend:     "memory",
		MaxFileSize:     1 << 20,
	})
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	t.Cleanup(func() { app.Close() })

	out := &bytes.Buffer{}
	return &cli{
		out: out,
		build: func(context.Context) (*bootstrap.App, func(), error) {
			return app, func() {}, nil
		},
	}, out
}

func run(t *testing.T, c *cli, args ...string) error {
	t.Helper()
	cmd := newRootCmd(c)
	cmd.SetArgs(args)
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

func writeDOCX(t *testing.T, text string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = w.Write([]byte(`<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	path := filepath.Join(t.TempDir(), "memo.docx")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestIngestSearchDelete(t *testing.T) {
	c, out := testCLI(t)
	path := writeDOCX(t, "служебная записка о поставках")

	if err := run(t, c, "ingest", path, "--owner", testOwner, "--type", "docx"); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	var ingested ingestOutput
	if err := json.Unmarshal(out.Bytes(), &ingested); err != nil {
		t.Fatalf("decode ingest output: %v", err)
	}
	if !ingested.Created || ingested.FileName != "memo.docx" || ingested.ContentLength != 29 {
		t.Fatalf("unexpected ingest output: %+v", ingested)
	}

	out.Reset()
	if err := run(t, c, "search", "--query", "записка", "--exact", "--owner", testOwner, "--before", "0", "--after", "2"); err != nil {
		t.Fatalf("search: %v", err)
	}
	var matches []searchOutput
	if err := json.Unmarshal(out.Bytes(), &matches); err != nil {
		t.Fatalf("decode search output: %v", err)
	}
	if len(matches) != 1 || matches[0].Start != 10 || matches[0].End != 17 || matches[0].ContextAfter != " о" {
		t.Fatalf("unexpected matches: %+v", matches)
	}

	out.Reset()
	if err := run(t, c, "reindex", ingested.DocumentID); err != nil {
		t.Fatalf("reindex: %v", err)
	}
	if err := run(t, c, "delete", ingested.DocumentID, "--owner", testOwner); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out.String(), "deleted "+ingested.DocumentID) {
		t.Fatalf("unexpected delete output %q", out.String())
	}
}

func TestReindexArgs(t *testing.T) {
	c, _ := testCLI(t)
	if err := run(t, c, "reindex"); err == nil {
		t.Fatalf("expected error without id or --all")
	}
	if err := run(t, c, "reindex", "--all", "x"); err == nil {
		t.Fatalf("expected error with both id and --all")
	}
	if err := run(t, c, "reindex", "--all"); err != nil {
		t.Fatalf("reindex --all on empty repo: %v", err)
	}
}

func TestIngestRequiresOwner(t *testing.T) {
	c, _ := testCLI(t)
	if err := run(t, c, "ingest", writeDOCX(t, "текст")); err == nil {
		t.Fatalf("expected missing --owner to fail")
	}
}
