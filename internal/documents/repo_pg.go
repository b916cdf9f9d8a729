package documents

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jirafa27/DocumentSearcher/internal/shared/apperr"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id::text, owner_id::text, file_name, file_type, mime_type, size_bytes, file_hash, storage_key, uploaded_at, updated_at`

const upsertDocumentSQL = `
INSERT INTO documents (
    id,
    owner_id,
    file_name,
    file_type,
    mime_type,
    size_bytes,
    file_hash,
    storage_key,
    uploaded_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE
SET file_name = EXCLUDED.file_name,
    file_type = EXCLUDED.file_type,
    mime_type = EXCLUDED.mime_type,
    size_bytes = EXCLUDED.size_bytes,
    file_hash = EXCLUDED.file_hash,
    storage_key = EXCLUDED.storage_key,
    updated_at = EXCLUDED.updated_at
WHERE documents.owner_id = EXCLUDED.owner_id`

const upsertContentSQL = `
INSERT INTO document_contents (document_id, content, content_length, extracted_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (document_id) DO UPDATE
SET content = EXCLUDED.content,
    content_length = EXCLUDED.content_length,
    extracted_at = EXCLUDED.extracted_at`

// Upsert writes the document and its content in a single transaction.
func (r *PGRepo) Upsert(ctx context.Context, doc Document, content Content) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Storage("documents.upsert", err)
	}
	defer tx.Rollback()

	var storageKey sql.NullString
	if doc.StorageKey != "" {
		storageKey = sql.NullString{String: doc.StorageKey, Valid: true}
	}

	res, err := tx.ExecContext(ctx, upsertDocumentSQL,
		doc.ID,
		doc.OwnerID,
		doc.FileName,
		string(doc.FileType),
		doc.MimeType,
		doc.SizeBytes,
		doc.FileHash,
		storageKey,
		doc.UploadedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return apperr.Storage("documents.upsert", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrOwnerMismatch
	}

	if _, err := tx.ExecContext(ctx, upsertContentSQL, doc.ID, content.Text, content.Length, content.ExtractedAt); err != nil {
		return apperr.Storage("documents.upsert_content", err)
	}

	if err := tx.Commit(); err != nil {
		return apperr.Storage("documents.upsert", err)
	}
	return nil
}

// Get fetches a document by ID.
func (r *PGRepo) Get(ctx context.Context, id string) (Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, apperr.Storage("documents.get", err)
	}
	return doc, nil
}

// GetContent fetches the extracted text of a document.
func (r *PGRepo) GetContent(ctx context.Context, id string) (Content, error) {
	const query = `
SELECT document_id::text, content, content_length, extracted_at
FROM document_contents
WHERE document_id = $1`
	var c Content
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&c.DocumentID, &c.Text, &c.Length, &c.ExtractedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Content{}, ErrNotFound
		}
		return Content{}, apperr.Storage("documents.get_content", err)
	}
	return c, nil
}

// GetMany fetches metadata for a set of documents. Missing ids are omitted.
func (r *PGRepo) GetMany(ctx context.Context, ids []string) (map[string]Document, error) {
	out := make(map[string]Document, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ANY($1::uuid[])`
	rows, err := r.DB.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, apperr.Storage("documents.get_many", err)
	}
	defer rows.Close()
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, apperr.Storage("documents.get_many", err)
		}
		out[doc.ID] = doc
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("documents.get_many", err)
	}
	return out, nil
}

// FindByHash returns the oldest document of an owner with the given file hash.
func (r *PGRepo) FindByHash(ctx context.Context, ownerID, hash string) (Document, error) {
	query := `SELECT ` + documentColumns + `
FROM documents
WHERE owner_id = $1 AND file_hash = $2
ORDER BY uploaded_at ASC
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, ownerID, hash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, apperr.Storage("documents.find_by_hash", err)
	}
	return doc, nil
}

// List lists documents ordered newest-first. An empty owner lists all.
func (r *PGRepo) List(ctx context.Context, ownerID string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + documentColumns + `
FROM documents
WHERE ($1::uuid IS NULL OR owner_id = $1::uuid)
ORDER BY uploaded_at DESC, id
LIMIT $2 OFFSET $3`

	owner := sql.NullString{String: ownerID, Valid: ownerID != ""}
	rows, err := r.DB.QueryContext(ctx, query, owner, limit, offset)
	if err != nil {
		return nil, apperr.Storage("documents.list", err)
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, apperr.Storage("documents.list", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("documents.list", err)
	}
	return out, nil
}

// ListIDs pages through document ids in ascending order.
func (r *PGRepo) ListIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 500
	}
	const query = `
SELECT id::text
FROM documents
WHERE ($1::uuid IS NULL OR id > $1::uuid)
ORDER BY id
LIMIT $2`
	after := sql.NullString{String: afterID, Valid: afterID != ""}
	rows, err := r.DB.QueryContext(ctx, query, after, limit)
	if err != nil {
		return nil, apperr.Storage("documents.list_ids", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Storage("documents.list_ids", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("documents.list_ids", err)
	}
	return ids, nil
}

// Delete removes a document. Content and index rows cascade.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM documents WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return apperr.Storage("documents.delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage("documents.delete", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var fileType string
	var storageKey sql.NullString
	err := row.Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.FileName,
		&fileType,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.FileHash,
		&storageKey,
		&doc.UploadedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return Document{}, err
	}
	doc.FileType = FileType(fileType)
	if storageKey.Valid {
		doc.StorageKey = storageKey.String
	}
	return doc, nil
}

var _ Repo = (*PGRepo)(nil)
