// Package ingest runs uploads, re-uploads and deletions through extraction,
// the content store and the index so that the two stores never disagree
// about which documents exist.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jirafa27/DocumentSearcher/internal/documents"
	"github.com/jirafa27/DocumentSearcher/internal/index"
	"github.com/jirafa27/DocumentSearcher/internal/shared/apperr"
	"github.com/jirafa27/DocumentSearcher/internal/shared/config"
	"github.com/jirafa27/DocumentSearcher/internal/shared/lock"
	"github.com/jirafa27/DocumentSearcher/internal/shared/metrics"
	"github.com/jirafa27/DocumentSearcher/internal/shared/storage/object"
	"github.com/jirafa27/DocumentSearcher/internal/shared/telemetry"
	"github.com/jirafa27/DocumentSearcher/internal/shared/util"
)

var documentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("docsearch:documents"))

// Extractor turns raw bytes of a canonical file type into text.
type Extractor interface {
	Extract(ctx context.Context, data []byte, fileType string) (string, error)
}

// Service orchestrates ingestion.
type Service struct {
	Repo        documents.Repo
	Index       index.Index
	Store       object.ObjectStore
	Locker      lock.Locker
	Extractor   Extractor
	MaxFileSize int64
	Now         func() time.Time
}

// Result describes a completed ingestion.
type Result = documents.IngestResult

// DocumentID derives the id of a new upload from its owner and content, so
// uploading the same bytes twice updates one document.
func DocumentID(ownerID, fileHash string) string {
	return uuid.NewSHA1(documentNamespace, []byte(ownerID+":"+fileHash)).String()
}

// Upload ingests a new file or refreshes the document that already holds
// identical content for the owner.
func (s *Service) Upload(ctx context.Context, in documents.UploadInput) (Result, error) {
	in.DocumentID = ""
	return s.ingest(ctx, "upload", in, false)
}

// Replace re-ingests an existing document with new content.
func (s *Service) Replace(ctx context.Context, id string, in documents.UploadInput) (Result, error) {
	if err := ValidateID(id); err != nil {
		return Result{}, err
	}
	in.DocumentID = id
	return s.ingest(ctx, "replace", in, true)
}

func (s *Service) ingest(ctx context.Context, op string, in documents.UploadInput, mustExist bool) (Result, error) {
	started := s.now()
	r := newRun(op, in.DocumentID)

	fileType, err := validate(in, s.maxFileSize())
	if err != nil {
		return Result{}, r.fail(err)
	}
	hash := util.SHA256Hex(in.Data)
	id := in.DocumentID
	if id == "" {
		if id, err = s.documentID(ctx, in.OwnerID, hash); err != nil {
			return Result{}, r.fail(err)
		}
	}
	r.documentID = id
	r.to(StateValidated)

	extractStarted := time.Now()
	text, err := s.Extractor.Extract(ctx, in.Data, string(fileType))
	metrics.ObserveExtractDuration(string(fileType), time.Since(extractStarted))
	if err != nil {
		return Result{}, r.fail(err)
	}
	r.to(StateExtracted)

	unlock, err := s.Locker.Lock(ctx, lock.DocumentKey(id))
	if err != nil {
		return Result{}, r.fail(err)
	}
	defer unlock()

	prev, prevContent, existed, err := s.current(ctx, id)
	if err != nil {
		return Result{}, r.fail(err)
	}
	if mustExist && !existed {
		return Result{}, r.fail(documents.ErrNotFound)
	}
	if existed && prev.OwnerID != in.OwnerID {
		return Result{}, r.fail(documents.ErrOwnerMismatch)
	}

	name, _ := util.SanitizeFileName(in.FileName)
	storageKey, err := object.DocumentKey(in.OwnerID, id, hash[:16]+"_"+name)
	if err != nil {
		return Result{}, r.fail(apperr.Invalid("file_name", err.Error()))
	}
	if _, err := s.Store.Put(ctx, storageKey, fileType.MimeType(), bytes.NewReader(in.Data)); err != nil {
		return Result{}, r.fail(apperr.Storage("object.put", err))
	}

	now := s.now()
	doc := documents.Document{
		ID:         id,
		OwnerID:    in.OwnerID,
		FileName:   in.FileName,
		FileType:   fileType,
		MimeType:   fileType.MimeType(),
		SizeBytes:  int64(len(in.Data)),
		FileHash:   hash,
		StorageKey: storageKey,
		UploadedAt: now,
		UpdatedAt:  now,
	}
	if existed {
		doc.UploadedAt = prev.UploadedAt
	}
	content := documents.Content{
		DocumentID:  id,
		Text:        text,
		Length:      utf8.RuneCountInString(text),
		ExtractedAt: now,
	}

	if err := s.Repo.Upsert(ctx, doc, content); err != nil {
		s.discardBlob(storageKey, prev, existed)
		return Result{}, r.fail(err)
	}
	r.to(StateStored)

	if err := s.Index.Upsert(ctx, index.Entry{DocumentID: id, OwnerID: in.OwnerID, Text: text}); err != nil {
		rollbackErr := s.rollbackStore(id, prev, prevContent, existed)
		s.discardBlob(storageKey, prev, existed)
		if rollbackErr != nil {
			return Result{}, r.fail(s.reconciliation(id, op, err, rollbackErr))
		}
		return Result{}, r.fail(err)
	}
	r.to(StateIndexed)

	if existed && prev.StorageKey != "" && prev.StorageKey != storageKey {
		s.deleteBlob(prev.StorageKey, id)
	}

	r.to(StateComplete)
	metrics.IncIngest(op, "ok")
	metrics.ObserveIngestDuration(op, s.now().Sub(started))
	telemetry.Info("ingest.complete", map[string]any{
		"op":          op,
		"document_id": id,
		"owner_id":    in.OwnerID,
		"file_type":   string(fileType),
		"size_bytes":  doc.SizeBytes,
		"length":      content.Length,
		"created":     !existed,
	})

	return Result{Document: doc, Length: content.Length, Created: !existed}, nil
}

// Delete removes a document from the index, then from the content store.
// A non-empty ownerID must match the document's owner.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	r := newRun("delete", id)
	if err := ValidateID(id); err != nil {
		return r.fail(err)
	}

	unlock, err := s.Locker.Lock(ctx, lock.DocumentKey(id))
	if err != nil {
		return r.fail(err)
	}
	defer unlock()

	doc, content, existed, err := s.current(ctx, id)
	if err != nil {
		return r.fail(err)
	}
	if !existed {
		return r.fail(documents.ErrNotFound)
	}
	if ownerID != "" && doc.OwnerID != ownerID {
		return r.fail(documents.ErrOwnerMismatch)
	}
	r.to(StateValidated)

	if err := s.Index.Remove(ctx, id); err != nil {
		return r.fail(err)
	}

	if err := s.Repo.Delete(ctx, id); err != nil {
		restoreCtx, cancel := compensationContext()
		defer cancel()
		restoreErr := s.Index.Upsert(restoreCtx, index.Entry{DocumentID: id, OwnerID: doc.OwnerID, Text: content.Text})
		if restoreErr != nil {
			return r.fail(s.reconciliation(id, "delete", err, restoreErr))
		}
		return r.fail(err)
	}

	if doc.StorageKey != "" {
		s.deleteBlob(doc.StorageKey, id)
	}

	r.to(StateComplete)
	metrics.IncIngest("delete", "ok")
	telemetry.Info("ingest.deleted", map[string]any{
		"document_id": id,
		"owner_id":    doc.OwnerID,
	})
	return nil
}

// current loads the stored document and content. A document without a
// content row is reported with empty text.
func (s *Service) current(ctx context.Context, id string) (documents.Document, documents.Content, bool, error) {
	doc, err := s.Repo.Get(ctx, id)
	if errors.Is(err, documents.ErrNotFound) {
		return documents.Document{}, documents.Content{}, false, nil
	}
	if err != nil {
		return documents.Document{}, documents.Content{}, false, err
	}
	content, err := s.Repo.GetContent(ctx, id)
	if err != nil && !errors.Is(err, documents.ErrNotFound) {
		return documents.Document{}, documents.Content{}, false, err
	}
	content.DocumentID = id
	return doc, content, true, nil
}

// documentID picks the id for an upload that names none: the owner's
// document already holding these bytes, else the id derived from them.
func (s *Service) documentID(ctx context.Context, ownerID, hash string) (string, error) {
	doc, err := s.Repo.FindByHash(ctx, ownerID, hash)
	if err == nil {
		return doc.ID, nil
	}
	if errors.Is(err, documents.ErrNotFound) {
		return DocumentID(ownerID, hash), nil
	}
	return "", err
}

// rollbackStore undoes a content write whose index write failed. It runs
// detached from the request context so a cancelled client cannot leave the
// stores divergent.
func (s *Service) rollbackStore(id string, prev documents.Document, prevContent documents.Content, existed bool) error {
	ctx, cancel := compensationContext()
	defer cancel()
	if existed {
		return s.Repo.Upsert(ctx, prev, prevContent)
	}
	err := s.Repo.Delete(ctx, id)
	if errors.Is(err, documents.ErrNotFound) {
		return nil
	}
	return err
}

func (s *Service) reconciliation(id, op string, cause, rollback error) error {
	metrics.IncReconciliation(op)
	telemetry.Error("ingest.reconciliation_required", map[string]any{
		"document_id": id,
		"op":          op,
		"error":       cause,
		"rollback":    rollback,
	})
	return &apperr.ReconciliationError{DocumentID: id, Op: op, Cause: cause, Rollback: rollback}
}

// discardBlob removes a freshly written raw file unless it is still the
// previous version's file.
func (s *Service) discardBlob(key string, prev documents.Document, existed bool) {
	if existed && prev.StorageKey == key {
		return
	}
	s.deleteBlob(key, prev.ID)
}

func (s *Service) deleteBlob(key, id string) {
	ctx, cancel := compensationContext()
	defer cancel()
	if err := s.Store.Delete(ctx, key); err != nil {
		telemetry.Warn("ingest.blob_delete_failed", map[string]any{
			"document_id": id,
			"storage_key": key,
			"error":       err,
		})
	}
}

func (s *Service) maxFileSize() int64 {
	if s.MaxFileSize > 0 {
		return s.MaxFileSize
	}
	return config.DefaultMaxFileSize
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func compensationContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
