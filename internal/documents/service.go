package documents

import (
	"context"
	"errors"
	"io"

	"github.com/jirafa27/DocumentSearcher/internal/shared/apperr"
	"github.com/jirafa27/DocumentSearcher/internal/shared/storage/object"
)

// Ingestor performs the write side: uploads, re-uploads and deletions.
type Ingestor interface {
	Upload(ctx context.Context, in UploadInput) (IngestResult, error)
	Replace(ctx context.Context, id string, in UploadInput) (IngestResult, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// Service contains the read side for documents. Reads scoped to an owner
// report other owners' documents as not found.
type Service struct {
	Repo  Repo
	Store object.ObjectStore
}

// Detail is a document with its extracted text size.
type Detail struct {
	Document      Document
	ContentLength int
}

// Get returns a document and its content length.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Detail, error) {
	doc, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return Detail{}, err
	}
	content, err := s.Repo.GetContent(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Document: doc, ContentLength: content.Length}, nil
}

// Text returns the extracted text exactly as stored.
func (s *Service) Text(ctx context.Context, ownerID, id string) (Content, error) {
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return Content{}, err
	}
	return s.Repo.GetContent(ctx, id)
}

// List pages through an owner's documents, newest first. An empty ownerID
// lists every document.
func (s *Service) List(ctx context.Context, ownerID string, limit, offset int) ([]Document, error) {
	return s.Repo.List(ctx, ownerID, limit, offset)
}

// OpenFile opens the original upload. The caller closes the reader.
func (s *Service) OpenFile(ctx context.Context, ownerID, id string) (Document, io.ReadCloser, error) {
	doc, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return Document{}, nil, err
	}
	if doc.StorageKey == "" || s.Store == nil {
		return Document{}, nil, ErrNotFound
	}
	rc, err := s.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return Document{}, nil, ErrNotFound
		}
		return Document{}, nil, apperr.Storage("object.open", err)
	}
	return doc, rc, nil
}

func (s *Service) owned(ctx context.Context, ownerID, id string) (Document, error) {
	doc, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if ownerID != "" && doc.OwnerID != ownerID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}
