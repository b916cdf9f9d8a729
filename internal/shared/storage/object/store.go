package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/jirafa27/DocumentSearcher/internal/shared/util"
)

// ErrNotFound is returned by Open for a missing key.
var ErrNotFound = errors.New("object not found")

// ObjectStore defines the contract for saving and retrieving binary objects.
type ObjectStore interface {
	// Put writes r under key, replacing any previous object.
	Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object. A missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// DocumentKey is the storage key of a document's original file, grouped
// under a hashed owner prefix and the document id.
func DocumentKey(ownerID, documentID, fileName string) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	if documentID == "" {
		return "", errors.New("document id is required")
	}
	return path.Join(util.HashOwnerKey(ownerID), documentID, name), nil
}
