package ingest

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jirafa27/DocumentSearcher/internal/documents"
	"github.com/jirafa27/DocumentSearcher/internal/extract"
	"github.com/jirafa27/DocumentSearcher/internal/shared/apperr"
	"github.com/jirafa27/DocumentSearcher/internal/shared/util"
)

// ValidateOwner rejects owner ids that are not UUIDs.
func ValidateOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return apperr.Invalid("owner_id", "is required")
	}
	if _, err := uuid.Parse(ownerID); err != nil {
		return apperr.Invalid("owner_id", "must be a UUID")
	}
	return nil
}

// ValidateID rejects document ids that are not UUIDs.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Invalid("id", "must be a UUID")
	}
	return nil
}

// validate checks an upload before any extraction and resolves its
// canonical file type.
func validate(in documents.UploadInput, maxSize int64) (documents.FileType, error) {
	if err := ValidateOwner(in.OwnerID); err != nil {
		return "", err
	}
	if strings.TrimSpace(in.FileName) == "" {
		return "", apperr.Invalid("file_name", "is required")
	}
	if _, err := util.SanitizeFileName(in.FileName); err != nil {
		return "", apperr.Invalid("file_name", err.Error())
	}

	size := int64(len(in.Data))
	if size == 0 {
		return "", apperr.Invalid("file", "is empty")
	}
	if size > maxSize {
		return "", apperr.Invalid("file", fmt.Sprintf("exceeds the %d byte limit", maxSize))
	}

	fileType, err := resolveType(in)
	if err != nil {
		return "", err
	}
	return documents.FileType(fileType), nil
}

// resolveType prefers an explicit declared type. Generic or missing
// declarations fall back to content sniffing, then to the file extension.
func resolveType(in documents.UploadInput) (string, error) {
	sniffed := extract.Sniff(in.Data)

	if !extract.IsGeneric(in.DeclaredType) {
		declared := extract.CanonicalType(in.DeclaredType)
		if declared == "" {
			return "", apperr.Invalid("type", fmt.Sprintf("unsupported type %q, expected pdf or docx", in.DeclaredType))
		}
		if sniffed != "" && sniffed != declared {
			return "", apperr.Invalid("type", fmt.Sprintf("declared %s but content is %s", declared, sniffed))
		}
		return declared, nil
	}

	if sniffed != "" {
		return sniffed, nil
	}
	if fromName := extract.TypeFromFileName(in.FileName); fromName != "" {
		return fromName, nil
	}
	return "", apperr.Invalid("type", "unsupported file type, expected pdf or docx")
}
