package documents

import "github.com/jirafa27/DocumentSearcher/internal/shared/apperr"

var (
	ErrNotFound      = apperr.ErrNotFound
	ErrOwnerMismatch = apperr.ErrOwnerMismatch
)
