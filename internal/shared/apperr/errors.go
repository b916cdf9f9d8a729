// Package apperr defines the error kinds shared by ingestion, storage and
// search. Callers match them with errors.As / errors.Is.
package apperr

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound reports a missing document or content row.
	ErrNotFound = errors.New("not found")
	// ErrOwnerMismatch reports a write to a document owned by someone else.
	ErrOwnerMismatch = errors.New("document belongs to another owner")
)

// ValidationError rejects input before any side effect.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ExtractionKind classifies extraction failures.
type ExtractionKind string

const (
	Unreadable ExtractionKind = "unreadable"
	Timeout    ExtractionKind = "timeout"
)

// ExtractionError aborts an ingestion without persisting anything.
type ExtractionError struct {
	Kind ExtractionKind
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return "extraction " + string(e.Kind)
	}
	return fmt.Sprintf("extraction %s: %v", e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// StorageError wraps a content store or index failure.
type StorageError struct {
	Op        string
	Transient bool
	Err       error
}

func (e *StorageError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("storage %s (%s): %v", e.Op, kind, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ReconciliationError reports that the content store and the index disagree
// and a compensating write also failed. It is never retried by the core.
type ReconciliationError struct {
	DocumentID string
	Op         string
	Cause      error
	Rollback   error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation required for document %s after %s: %v (rollback: %v)", e.DocumentID, e.Op, e.Cause, e.Rollback)
}

func (e *ReconciliationError) Unwrap() []error { return []error{e.Cause, e.Rollback} }

// Storage wraps err as a StorageError, classifying it as transient or
// permanent. ErrNotFound, context errors and errors that already carry a
// kind pass through unchanged.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Transient: IsTransient(err), Err: err}
}

// IsTransient reports whether err is worth retrying by the caller.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *StorageError
	if errors.As(err, &se) {
		return se.Transient
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		code := pgErr.Code
		switch {
		case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "53"):
			return true
		case code == "40001", code == "40P01", code == "55P03", code == "57014", code == "57P01":
			return true
		default:
			return false
		}
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsIntegrity reports a permanent constraint violation such as a duplicate identifier.
func IsIntegrity(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}
	return false
}
