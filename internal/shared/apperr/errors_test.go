package apperr

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestStorageClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
		integrity bool
	}{
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, transient: true},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, transient: true},
		{name: "connection exception", err: &pgconn.PgError{Code: "08006"}, transient: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, integrity: true},
		{name: "fk violation", err: &pgconn.PgError{Code: "23503"}, integrity: true},
		{name: "bad conn", err: driver.ErrBadConn, transient: true},
		{name: "plain", err: errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := Storage("upsert", fmt.Errorf("exec: %w", tt.err))
			var se *StorageError
			if !errors.As(wrapped, &se) {
				t.Fatalf("expected StorageError, got %T", wrapped)
			}
			if se.Transient != tt.transient {
				t.Fatalf("transient = %v, want %v", se.Transient, tt.transient)
			}
			if IsIntegrity(wrapped) != tt.integrity {
				t.Fatalf("integrity = %v, want %v", IsIntegrity(wrapped), tt.integrity)
			}
		})
	}
}

func TestStoragePassesThroughKnownErrors(t *testing.T) {
	if err := Storage("get", ErrNotFound); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound unchanged, got %v", err)
	}
	if err := Storage("get", context.Canceled); err != context.Canceled {
		t.Fatalf("expected context.Canceled unchanged, got %v", err)
	}
	if err := Storage("get", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	inner := &StorageError{Op: "inner", Transient: true, Err: errors.New("x")}
	if err := Storage("outer", inner); err != inner {
		t.Fatalf("expected existing StorageError unchanged")
	}
}

func TestReconciliationErrorUnwrapsBoth(t *testing.T) {
	cause := errors.New("index down")
	err := &ReconciliationError{DocumentID: "d1", Op: "ingest", Cause: cause, Rollback: ErrNotFound}
	if !errors.Is(err, cause) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected both cause and rollback errors to be matchable")
	}
}
