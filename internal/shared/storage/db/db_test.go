package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io/fs"
	"strings"
	"sync"
	"testing"
	"time"
)

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return nil, errors.New("not supported") }
func (stubConn) Ping(context.Context) error          { return nil }

var registerStubOnce sync.Once

func withStubDriver(t *testing.T) {
	t.Helper()
	registerStubOnce.Do(func() { sql.Register("dbstub", stubDriver{}) })
	prev := openDB
	openDB = func(_, dsn string) (*sql.DB, error) {
		return sql.Open("dbstub", dsn)
	}
	t.Cleanup(func() { openDB = prev })
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	if _, err := Connect(context.Background(), "  ", DefaultServerOptions()); err == nil {
		t.Fatalf("expected error for empty DATABASE_URL")
	}
}

func TestConnectPropagatesOpenError(t *testing.T) {
	prev := openDB
	openDB = func(string, string) (*sql.DB, error) { return nil, driver.ErrBadConn }
	t.Cleanup(func() { openDB = prev })

	_, err := Connect(context.Background(), "postgres://x", DefaultServerOptions())
	if !errors.Is(err, driver.ErrBadConn) {
		t.Fatalf("expected wrapped ErrBadConn, got %v", err)
	}
}

func TestOptionsFromEnvAppliesOverrides(t *testing.T) {
	withStubDriver(t)

	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "1s")

	opts := OptionsFromEnv(DefaultServerOptions())
	db, err := Connect(context.Background(), "postgres://localhost/docs", opts)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()

	if stats := db.Stats(); stats.MaxOpenConnections != 7 {
		t.Fatalf("expected MaxOpenConnections=7, got %d", stats.MaxOpenConnections)
	}
	if opts.MaxIdleConns != 3 {
		t.Fatalf("expected MaxIdleConns=3, got %d", opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime != 20*time.Minute {
		t.Fatalf("expected ConnMaxLifetime=20m, got %s", opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime != 45*time.Second {
		t.Fatalf("expected ConnMaxIdleTime=45s, got %s", opts.ConnMaxIdleTime)
	}
	if opts.PingTimeout != time.Second {
		t.Fatalf("expected PingTimeout=1s, got %s", opts.PingTimeout)
	}
}

func TestOptionsFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	t.Setenv("DB_PING_TIMEOUT", "soon")

	defaults := DefaultCLIOptions()
	opts := OptionsFromEnv(defaults)
	if opts.MaxOpenConns != defaults.MaxOpenConns {
		t.Fatalf("expected default MaxOpenConns, got %d", opts.MaxOpenConns)
	}
	if opts.PingTimeout != defaults.PingTimeout {
		t.Fatalf("expected default PingTimeout, got %s", opts.PingTimeout)
	}
}

func TestEmbeddedMigrationsAreGooseAnnotated(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected at least 2 migrations, got %d", len(entries))
	}
	var sawGIN bool
	for _, e := range entries {
		data, err := fs.ReadFile(migrationFiles, "migrations/"+e.Name())
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		body := string(data)
		if !strings.Contains(body, "-- +goose Up") || !strings.Contains(body, "-- +goose Down") {
			t.Fatalf("%s missing goose annotations", e.Name())
		}
		if strings.Contains(body, "USING GIN (tsv)") {
			sawGIN = true
		}
	}
	if !sawGIN {
		t.Fatalf("expected a GIN index over the tsvector column")
	}
}

func TestConnectRejectsMalformedURL(t *testing.T) {
	withStubDriver(t)
	if _, err := Connect(context.Background(), "postgres://%zz", DefaultServerOptions()); err == nil || !strings.Contains(err.Error(), "parse DATABASE_URL") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestOptionsFromEnvStatementTimeout(t *testing.T) {
	t.Setenv("DB_STATEMENT_TIMEOUT", "2s")
	if opts := OptionsFromEnv(DefaultCLIOptions()); opts.StatementTimeout != 2*time.Second {
		t.Fatalf("expected 2s statement timeout, got %s", opts.StatementTimeout)
	}
	if DefaultCLIOptions().StatementTimeout != 0 {
		t.Fatalf("CLI defaults should not set a statement timeout")
	}
}

func TestLockPoolHasNoStatementTimeout(t *testing.T) {
	lockOpts, serverOpts := DefaultLockOptions(), DefaultServerOptions()
	if lockOpts.StatementTimeout != 0 {
		t.Fatalf("lock sessions must not be cut by statement_timeout, got %v", lockOpts.StatementTimeout)
	}
	if lockOpts.MaxOpenConns <= serverOpts.MaxOpenConns {
		t.Fatalf("expected lock pool (%d) larger than server pool (%d)", lockOpts.MaxOpenConns, serverOpts.MaxOpenConns)
	}
}
