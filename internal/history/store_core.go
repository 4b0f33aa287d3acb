package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"reelcast/internal/config"
	"reelcast/internal/services"
)

// Store is the append-only continuity ledger backed by SQLite. One process
// writes at a time (the run lock guarantees it), so the pool holds a single
// connection.
type Store struct {
	db   *sql.DB
	path string
}

// busyBackoff is the wait before each retry of a statement that hit
// SQLITE_BUSY. Its length bounds the number of retries.
var busyBackoff = []time.Duration{
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	200 * time.Millisecond,
}

const sqliteBusyCode = 5

// Open connects to the ledger under data_dir, creating it on first use.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "open history", "config is nil", nil)
	}
	return OpenPath(cfg.HistoryPath())
}

// OpenPath connects to the ledger at dbPath. A missing database is created
// empty; an existing one with another schema version is refused.
func OpenPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, services.Wrap(services.ErrStoreReadFailed, "", "open history", "create data directory", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, services.Wrap(services.ErrStoreReadFailed, "", "open history", dbPath, err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, path: dbPath}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		if errors.Is(err, ErrSchemaMismatch) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrStoreReadFailed, "", "open history", dbPath, err)
	}
	return store, nil
}

func dsn(path string) string {
	params := url.Values{}
	for _, pragma := range []string{"journal_mode(WAL)", "busy_timeout(5000)", "synchronous(NORMAL)"} {
		params.Add("_pragma", pragma)
	}
	return "file:" + path + "?" + params.Encode()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func isBusy(err error) bool {
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	return err != nil && (strings.Contains(err.Error(), "SQLITE_BUSY") || strings.Contains(err.Error(), "database is locked"))
}

// withBusyRetry runs op, repeating it while SQLite reports the database as
// busy. Any other error is returned immediately.
func withBusyRetry(ctx context.Context, op func() error) error {
	err := op()
	for _, wait := range busyBackoff {
		if !isBusy(err) {
			return err
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-timer.C:
		}
		err = op()
	}
	return err
}
