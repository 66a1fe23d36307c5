package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kpango/glg"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // Only want to import the driver here
)

// Sentinel errors for the store's failure kinds.
var (
	// ErrActivityNotFound means a read query matched no activity row.
	ErrActivityNotFound = errors.New("no activity found")

	// ErrMemberNotFound means the member has never been stored.
	ErrMemberNotFound = errors.New("no member found")
)

// Store owns the on-disk activity database. One logical connection is held
// for the life of the store and every ingestion write runs inside an
// explicit transaction. The store is not safe for cross-process writers.
type Store struct {
	database *sql.DB
	path     string
}

// OpenStore opens (or creates) the store file inside the provided directory,
// applying the embedded schema when the recorded version differs from
// SchemaVersion. A version mismatch is destructive: the DDL drops and
// recreates every table.
func OpenStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create store directory: %s", dir)
	}

	path := filepath.Join(dir, StoreFilename)
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)

	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open store: %s", path)
	}

	// A single logical connection keeps transaction state simple; the engine
	// is the only writer.
	database.SetMaxOpenConns(1)

	store := &Store{database: database, path: path}
	if err := store.ensureSchema(); err != nil {
		store.Close()
		return nil, err
	}

	return store, nil
}

// ensureSchema reads the highest recorded schema version and rebuilds every
// table when it doesn't match the compiled version.
func (store *Store) ensureSchema() error {
	var version int
	err := store.database.QueryRow("SELECT COALESCE(MAX(version), 0) FROM version").Scan(&version)
	if err != nil {
		// No version table at all means a brand new (or pre-versioning)
		// file; fall through to the rebuild.
		version = 0
	}

	if version == SchemaVersion {
		return nil
	}

	glg.Infof("Store schema version %d != %d, rebuilding schema", version, SchemaVersion)

	if _, err := store.database.Exec(schema); err != nil {
		return errors.Wrap(err, "failed to create store schema")
	}
	if _, err := store.database.Exec("INSERT INTO version (version) VALUES (?)", SchemaVersion); err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}

	return nil
}

// Path returns the location of the store file.
func (store *Store) Path() string {
	return store.path
}

// BeginTx starts a new write transaction.
func (store *Store) BeginTx() (*sql.Tx, error) {
	tx, err := store.database.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin store transaction")
	}

	return tx, nil
}

// Commit commits the transaction, surfacing the failure with context.
func (store *Store) Commit(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit store transaction")
	}

	return nil
}

// Rollback rolls the transaction back. Rollback failures are logged rather
// than returned since the caller is already on an error path.
func (store *Store) Rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		glg.Errorf("Failed to roll back store transaction: %s", err.Error())
	}
}

// Optimize asks SQLite to refresh its query planner statistics. The engine
// calls this once after a fetch pass that wrote anything.
func (store *Store) Optimize() error {
	_, err := store.database.Exec("PRAGMA optimize")
	return errors.Wrap(err, "failed to optimize store")
}

// Close releases the underlying connection.
func (store *Store) Close() error {
	return store.database.Close()
}
