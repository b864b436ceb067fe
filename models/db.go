package models

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// Supported database/sql drivers for the event store
const (
	DriverDuckDB = "duckdb"
	DriverSQLite = "sqlite3"
)

// ChangePublisher receives a notification for every committed write.
// The change feed implementations satisfy this.
type ChangePublisher interface {
	Publish(ctx context.Context, change EventChange) error
}

// Store is the persistent home of rooms, events, day notes and the change journal.
// Writes are serialized through writeMu so that the journal order matches commit order.
type Store struct {
	db        *sql.DB
	driver    string
	writeMu   sync.Mutex
	pubMu     sync.RWMutex
	publisher ChangePublisher
}

// Open opens (creating if needed) the database at path and runs migrations
func Open(driver, path string) (*Store, error) {
	if driver == "" {
		driver = DriverDuckDB
	}
	if driver != DriverDuckDB && driver != DriverSQLite {
		return nil, serr.New("unsupported database driver: " + driver)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, serr.Wrap(err, "failed to create database directory")
		}
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, serr.Wrap(err, "failed to open "+driver+" database")
	}

	if driver == DriverSQLite {
		// One writer connection avoids SQLITE_BUSY between our own goroutines
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, serr.Wrap(err, "failed to connect to database at "+path)
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, serr.Wrap(err, "failed to migrate database")
	}

	logger.Info("Event store opened", "driver", driver, "path", path)
	return s, nil
}

// OpenTest removes any database left at path and opens a fresh DuckDB store there
func OpenTest(path string) (*Store, error) {
	RemoveTestDB(path)
	return Open(DriverDuckDB, path)
}

// RemoveTestDB deletes a database file and its write-ahead log
func RemoveTestDB(path string) {
	os.Remove(path)
	os.Remove(path + ".wal")
}

// Close releases the database connection
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Driver reports which database/sql driver backs the store
func (s *Store) Driver() string {
	return s.driver
}

// SetPublisher installs the change feed that committed writes are announced on.
// A nil publisher silences notifications.
func (s *Store) SetPublisher(p ChangePublisher) {
	s.pubMu.Lock()
	s.publisher = p
	s.pubMu.Unlock()
}

// publish announces a committed change. The write has already succeeded,
// so a feed failure is logged rather than returned.
func (s *Store) publish(ctx context.Context, change EventChange) {
	s.pubMu.RLock()
	p := s.publisher
	s.pubMu.RUnlock()
	if p == nil {
		return
	}

	if err := p.Publish(ctx, change); err != nil {
		logger.LogErr(err, "failed to publish event change",
			"room_id", change.RoomID, "event_id", change.EventID, "kind", string(change.Kind))
	}
}
