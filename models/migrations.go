package models

import (
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// migrate creates all tables and indexes. Statements are idempotent.
func (s *Store) migrate() error {
	tables := []struct {
		name string
		ddl  string
	}{
		{"rooms", DDLCreateRoomsTable},
		{"room_members", DDLCreateRoomMembersTable},
		{"events", DDLCreateEventsTable},
		{"day_notes", DDLCreateDayNotesTable},
	}

	for _, tbl := range tables {
		if _, err := s.db.Exec(tbl.ddl); err != nil {
			return serr.Wrap(err, "failed to create "+tbl.name+" table")
		}
	}

	// The change journal needs an auto-incrementing sequence number,
	// which the two engines spell differently
	journal := []string{DDLCreateEventChangesTableSQLite}
	if s.driver == DriverDuckDB {
		journal = []string{DDLCreateEventChangesSequence, DDLCreateEventChangesTableDuckDB}
	}
	for _, ddl := range journal {
		if _, err := s.db.Exec(ddl); err != nil {
			return serr.Wrap(err, "failed to create event_changes table")
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_room_members_room ON room_members(room_id)",
		"CREATE INDEX IF NOT EXISTS idx_event_changes_room ON event_changes(room_id)",
	}
	if s.driver == DriverDuckDB {
		// DuckDB runs an UPDATE of an indexed column as delete+insert, which
		// trips the primary key on events. Only index columns never updated.
		indexes = append(indexes, "DROP INDEX IF EXISTS idx_events_room_date")
	} else {
		indexes = append(indexes, "CREATE INDEX IF NOT EXISTS idx_events_room_date ON events(room_id, event_date)")
	}
	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			// Continue with other indexes even if one fails
			logger.LogErr(err, "failed to create index", "sql", indexSQL)
		}
	}

	logger.Info("Database migration completed successfully", "driver", s.driver)
	return nil
}

const DDLCreateRoomsTable = `
CREATE TABLE IF NOT EXISTS rooms (
    id          VARCHAR(40) PRIMARY KEY,
    code        VARCHAR(16) NOT NULL UNIQUE,
    created_at  TIMESTAMP NOT NULL
);
`

const DDLCreateRoomMembersTable = `
CREATE TABLE IF NOT EXISTS room_members (
    room_id    VARCHAR(40) NOT NULL,
    member     VARCHAR(128) NOT NULL,
    joined_at  TIMESTAMP NOT NULL,
    PRIMARY KEY (room_id, member)
);
`

// event_date is stored as YYYY-MM-DD text so range filters are plain
// string comparisons in both engines
const DDLCreateEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id          VARCHAR(40) PRIMARY KEY,
    room_id     VARCHAR(40) NOT NULL,
    event_date  VARCHAR(10) NOT NULL,
    event_time  VARCHAR(64),
    title       VARCHAR(255) NOT NULL,
    notes       TEXT,
    created_at  TIMESTAMP NOT NULL,
    updated_at  TIMESTAMP NOT NULL
);
`

const DDLCreateDayNotesTable = `
CREATE TABLE IF NOT EXISTS day_notes (
    room_id     VARCHAR(40) NOT NULL,
    date_key    VARCHAR(10) NOT NULL,
    text        TEXT NOT NULL,
    updated_at  TIMESTAMP NOT NULL,
    PRIMARY KEY (room_id, date_key)
);
`

const DDLCreateEventChangesSequence = `
CREATE SEQUENCE IF NOT EXISTS event_changes_seq START 1;
`

const DDLCreateEventChangesTableDuckDB = `
CREATE TABLE IF NOT EXISTS event_changes (
    seq         BIGINT PRIMARY KEY DEFAULT nextval('event_changes_seq'),
    guid        VARCHAR(40) NOT NULL UNIQUE,
    room_id     VARCHAR(40) NOT NULL,
    event_id    VARCHAR(40) NOT NULL,
    operation   VARCHAR(16) NOT NULL,
    created_at  TIMESTAMP NOT NULL
);
`

const DDLCreateEventChangesTableSQLite = `
CREATE TABLE IF NOT EXISTS event_changes (
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    guid        VARCHAR(40) NOT NULL UNIQUE,
    room_id     VARCHAR(40) NOT NULL,
    event_id    VARCHAR(40) NOT NULL,
    operation   VARCHAR(16) NOT NULL,
    created_at  TIMESTAMP NOT NULL
);
`
