package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the trajectory database. Schema is managed exclusively by
// the embedded migrations; see migrate.go.
type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the database at path and applies any
// pending migrations.
func NewDB(path string) (*DB, error) {
	database, err := OpenDB(path)
	if err != nil {
		return nil, err
	}

	fsys, err := getMigrationsFS()
	if err != nil {
		database.Close()
		return nil, err
	}
	if err := database.MigrateUp(fsys); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// OpenDB opens the database without touching the schema. The migrate
// subcommand uses this directly so migrations stay in charge.
//
// The _pragma DSN options apply to every pooled connection: WAL keeps
// readers unblocked during writes, the busy timeout rides out writer
// contention instead of failing with SQLITE_BUSY.
func OpenDB(path string) (*DB, error) {
	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=temp_store(MEMORY)" +
		"&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &DB{sqlDB}, nil
}
