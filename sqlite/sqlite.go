package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens a db at path, and creates the tables if they don't exist yet.
// It returns an error if openning of the db failed.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("db path required")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if path != ":memory:" {
		// Enable Write-Ahead Logging. See https://sqlite.org/wal.html
		if _, err := db.Exec(`PRAGMA journal_mode = wal;`); err != nil {
			return nil, fmt.Errorf("enable wal: %w", err)
		}
	} else {
		// Every connection has its own memory db.
		db.SetMaxOpenConns(1)
	}
	// Enable foreign key checks.
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("foreign keys pragma: %w", err)
	}
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	err = CreateJobsTable(tx)
	if err != nil {
		return nil, err
	}
	err = CreateTasksTable(tx)
	if err != nil {
		return nil, err
	}
	return db, tx.Commit()
}
