package database

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const (
	sqliteLoadQuery = "SELECT messages FROM transcripts WHERE room = ?"
	sqliteSaveQuery = "INSERT INTO transcripts (room, messages, updated_at) VALUES (?, ?, ?) " +
		"ON CONFLICT (room) DO UPDATE SET messages = excluded.messages, updated_at = excluded.updated_at"
)

type SqliteTranscriptRepository struct {
	sqlTranscripts
}

// NewSqliteTranscriptRepository opens (or creates) the SQLite file at path.
func NewSqliteTranscriptRepository(path string) (*SqliteTranscriptRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := migrateUp("sqlite", dsn, "sqlite"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: %w", err)
	}

	return &SqliteTranscriptRepository{
		sqlTranscripts: sqlTranscripts{
			conn:      db,
			loadQuery: sqliteLoadQuery,
			saveQuery: sqliteSaveQuery,
		},
	}, nil
}
