package database

import (
	"database/sql"
	"fmt"
)

const (
	pgLoadQuery = "SELECT messages FROM transcripts WHERE room = $1"
	pgSaveQuery = "INSERT INTO transcripts (room, messages, updated_at) VALUES ($1, $2::jsonb, $3) " +
		"ON CONFLICT (room) DO UPDATE SET messages = EXCLUDED.messages, updated_at = EXCLUDED.updated_at"
)

type PgTranscriptRepository struct {
	sqlTranscripts
}

// NewPgTranscriptRepository connects to Postgres with the lib/pq driver
// and applies the transcript schema.
func NewPgTranscriptRepository(dsn string) (*PgTranscriptRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrateUp("postgres", dsn, "postgres"); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	return &PgTranscriptRepository{
		sqlTranscripts: sqlTranscripts{
			conn:      db,
			loadQuery: pgLoadQuery,
			saveQuery: pgSaveQuery,
		},
	}, nil
}
