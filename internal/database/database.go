package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/npezzotti/friends-room/internal/types"
)

//go:embed migrations
var migrationsFS embed.FS

// sqlTranscripts is the database/sql implementation shared by the
// Postgres and SQLite repositories. Only the query text differs.
type sqlTranscripts struct {
	conn      *sql.DB
	loadQuery string
	saveQuery string
}

func (db *sqlTranscripts) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *sqlTranscripts) LoadTranscript(ctx context.Context, room string) ([]types.Message, error) {
	var data []byte
	err := db.conn.QueryRowContext(ctx, db.loadQuery, room).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return make([]types.Message, 0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("select transcript: %w", err)
	}

	return decodeTranscript(data)
}

func (db *sqlTranscripts) SaveTranscript(ctx context.Context, room string, msgs []types.Message) error {
	data, err := encodeTranscript(msgs)
	if err != nil {
		return err
	}

	if _, err := db.conn.ExecContext(ctx, db.saveQuery, room, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert transcript: %w", err)
	}

	return nil
}

func (db *sqlTranscripts) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// migrateUp applies the embedded migrations for dialect ("postgres" or
// "sqlite") over a dedicated handle opened from driverName and dsn.
func migrateUp(driverName, dsn, dialect string) error {
	src, err := iofs.New(migrationsFS, "migrations/"+dialect)
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("migration db: %w", err)
	}

	var driver migratedb.Driver
	switch dialect {
	case "postgres":
		driver, err = postgres.WithInstance(conn, &postgres.Config{})
	case "sqlite":
		driver, err = sqlite.WithInstance(conn, &sqlite.Config{})
	default:
		err = fmt.Errorf("unsupported migration dialect %q", dialect)
	}
	if err != nil {
		conn.Close()
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dialect, driver)
	if err != nil {
		driver.Close()
		return fmt.Errorf("migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	return nil
}
