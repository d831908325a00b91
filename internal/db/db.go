// Package db keeps durable state in Turso (libSQL): the lyrics archive and
// finished quiz games.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sukalov/songquiz/internal/logger"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

const schema = `
CREATE TABLE IF NOT EXISTS lyrics_archive (
	key        TEXT PRIMARY KEY,
	artist     TEXT NOT NULL,
	song       TEXT NOT NULL,
	lyrics     TEXT NOT NULL,
	source_url TEXT NOT NULL DEFAULT '',
	strategy   TEXT NOT NULL,
	fetched_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS games (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_id     INTEGER NOT NULL,
	username    TEXT,
	artist      TEXT NOT NULL,
	song        TEXT NOT NULL,
	score       INTEGER NOT NULL,
	total       INTEGER NOT NULL,
	finished_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS games_chat_id ON games (chat_id);
`

// DSN appends the auth token to a Turso database URL.
func DSN(url, token string) string {
	if token == "" {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "authToken=" + token
}

// Open connects to the database, verifies the connection and creates missing tables.
func Open(ctx context.Context, url, token string) (*sql.DB, error) {
	database, err := sql.Open("libsql", DSN(url, token))
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	database.SetMaxOpenConns(25)
	database.SetMaxIdleConns(25)
	database.SetConnMaxLifetime(5 * time.Minute)

	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := database.ExecContext(ctx, stmt); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	logger.Debug("database connected")
	return database, nil
}
