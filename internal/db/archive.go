package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sukalov/songquiz/internal/lyrics"
)

// Archive is the durable lyrics cache tier, one row per song.
type Archive struct {
	db *sql.DB
}

func NewArchive(database *sql.DB) *Archive {
	return &Archive{db: database}
}

func (a *Archive) Get(ctx context.Context, key string) (*lyrics.Entry, error) {
	query := `SELECT artist, song, lyrics, source_url, strategy, fetched_at FROM lyrics_archive WHERE key = ?`

	var (
		entry     lyrics.Entry
		strategy  string
		fetchedAt string
	)
	err := a.db.QueryRowContext(ctx, query, key).Scan(
		&entry.Artist, &entry.Song, &entry.Lyrics, &entry.SourceURL, &strategy, &fetchedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, lyrics.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read archived lyrics: %w", err)
	}
	entry.Strategy = lyrics.Strategy(strategy)
	if entry.FetchedAt, err = time.Parse(time.RFC3339Nano, fetchedAt); err != nil {
		return nil, fmt.Errorf("failed to parse fetched_at %q: %w", fetchedAt, err)
	}
	return &entry, nil
}

func (a *Archive) Set(ctx context.Context, key string, entry lyrics.Entry) error {
	query := `
		INSERT INTO lyrics_archive (key, artist, song, lyrics, source_url, strategy, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			artist = excluded.artist,
			song = excluded.song,
			lyrics = excluded.lyrics,
			source_url = excluded.source_url,
			strategy = excluded.strategy,
			fetched_at = excluded.fetched_at`

	_, err := a.db.ExecContext(ctx, query,
		key, entry.Artist, entry.Song, entry.Lyrics, entry.SourceURL, string(entry.Strategy), entry.FetchedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to archive lyrics: %w", err)
	}
	return nil
}

func (a *Archive) Delete(ctx context.Context, key string) error {
	if _, err := a.db.ExecContext(ctx, `DELETE FROM lyrics_archive WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete archived lyrics: %w", err)
	}
	return nil
}
