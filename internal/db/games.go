package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Game is a finished quiz played in a chat.
type Game struct {
	ChatID     int64
	Username   string
	Artist     string
	Song       string
	Score      int
	Total      int
	FinishedAt time.Time
}

// Stats summarizes the games of one chat.
type Stats struct {
	Games   int
	Correct int
	Asked   int
}

// Games records finished quizzes.
type Games struct {
	db *sql.DB
}

func NewGames(database *sql.DB) *Games {
	return &Games{db: database}
}

func (g *Games) Record(ctx context.Context, game Game) error {
	username := sql.NullString{String: game.Username, Valid: game.Username != ""}

	query := `INSERT INTO games (chat_id, username, artist, song, score, total, finished_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := g.db.ExecContext(ctx, query,
		game.ChatID, username, game.Artist, game.Song, game.Score, game.Total, game.FinishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record game: %w", err)
	}
	return nil
}

func (g *Games) Stats(ctx context.Context, chatID int64) (Stats, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(score), 0), COALESCE(SUM(total), 0) FROM games WHERE chat_id = ?`

	var stats Stats
	if err := g.db.QueryRowContext(ctx, query, chatID).Scan(&stats.Games, &stats.Correct, &stats.Asked); err != nil {
		return Stats{}, fmt.Errorf("failed to read stats: %w", err)
	}
	return stats, nil
}
