package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/sukalov/songquiz/internal/logger"
	"github.com/sukalov/songquiz/internal/state"
)

const sessionsKey = "songquiz:sessions"

// SessionStore keeps quiz sessions in one hash, field = chat ID.
type SessionStore struct {
	client *redisClient.Client
}

// Sessions returns a session store sharing the cache's connection.
func (c *LyricsCache) Sessions() *SessionStore {
	return &SessionStore{client: c.client}
}

func (s *SessionStore) LoadSessions(ctx context.Context) ([]state.Session, error) {
	raw, err := s.client.HGetAll(ctx, sessionsKey).Result()
	if err != nil {
		if err == redisClient.Nil {
			return nil, nil
		}
		return nil, err
	}

	sessions := make([]state.Session, 0, len(raw))
	for field, data := range raw {
		var session state.Session
		if err := json.Unmarshal([]byte(data), &session); err != nil {
			logger.Warn(fmt.Sprintf("skipping unreadable session %s: %v", field, err))
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (s *SessionStore) SaveSession(ctx context.Context, session state.Session) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, sessionsKey, strconv.FormatInt(session.ChatID, 10), sessionJSON).Err()
}

func (s *SessionStore) DeleteSession(ctx context.Context, chatID int64) error {
	return s.client.HDel(ctx, sessionsKey, strconv.FormatInt(chatID, 10)).Err()
}
