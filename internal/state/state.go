package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sukalov/songquiz/internal/logger"
	"github.com/sukalov/songquiz/internal/lyrics"
	"github.com/sukalov/songquiz/internal/quiz"
)

// ErrNoSession is returned when a chat has no quiz in progress.
var ErrNoSession = errors.New("no quiz in progress")

// ErrStaleQuestion is returned when a button refers to a question that was already passed.
var ErrStaleQuestion = errors.New("question already answered")

// Session is a quiz being played in one chat.
type Session struct {
	ChatID    int64           `json:"chat_id"`
	Username  string          `json:"username"`
	Song      lyrics.Request  `json:"song"`
	Questions []quiz.Question `json:"questions"`
	Current   int             `json:"current"`
	Score     int             `json:"score"`
	StartedAt time.Time       `json:"started_at"`
}

// Question returns the question being asked, or false when the quiz is over.
func (s Session) Question() (quiz.Question, bool) {
	if s.Current >= len(s.Questions) {
		return quiz.Question{}, false
	}
	return s.Questions[s.Current], true
}

// Finished reports whether every question has been asked.
func (s Session) Finished() bool {
	return s.Current >= len(s.Questions)
}

// Outcome describes what happened to the current question.
type Outcome struct {
	Asked   quiz.Question
	Correct bool
	Session Session
}

// Store persists sessions so they survive restarts.
type Store interface {
	LoadSessions(ctx context.Context) ([]Session, error)
	SaveSession(ctx context.Context, session Session) error
	DeleteSession(ctx context.Context, chatID int64) error
}

// StateManager keeps one quiz session per chat.
type StateManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	store    Store
}

// NewStateManager creates a StateManager. store may be nil.
func NewStateManager(store Store) *StateManager {
	return &StateManager{
		sessions: make(map[int64]*Session),
		store:    store,
	}
}

// Init loads stored sessions.
func (sm *StateManager) Init(ctx context.Context) error {
	if sm.store == nil {
		return nil
	}
	sessions, err := sm.store.LoadSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	for i := range sessions {
		sm.sessions[sessions[i].ChatID] = &sessions[i]
	}
	return nil
}

// Start begins a quiz in a chat, replacing any quiz already running there.
func (sm *StateManager) Start(ctx context.Context, session Session) Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session.Current, session.Score = 0, 0
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}
	sm.sessions[session.ChatID] = &session
	sm.save(ctx, session)
	return session
}

// Get returns a copy of the chat's session.
func (sm *StateManager) Get(chatID int64) (Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, ok := sm.sessions[chatID]
	if !ok {
		return Session{}, false
	}
	return *session, true
}

// Answer checks answer against the current question and moves on.
func (sm *StateManager) Answer(ctx context.Context, chatID int64, answer string) (Outcome, error) {
	return sm.advance(ctx, chatID, -1, func(q quiz.Question) bool {
		return Matches(answer, q.CorrectAnswer)
	})
}

// Reveal gives up on question index and moves on. index must be the current question.
func (sm *StateManager) Reveal(ctx context.Context, chatID int64, index int) (Outcome, error) {
	return sm.advance(ctx, chatID, index, func(quiz.Question) bool { return false })
}

func (sm *StateManager) advance(ctx context.Context, chatID int64, index int, correct func(quiz.Question) bool) (Outcome, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, ok := sm.sessions[chatID]
	if !ok {
		return Outcome{}, ErrNoSession
	}
	if index >= 0 && index != session.Current {
		return Outcome{}, ErrStaleQuestion
	}
	asked, ok := session.Question()
	if !ok {
		return Outcome{}, ErrNoSession
	}

	outcome := Outcome{Asked: asked, Correct: correct(asked)}
	if outcome.Correct {
		session.Score++
	}
	session.Current++
	outcome.Session = *session

	if session.Finished() {
		delete(sm.sessions, chatID)
		sm.remove(ctx, chatID)
	} else {
		sm.save(ctx, *session)
	}
	return outcome, nil
}

// Stop abandons the chat's quiz and returns it.
func (sm *StateManager) Stop(ctx context.Context, chatID int64) (Session, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, ok := sm.sessions[chatID]
	if !ok {
		return Session{}, false
	}
	delete(sm.sessions, chatID)
	sm.remove(ctx, chatID)
	return *session, true
}

// Active returns the number of quizzes in progress.
func (sm *StateManager) Active() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

func (sm *StateManager) save(ctx context.Context, session Session) {
	if sm.store == nil {
		return
	}
	if err := sm.store.SaveSession(ctx, session); err != nil {
		logger.Warn(fmt.Sprintf("error happened while saving session for chat %d: %v", session.ChatID, err))
	}
}

func (sm *StateManager) remove(ctx context.Context, chatID int64) {
	if sm.store == nil {
		return
	}
	if err := sm.store.DeleteSession(ctx, chatID); err != nil {
		logger.Warn(fmt.Sprintf("error happened while deleting session for chat %d: %v", chatID, err))
	}
}
