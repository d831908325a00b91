package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sukalov/songquiz/internal/bot"
	"github.com/sukalov/songquiz/internal/bot/common"
	"github.com/sukalov/songquiz/internal/db"
	"github.com/sukalov/songquiz/internal/logger"
	"github.com/sukalov/songquiz/internal/lyrics"
	"github.com/sukalov/songquiz/internal/quiz"
	"github.com/sukalov/songquiz/internal/state"
)

const answerCallback = "answer"

type LyricsFetcher interface {
	Fetch(ctx context.Context, req lyrics.Request) (*lyrics.Result, error)
}

type QuizGenerator interface {
	Generate(ctx context.Context, lyrics string) (*quiz.Set, error)
}

type GameRecorder interface {
	Record(ctx context.Context, game db.Game) error
}

type ClientHandlers struct {
	sessions *state.StateManager
	lyrics   LyricsFetcher
	quiz     QuizGenerator
	games    GameRecorder
	timeout  time.Duration
}

// NewClientHandlers creates the quiz handlers. games may be nil.
func NewClientHandlers(sessions *state.StateManager, lyricsFetcher LyricsFetcher, generator QuizGenerator, games GameRecorder, timeout time.Duration) *ClientHandlers {
	return &ClientHandlers{
		sessions: sessions,
		lyrics:   lyricsFetcher,
		quiz:     generator,
		games:    games,
		timeout:  timeout,
	}
}

func (h *ClientHandlers) quizHandler(b *bot.Bot, update tgbotapi.Update) error {
	message := update.Message
	req, ok := common.ParseSong(message.CommandArguments())
	if !ok {
		return b.SendMessage(message.Chat.ID, "напиши так: /quiz Кино - Группа крови")
	}
	return h.startQuiz(b, message.Chat.ID, message.From.UserName, req)
}

// textHandler treats text as an answer while a quiz runs, otherwise as a song request.
func (h *ClientHandlers) textHandler(b *bot.Bot, update tgbotapi.Update) error {
	message := update.Message
	if message == nil || message.IsCommand() || strings.TrimSpace(message.Text) == "" {
		return nil
	}
	chatID := message.Chat.ID

	if _, active := h.sessions.Get(chatID); active {
		outcome, err := h.sessions.Answer(context.Background(), chatID, message.Text)
		if err != nil {
			return err
		}
		if outcome.Correct {
			if err := b.SendMessage(chatID, "верно! ✅"); err != nil {
				return err
			}
		} else if err := b.SendMessage(chatID, "не совсем. правильный ответ: "+outcome.Asked.CorrectAnswer); err != nil {
			return err
		}
		return h.next(b, outcome.Session)
	}

	if req, ok := common.ParseSong(message.Text); ok {
		return h.startQuiz(b, chatID, message.From.UserName, req)
	}
	return b.SendMessage(chatID, "этого я не понимаю...\n\nнапиши исполнителя и песню через дефис: Кино - Группа крови")
}

func (h *ClientHandlers) revealHandler(b *bot.Bot, update tgbotapi.Update) error {
	query := update.CallbackQuery
	chatID := query.Message.Chat.ID

	_, rawIndex, _ := strings.Cut(query.Data, ":")
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		return fmt.Errorf("bad callback data %q: %w", query.Data, err)
	}

	outcome, err := h.sessions.Reveal(context.Background(), chatID, index)
	if errors.Is(err, state.ErrNoSession) || errors.Is(err, state.ErrStaleQuestion) {
		return b.SendMessage(chatID, "кнопка уже не работает")
	}
	if err != nil {
		return err
	}

	if err := b.SendMessage(chatID, "правильный ответ: "+outcome.Asked.CorrectAnswer); err != nil {
		return err
	}
	return h.next(b, outcome.Session)
}

func (h *ClientHandlers) stopHandler(b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	session, ok := h.sessions.Stop(context.Background(), chatID)
	if !ok {
		return b.SendMessage(chatID, "викторина не идёт. напиши песню, чтобы начать")
	}
	return b.SendMessage(chatID, fmt.Sprintf("викторина остановлена. результат: %d из %d", session.Score, session.Current))
}

func (h *ClientHandlers) startQuiz(b *bot.Bot, chatID int64, username string, req lyrics.Request) error {
	searching := fmt.Sprintf("ищу текст песни *%s* (%s)... это может занять пару минут",
		bot.EscapeMarkdown(req.Song), bot.EscapeMarkdown(req.Artist))
	if err := b.SendMessageWithMarkdown(chatID, searching, true); err != nil {
		return err
	}

	ctx := context.Background()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.lyrics.Fetch(ctx, req)
	if err != nil {
		return h.reportFailure(b, chatID, req, err)
	}
	set, err := h.quiz.Generate(ctx, result.Lyrics)
	if err != nil {
		return h.reportFailure(b, chatID, req, err)
	}

	session := h.sessions.Start(ctx, state.Session{
		ChatID:    chatID,
		Username:  username,
		Song:      req,
		Questions: set.Questions,
	})
	logger.Info(fmt.Sprintf("quiz started in chat %d for %s - %s", chatID, req.Artist, req.Song))
	return h.sendQuestion(b, session)
}

func (h *ClientHandlers) reportFailure(b *bot.Bot, chatID int64, req lyrics.Request, err error) error {
	switch {
	case errors.Is(err, lyrics.ErrNotFound):
		return b.SendMessage(chatID, "не нашёл текст этой песни 😔 проверь написание")
	case errors.Is(err, lyrics.ErrInvalidRequest):
		return b.SendMessage(chatID, "нужны и исполнитель, и название песни")
	default:
		logger.Error(fmt.Sprintf("quiz for %s - %s failed in chat %d: %v", req.Artist, req.Song, chatID, err))
		return b.SendMessage(chatID, "что-то пошло не так, попробуй позже")
	}
}

// next asks the following question or wraps the quiz up.
func (h *ClientHandlers) next(b *bot.Bot, session state.Session) error {
	if !session.Finished() {
		return h.sendQuestion(b, session)
	}

	if h.games != nil {
		err := h.games.Record(context.Background(), db.Game{
			ChatID:     session.ChatID,
			Username:   session.Username,
			Artist:     session.Song.Artist,
			Song:       session.Song.Song,
			Score:      session.Score,
			Total:      len(session.Questions),
			FinishedAt: time.Now(),
		})
		if err != nil {
			logger.Warn(fmt.Sprintf("recording game for chat %d failed: %v", session.ChatID, err))
		}
	}

	return b.SendMessage(session.ChatID, fmt.Sprintf(
		"викторина окончена! результат: %d из %d\n\nхочешь ещё? пиши следующую песню",
		session.Score, len(session.Questions),
	))
}

func (h *ClientHandlers) sendQuestion(b *bot.Bot, session state.Session) error {
	question, ok := session.Question()
	if !ok {
		return nil
	}
	text := fmt.Sprintf("вопрос %d/%d:\n%s", session.Current+1, len(session.Questions), question.QuestionText)
	return b.SendMessageWithButtons(session.ChatID, text,
		tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("показать ответ", fmt.Sprintf("%s:%d", answerCallback, session.Current)),
			),
		),
	)
}

// SetupHandlers builds the quiz bot routes on top of the common ones.
func SetupHandlers(handlers *ClientHandlers, stats common.StatsReader) bot.Handlers {
	commandHandlers := common.GetCommandHandlers(stats)
	commandHandlers["quiz"] = handlers.quizHandler
	commandHandlers["stop"] = handlers.stopHandler

	callbackHandlers := common.GetCallbackHandlers()
	callbackHandlers[answerCallback] = handlers.revealHandler

	return bot.Handlers{
		Commands:  commandHandlers,
		Messages:  []bot.HandlerFunc{handlers.textHandler},
		Callbacks: callbackHandlers,
	}
}
