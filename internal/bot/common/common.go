package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sukalov/songquiz/internal/bot"
	"github.com/sukalov/songquiz/internal/db"
	"github.com/sukalov/songquiz/internal/lyrics"
)

const HelpText = "привет! я делаю викторины по текстам песен.\n\n" +
	"напиши исполнителя и песню через дефис, например:\n" +
	"Кино - Группа крови\n\n" +
	"или командой: /quiz Кино - Группа крови\n\n" +
	"отвечай на вопросы сообщениями, кнопка под вопросом покажет ответ.\n" +
	"/stop — закончить викторину\n" +
	"/stats — твои результаты"

var separators = []string{" - ", " – ", " — "}

// ParseSong splits "Artist - Song" on the first dash surrounded by spaces.
func ParseSong(text string) (lyrics.Request, bool) {
	for _, sep := range separators {
		artist, song, found := strings.Cut(text, sep)
		if !found {
			continue
		}
		req, err := lyrics.Request{Artist: artist, Song: song}.Trimmed()
		if err != nil {
			return lyrics.Request{}, false
		}
		return req, true
	}
	return lyrics.Request{}, false
}

// StatsReader reads a chat's game history.
type StatsReader interface {
	Stats(ctx context.Context, chatID int64) (db.Stats, error)
}

type CommonHandlers struct {
	stats StatsReader
}

func GetCommandHandlers(stats StatsReader) map[string]bot.HandlerFunc {
	handlers := &CommonHandlers{stats: stats}
	return map[string]bot.HandlerFunc{
		"start": helpHandler,
		"help":  helpHandler,
		"stats": handlers.statsHandler,
	}
}

// GetCallbackHandlers returns common callback handlers
func GetCallbackHandlers() map[string]bot.HandlerFunc {
	return map[string]bot.HandlerFunc{}
}

func helpHandler(b *bot.Bot, update tgbotapi.Update) error {
	return b.SendMessage(update.Message.Chat.ID, HelpText)
}

func (h *CommonHandlers) statsHandler(b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	if h.stats == nil {
		return b.SendMessage(chatID, "статистика сейчас недоступна")
	}

	stats, err := h.stats.Stats(context.Background(), chatID)
	if err != nil {
		return errors.Join(err, b.SendMessage(chatID, "не получилось загрузить статистику"))
	}
	if stats.Games == 0 {
		return b.SendMessage(chatID, "ты ещё не сыграл ни одной викторины")
	}
	return b.SendMessageWithMarkdown(chatID, fmt.Sprintf(
		"*викторин сыграно:* %d\n*правильных ответов:* %d из %d",
		stats.Games, stats.Correct, stats.Asked,
	), true)
}
