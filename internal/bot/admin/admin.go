package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sukalov/songquiz/internal/bot"
	"github.com/sukalov/songquiz/internal/bot/common"
	"github.com/sukalov/songquiz/internal/lyrics"
)

type Forgetter interface {
	Forget(ctx context.Context, req lyrics.Request) error
}

type AdminHandlers struct {
	lyrics  Forgetter
	admins  map[string]bool
	mu      sync.Mutex
	pending map[int64]lyrics.Request
}

func NewAdminHandlers(forgetter Forgetter, adminUsernames []string) *AdminHandlers {
	admins := make(map[string]bool)
	for _, username := range adminUsernames {
		admins[username] = true
	}

	return &AdminHandlers{
		lyrics:  forgetter,
		admins:  admins,
		pending: make(map[int64]lyrics.Request),
	}
}

func (h *AdminHandlers) forgetHandler(b *bot.Bot, update tgbotapi.Update) error {
	message := update.Message

	if !h.admins[message.From.UserName] {
		return b.SendMessage(message.Chat.ID, "вы не админ")
	}
	req, ok := common.ParseSong(message.CommandArguments())
	if !ok {
		return b.SendMessage(message.Chat.ID, "напишите так: /forget Кино - Группа крови")
	}

	h.mu.Lock()
	h.pending[message.Chat.ID] = req
	h.mu.Unlock()

	return b.SendMessageWithButtons(message.Chat.ID,
		fmt.Sprintf("сохранённый текст песни «%s» (%s) будет удалён из кэша. уверены?", req.Song, req.Artist),
		tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("удаляем", "confirm_forget"),
				tgbotapi.NewInlineKeyboardButtonData("отмена", "abort_forget"),
			),
		),
	)
}

func (h *AdminHandlers) takePending(chatID int64) (lyrics.Request, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	req, ok := h.pending[chatID]
	delete(h.pending, chatID)
	return req, ok
}

func (h *AdminHandlers) confirmHandler(b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.CallbackQuery.Message.Chat.ID
	req, ok := h.takePending(chatID)
	if !ok {
		return b.SendMessage(chatID, "кнопка уже не работает")
	}

	if err := h.lyrics.Forget(context.Background(), req); err != nil {
		return errors.Join(err, b.SendMessage(chatID, "не получилось удалить"))
	}
	return b.SendMessage(chatID, "текст удалён из кэша")
}

func (h *AdminHandlers) abortHandler(b *bot.Bot, update tgbotapi.Update) error {
	chatID := update.CallbackQuery.Message.Chat.ID
	if _, ok := h.takePending(chatID); ok {
		return b.SendMessage(chatID, "ок. отменили")
	}
	return b.SendMessage(chatID, "кнопка уже не работает")
}

// SetupHandlers adds the admin commands to routes.
func SetupHandlers(routes *bot.Handlers, forgetter Forgetter, adminUsernames []string) {
	handlers := NewAdminHandlers(forgetter, adminUsernames)

	routes.Commands["forget"] = handlers.forgetHandler
	routes.Callbacks["abort_forget"] = handlers.abortHandler
	routes.Callbacks["confirm_forget"] = handlers.confirmHandler
}
