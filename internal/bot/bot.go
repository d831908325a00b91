package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sukalov/songquiz/internal/logger"
)

// HandlerFunc handles one update
type HandlerFunc func(b *Bot, update tgbotapi.Update) error

// Handlers routes updates. Callback data is matched exactly first, then by
// the part before the first ':' (so "answer:2" reaches "answer").
type Handlers struct {
	Commands  map[string]HandlerFunc
	Messages  []HandlerFunc
	Callbacks map[string]HandlerFunc
}

// Sender is the subset of the Telegram API the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot represents a configurable Telegram bot
type Bot struct {
	Client Sender
	api    *tgbotapi.BotAPI
	name   string
}

// New creates a new bot instance
func New(name, token string) (*Bot, error) {
	botClient, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &Bot{
		Client: botClient,
		api:    botClient,
		name:   name,
	}, nil
}

// NewWithSender creates a bot that only sends, used by tests and the log sink.
func NewWithSender(name string, sender Sender) *Bot {
	return &Bot{Client: sender, name: name}
}

// Start processes updates until ctx is cancelled. Each update runs on its own goroutine.
func (b *Bot) Start(ctx context.Context, handlers Handlers) error {
	if b.api == nil {
		return fmt.Errorf("[%s] bot has no telegram connection", b.name)
	}
	logger.Info(fmt.Sprintf("[%s] authorized on account %s", b.name, b.api.Self.UserName))

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.ProcessUpdate(update, handlers)
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			logger.Info(fmt.Sprintf("[%s] stopped", b.name))
			return nil
		}
	}
}

// ProcessUpdate handles one update with the matching handlers
func (b *Bot) ProcessUpdate(update tgbotapi.Update, handlers Handlers) {
	if update.Message != nil && update.Message.IsCommand() {
		if handler, exists := handlers.Commands[update.Message.Command()]; exists {
			if err := handler(b, update); err != nil {
				logger.Error(fmt.Sprintf("[%s] command handler error: %v", b.name, err))
			}
			return
		}
	}

	if update.CallbackQuery != nil {
		if handler, exists := callbackHandler(handlers.Callbacks, update.CallbackQuery.Data); exists {
			if err := handler(b, update); err != nil {
				logger.Error(fmt.Sprintf("[%s] callback handler error: %v", b.name, err))
			}
			b.AnswerCallback(update.CallbackQuery.ID)
			return
		}
	}

	for _, handler := range handlers.Messages {
		if err := handler(b, update); err != nil {
			logger.Error(fmt.Sprintf("[%s] message handler error: %v", b.name, err))
		}
	}
}

func callbackHandler(callbacks map[string]HandlerFunc, data string) (HandlerFunc, bool) {
	if handler, exists := callbacks[data]; exists {
		return handler, true
	}
	prefix, _, found := strings.Cut(data, ":")
	if !found {
		return nil, false
	}
	handler, exists := callbacks[prefix]
	return handler, exists
}

// AnswerCallback stops the loading indicator on an inline button.
func (b *Bot) AnswerCallback(callbackID string) {
	if _, err := b.Client.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		logger.Debug(fmt.Sprintf("[%s] answering callback failed: %v", b.name, err))
	}
}

func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.Client.Send(msg)
	return err
}

func (b *Bot) SendMessageWithMarkdown(chatID int64, text string, disableLinks bool) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = disableLinks
	_, err := b.Client.Send(msg)
	return err
}

func (b *Bot) SendMessageWithButtons(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	_, err := b.Client.Send(msg)
	return err
}

// EscapeMarkdown escapes text for legacy Markdown messages.
func EscapeMarkdown(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, text)
}
