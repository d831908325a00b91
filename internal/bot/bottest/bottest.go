// Package bottest records what a bot sends.
package bottest

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sent is one outgoing message.
type Sent struct {
	ChatID  int64
	Text    string
	Buttons []tgbotapi.InlineKeyboardButton
}

// Sender implements bot.Sender in memory.
type Sender struct {
	// SendErr, when set, is returned by Send after the message is recorded.
	SendErr error

	mu       sync.Mutex
	messages []Sent
	requests int
}

func (s *Sender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		sent := Sent{ChatID: msg.ChatID, Text: msg.Text}
		if markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); ok {
			for _, row := range markup.InlineKeyboard {
				sent.Buttons = append(sent.Buttons, row...)
			}
		}
		s.messages = append(s.messages, sent)
	}
	return tgbotapi.Message{}, s.SendErr
}

func (s *Sender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// Messages returns everything sent so far.
func (s *Sender) Messages() []Sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Sent(nil), s.messages...)
}

// Last returns the last message sent, or an empty Sent.
func (s *Sender) Last() Sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return Sent{}
	}
	return s.messages[len(s.messages)-1]
}

// Command builds an update carrying a bot command, e.g. "/quiz Кино - Звезда".
func Command(chatID int64, username, text string) tgbotapi.Update {
	update := Text(chatID, username, text)
	length := len(text)
	for i, r := range text {
		if r == ' ' {
			length = i
			break
		}
	}
	update.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	return update
}

// Text builds an update carrying a plain message.
func Text(chatID int64, username, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{UserName: username},
		Text: text,
	}}
}

// Callback builds an update for an inline button press.
func Callback(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "callback",
		Data:    data,
		From:    &tgbotapi.User{ID: chatID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}
