package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sukalov/songquiz/internal/bot"
	"github.com/sukalov/songquiz/internal/bot/bottest"
	"github.com/sukalov/songquiz/internal/lyrics"
)

type fakeForgetter struct {
	forgotten []lyrics.Request
	err       error
}

func (f *fakeForgetter) Forget(_ context.Context, req lyrics.Request) error {
	f.forgotten = append(f.forgotten, req)
	return f.err
}

func setup() (*bot.Bot, *bottest.Sender, bot.Handlers, *fakeForgetter) {
	sender := &bottest.Sender{}
	forgetter := &fakeForgetter{}
	routes := bot.Handlers{
		Commands:  map[string]bot.HandlerFunc{},
		Callbacks: map[string]bot.HandlerFunc{},
	}
	SetupHandlers(&routes, forgetter, []string{"admin"})
	return bot.NewWithSender("quiz", sender), sender, routes, forgetter
}

func TestForgetConfirmed(t *testing.T) {
	b, sender, routes, forgetter := setup()

	b.ProcessUpdate(bottest.Command(1, "admin", "/forget Кино - Звезда"), routes)
	require.Len(t, sender.Last().Buttons, 2)

	b.ProcessUpdate(bottest.Callback(1, "confirm_forget"), routes)
	assert.Equal(t, []lyrics.Request{{Artist: "Кино", Song: "Звезда"}}, forgetter.forgotten)
	assert.Equal(t, "текст удалён из кэша", sender.Last().Text)

	b.ProcessUpdate(bottest.Callback(1, "confirm_forget"), routes)
	assert.Equal(t, "кнопка уже не работает", sender.Last().Text)
	assert.Len(t, forgetter.forgotten, 1)
}

func TestForgetAborted(t *testing.T) {
	b, sender, routes, forgetter := setup()

	b.ProcessUpdate(bottest.Command(1, "admin", "/forget Кино - Звезда"), routes)
	b.ProcessUpdate(bottest.Callback(1, "abort_forget"), routes)

	assert.Equal(t, "ок. отменили", sender.Last().Text)
	assert.Empty(t, forgetter.forgotten)
}

func TestForgetRequiresAdmin(t *testing.T) {
	b, sender, routes, forgetter := setup()

	b.ProcessUpdate(bottest.Command(1, "someone", "/forget Кино - Звезда"), routes)

	assert.Equal(t, "вы не админ", sender.Last().Text)
	assert.Empty(t, forgetter.forgotten)
}

func TestForgetFailureReportsBothErrors(t *testing.T) {
	b, sender, routes, forgetter := setup()
	forgetter.err = errors.New("redis down")

	b.ProcessUpdate(bottest.Command(1, "admin", "/forget Кино - Звезда"), routes)
	sender.SendErr = errors.New("telegram down")

	err := routes.Callbacks["confirm_forget"](b, bottest.Callback(1, "confirm_forget"))
	assert.ErrorContains(t, err, "redis down")
	assert.ErrorContains(t, err, "telegram down")
	assert.Equal(t, "не получилось удалить", sender.Last().Text)
}
