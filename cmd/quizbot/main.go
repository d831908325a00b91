package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sukalov/songquiz/internal/app"
	"github.com/sukalov/songquiz/internal/bot"
	"github.com/sukalov/songquiz/internal/bot/admin"
	"github.com/sukalov/songquiz/internal/bot/client"
	"github.com/sukalov/songquiz/internal/bot/common"
	"github.com/sukalov/songquiz/internal/config"
	"github.com/sukalov/songquiz/internal/logger"
	"github.com/sukalov/songquiz/internal/server"
	"github.com/sukalov/songquiz/internal/state"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		logger.Error(fmt.Sprintf("quizbot stopped: %v", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	var (
		quizBot *bot.Bot
		routes  bot.Handlers
	)
	if cfg.BotEnabled() {
		quizBot, err = bot.New("quizbot", cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("failed to create telegram bot: %w", err)
		}
		if err := logger.Init(quizBot); err != nil {
			logger.Warn(fmt.Sprintf("log channel disabled: %v", err))
		}

		routes, err = botRoutes(ctx, a)
		if err != nil {
			return err
		}
	} else {
		logger.Info("TELEGRAM_BOT_TOKEN is not set, running the HTTP API only")
	}

	g, gctx := errgroup.WithContext(ctx)

	srv := server.New(a.Lyrics, a.Quiz, cfg.RequestTimeout)
	g.Go(func() error {
		return srv.Run(gctx, cfg.HTTPAddr)
	})
	if quizBot != nil {
		g.Go(func() error {
			return quizBot.Start(gctx, routes)
		})
	}

	return g.Wait()
}

func botRoutes(ctx context.Context, a *app.App) (bot.Handlers, error) {
	sessions := state.NewStateManager(a.SessionStore())
	if err := sessions.Init(ctx); err != nil {
		return bot.Handlers{}, err
	}
	logger.Info(fmt.Sprintf("%d quizzes in progress", sessions.Active()))

	var (
		games client.GameRecorder
		stats common.StatsReader
	)
	if a.Games != nil {
		games, stats = a.Games, a.Games
	}

	handlers := client.NewClientHandlers(sessions, a.Lyrics, a.Quiz, games, a.Config.RequestTimeout)
	routes := client.SetupHandlers(handlers, stats)
	admin.SetupHandlers(&routes, a.Lyrics, a.Config.AdminUsernames)
	return routes, nil
}
