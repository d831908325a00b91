package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/sukalov/songquiz/internal/app"
	"github.com/sukalov/songquiz/internal/config"
	"github.com/sukalov/songquiz/internal/logger"
	"github.com/sukalov/songquiz/internal/lyrics"
)

var (
	withQuiz bool
	noCache  bool
	verbose  bool
	timeout  time.Duration
)

var (
	title   = color.New(color.FgCyan, color.Bold)
	faint   = color.New(color.Faint)
	answer  = color.New(color.FgGreen)
	failure = color.New(color.FgRed, color.Bold)
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lyrics-fetch <artist> <song>",
		Short: "Find the lyrics of a song and optionally build a quiz from them",
		Example: `  lyrics-fetch "Кино" "Группа крови"
  lyrics-fetch --quiz --no-cache "Noize MC" "Вселенная бесконечна?"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	rootCmd.Flags().BoolVar(&withQuiz, "quiz", false, "also generate quiz questions")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the lyrics cache")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 0, "overall deadline (default REQUEST_TIMEOUT)")

	if err := rootCmd.Execute(); err != nil {
		failure.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger.SetOutput(os.Stderr)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if timeout == 0 {
		timeout = cfg.RequestTimeout
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	a, err := app.New(ctx, cfg, app.Options{NoCache: noCache})
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Lyrics.Fetch(ctx, lyrics.Request{Artist: args[0], Song: args[1]})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	title.Fprintf(out, "%s - %s\n", args[0], args[1])
	faint.Fprintf(out, "source: %s (%s, cached: %t)\n\n", result.SourceURL, result.Strategy, result.Cached)
	fmt.Fprintln(out, result.Lyrics)

	if !withQuiz {
		return nil
	}

	set, err := a.Quiz.Generate(ctx, result.Lyrics)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	title.Fprintln(out, "quiz")
	for i, q := range set.Questions {
		fmt.Fprintf(out, "%d. %s\n", i+1, q.QuestionText)
		answer.Fprintf(out, "   %s\n", q.CorrectAnswer)
	}
	return nil
}
