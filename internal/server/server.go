// Package server exposes the lyrics quiz pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sukalov/songquiz/internal/logger"
	"github.com/sukalov/songquiz/internal/lyrics"
	"github.com/sukalov/songquiz/internal/quiz"
)

const shutdownTimeout = 10 * time.Second

// LyricsService finds and forgets lyrics.
type LyricsService interface {
	Fetch(ctx context.Context, req lyrics.Request) (*lyrics.Result, error)
	Forget(ctx context.Context, req lyrics.Request) error
}

// QuizGenerator makes a quiz out of lyrics.
type QuizGenerator interface {
	Generate(ctx context.Context, lyrics string) (*quiz.Set, error)
}

// Server handles the HTTP API.
type Server struct {
	lyrics  LyricsService
	quiz    QuizGenerator
	timeout time.Duration
	mux     *http.ServeMux
}

// New creates a Server. timeout bounds every lyrics request; zero means no bound.
func New(lyricsService LyricsService, generator QuizGenerator, timeout time.Duration) *Server {
	s := &Server{
		lyrics:  lyricsService,
		quiz:    generator,
		timeout: timeout,
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /{$}", s.handleStatus)
	s.mux.HandleFunc("POST /lyrics", s.handleLyrics)
	s.mux.HandleFunc("DELETE /lyrics/cache", s.handleForget)

	return s
}

// Handler returns the routes wrapped in middleware.
func (s *Server) Handler() http.Handler {
	return recoverer(requestID(accessLog(cors(s.mux))))
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("HTTP server listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}
