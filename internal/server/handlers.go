package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/sukalov/songquiz/internal/config"
	"github.com/sukalov/songquiz/internal/lyrics"
	"github.com/sukalov/songquiz/internal/quiz"
)

const maxBodyBytes = 1 << 16

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var errBadRequest = errors.New("invalid request body")

// LyricsQuizResponse is the body of a successful POST /lyrics.
type LyricsQuizResponse struct {
	Lyrics string   `json:"lyrics"`
	Quiz   quiz.Set `json:"quiz"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "Server is running"})
}

func (s *Server) handleLyrics(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.lyrics.Fetch(ctx, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	set, err := s.quiz.Generate(ctx, result.Lyrics)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	requestLogger(r).Infof("quiz ready for %s - %s (strategy=%s cached=%t)", req.Artist, req.Song, result.Strategy, result.Cached)
	writeJSON(w, http.StatusOK, LyricsQuizResponse{Lyrics: result.Lyrics, Quiz: *set})
}

func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.lyrics.Forget(r.Context(), req); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeRequest(r *http.Request) (lyrics.Request, error) {
	var req lyrics.Request
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return req, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return req.Trimmed()
}

// statusFor maps a pipeline error to a status code and a fixed client message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "Invalid request body."
	case errors.Is(err, lyrics.ErrInvalidRequest):
		return http.StatusBadRequest, "Artist and song are required."
	case errors.Is(err, config.ErrMissingCredential):
		return http.StatusInternalServerError, "A required API credential is not configured."
	case errors.Is(err, lyrics.ErrScrape):
		return http.StatusBadGateway, "Failed to fetch lyrics page from Genius."
	case errors.Is(err, lyrics.ErrNotFound):
		return http.StatusNotFound, "Song not found on Genius or via Google search."
	case errors.Is(err, quiz.ErrGeneration):
		return http.StatusInternalServerError, "Failed to generate quiz questions."
	default:
		return http.StatusInternalServerError, "An internal server error occurred."
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := statusFor(err)

	entry := requestLogger(r).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error(detail)
	} else {
		entry.Info(detail)
	}
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
