// Package genius is the primary lyrics strategy: the Genius search API picks
// the song page, a browser session reads the lyrics off it.
package genius

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/sukalov/songquiz/internal/config"
	"github.com/sukalov/songquiz/internal/logger"
	"github.com/sukalov/songquiz/internal/lyrics"
	"github.com/sukalov/songquiz/internal/lyrics/normalize"
)

const pageBaseURL = "https://genius.com"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type searchResponse struct {
	Response struct {
		Hits []hit `json:"hits"`
	} `json:"response"`
}

type hit struct {
	Type   string `json:"type"`
	Result struct {
		Path          string `json:"path"`
		Title         string `json:"title"`
		PrimaryArtist struct {
			Name string `json:"name"`
		} `json:"primary_artist"`
	} `json:"result"`
}

// Resolver looks songs up through the Genius search API.
type Resolver struct {
	token   string
	baseURL string
	client  *client
}

// NewResolver creates a Resolver. An empty token is accepted; Resolve then
// fails with config.ErrMissingCredential.
func NewResolver(token, baseURL, userAgent string) *Resolver {
	if baseURL == "" {
		baseURL = config.DefaultGeniusBaseURL
	}
	return &Resolver{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newClient(userAgent),
	}
}

// Resolve returns the song page URL of the first hit whose primary artist
// matches artist, or lyrics.ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, artist, song string) (string, error) {
	if r.token == "" {
		return "", fmt.Errorf("GENIUS_API_TOKEN: %w", config.ErrMissingCredential)
	}

	query := url.Values{"q": {artist + " " + song}}
	body, err := r.client.get(ctx, r.baseURL+"/search?"+query.Encode(), r.token)
	if err != nil {
		return "", err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode genius response: %w", err)
	}

	path, ok := matchHit(resp.Response.Hits, artist)
	if !ok {
		logger.Debug(fmt.Sprintf("no Genius hit by %q among %d results", artist, len(resp.Response.Hits)))
		return "", fmt.Errorf("genius search %q: %w", artist+" "+song, lyrics.ErrNotFound)
	}
	return pageBaseURL + path, nil
}

// matchHit returns the path of the first hit, in API order, whose primary
// artist normalizes to the same key as artist.
func matchHit(hits []hit, artist string) (string, bool) {
	want := normalize.Artist(artist)
	for _, h := range hits {
		if h.Result.Path == "" {
			continue
		}
		if normalize.Artist(h.Result.PrimaryArtist.Name) == want {
			return h.Result.Path, true
		}
	}
	return "", false
}
