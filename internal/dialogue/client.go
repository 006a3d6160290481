// Package dialogue talks to the character dialogue backend: listing the
// characters of a movie and generating in-character replies.
package dialogue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultAvatarURL is an inline grey person icon, used whenever a character
// comes without an image so AvatarURL is never empty.
const DefaultAvatarURL = "data:image/svg+xml;base64,PHN2ZyB4bWxucz0iaHR0cDovL3d3dy53My5vcmcvMjAwMC9zdmciIHZpZXdCb3g9IjAgMCAyNCAyNCIgZmlsbD0iI2NjYyI+PHBhdGggZD0iTTEyIDEyYzIuMjEgMCA0LTEuNzkgNC00cy0xLjc5LTQtNC00LTQgMS43OS00IDQgMS43OSA0IDQgNHptMCAyYy0yLjY3IDAtOCAxLjM0LTggNHYyaDE2di0yYzAtMi42Ni01LjMzLTQtOC00eiIvPjwvc3ZnPg=="

// CharacterIdentity is the normalized boundary type for one selectable
// character. AvatarURL is never empty.
type CharacterIdentity struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type charactersResponse struct {
	Characters []json.RawMessage `json:"characters"`
}

// ListCharacters fetches the characters for one movie id. A non-2xx status
// or an unparseable body resolves to an empty list with a nil error; only a
// transport failure (no response received) returns an error, so callers can
// distinguish "no characters" from "lookup failed". Upstream order is
// preserved.
func (c *Client) ListCharacters(ctx context.Context, movieID string) ([]CharacterIdentity, error) {
	endpoint := c.baseURL + "/api/characters/" + movieID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Warn("characters: upstream status", slog.String("movie_id", movieID), slog.Int("status", resp.StatusCode))
		return []CharacterIdentity{}, nil
	}

	var payload charactersResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		slog.Warn("characters: bad upstream body", slog.String("movie_id", movieID), slog.Any("err", err))
		return []CharacterIdentity{}, nil
	}

	out := make([]CharacterIdentity, 0, len(payload.Characters))
	for _, raw := range payload.Characters {
		if ident, ok := normalizeCharacter(raw); ok {
			out = append(out, ident)
		}
	}
	return out, nil
}

// normalizeCharacter coerces a duck-typed entry (bare string or
// {name,image} object) into a CharacterIdentity, defaulting the avatar once.
func normalizeCharacter(raw json.RawMessage) (CharacterIdentity, bool) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		name = strings.TrimSpace(name)
		if name == "" {
			return CharacterIdentity{}, false
		}
		return CharacterIdentity{Name: name, AvatarURL: DefaultAvatarURL}, true
	}

	var obj struct {
		Name  string `json:"name"`
		Image string `json:"image"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return CharacterIdentity{}, false
	}
	obj.Name = strings.TrimSpace(obj.Name)
	if obj.Name == "" {
		return CharacterIdentity{}, false
	}
	avatar := strings.TrimSpace(obj.Image)
	if avatar == "" {
		avatar = DefaultAvatarURL
	}
	return CharacterIdentity{Name: obj.Name, AvatarURL: avatar}, true
}

// TalkRequest is the fixed JSON envelope forwarded verbatim through the
// two-hop proxy.
type TalkRequest struct {
	MovieID       string `json:"movieId"`
	CharacterName string `json:"characterName"`
	UserMessage   string `json:"userMessage"`
}

type talkResponse struct {
	Reply string `json:"reply"`
}

// Talk sends one chat turn to the dialogue backend and returns the reply
// text. A non-2xx status folds the backend's status and body text into the
// error. No retries, no request shaping.
func (c *Client) Talk(ctx context.Context, movieID, characterName, userMessage string) (string, error) {
	body, err := json.Marshal(TalkRequest{
		MovieID:       movieID,
		CharacterName: characterName,
		UserMessage:   userMessage,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/talk", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("dialogue backend error: %d - %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var payload talkResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode dialogue reply: %w", err)
	}
	return payload.Reply, nil
}
