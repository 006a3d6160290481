// Package chat holds the per-user chat session state machine: which
// character is selected, the visible transcript, and the fallback turns shown
// when reply generation fails.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Fallback bot turns. FallbackReplyError is appended when the backend
// answered but the reply could not be used; FallbackConnFailed when the
// backend could not be reached at all.
const (
	FallbackReplyError = "response error"
	FallbackConnFailed = "connection failed"
	greetingFormat     = "반갑다. 나는 %s이다."
)

var (
	ErrSessionClosed = errors.New("chat: no open session")
	ErrSessionStale  = errors.New("chat: session replaced while reply was pending")
)

// Role tags one transcript turn.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Turn is one visible line of the transcript.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Session is a snapshot of one open conversation.
type Session struct {
	ID            uuid.UUID `json:"id"`
	MovieID       string    `json:"movieId"`
	MovieTitle    string    `json:"movieTitle"`
	CharacterName string    `json:"characterName"`
	AvatarURL     string    `json:"avatarUrl"`
	Turns         []Turn    `json:"turns"`
}

// Talker produces one in-character reply. Implemented by dialogue.Client.
type Talker interface {
	Talk(ctx context.Context, movieID, characterName, userMessage string) (string, error)
}

// Controller is the session state machine: closed until a character is
// selected, open until Close. Selecting while open overwrites the whole
// session; Close drops every piece of state so the next open starts blank.
//
// Replies are generated outside the lock. An epoch counter makes sure a slow
// reply for a session that was closed or replaced in the meantime is
// discarded instead of landing in the wrong transcript.
type Controller struct {
	talker Talker

	mu      sync.Mutex
	epoch   uint64
	open    bool
	session Session
}

func NewController(talker Talker) *Controller {
	return &Controller{talker: talker}
}

// Select opens a session with the given character, replacing any open one.
// The transcript starts with the character's greeting.
func (c *Controller) Select(movieID, movieTitle, characterName, avatarURL string) Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.open = true
	c.session = Session{
		ID:            uuid.New(),
		MovieID:       movieID,
		MovieTitle:    movieTitle,
		CharacterName: characterName,
		AvatarURL:     avatarURL,
		Turns: []Turn{
			{Role: RoleBot, Text: fmt.Sprintf(greetingFormat, characterName)},
		},
	}
	return c.snapshotLocked()
}

// Close ends the open session and resets all state. Closing a closed
// controller is a no-op.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.open = false
	c.session = Session{}
}

// Current returns the open session snapshot, or false when closed.
func (c *Controller) Current() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return Session{}, false
	}
	return c.snapshotLocked(), true
}

// Send appends the user's turn, asks the talker for a reply, and appends the
// bot turn. Blank input is ignored without touching the transcript. A failed
// reply still produces a bot turn: FallbackConnFailed when no response came
// back, FallbackReplyError otherwise, so the conversation never dangles on a
// user turn.
func (c *Controller) Send(ctx context.Context, text string) (Session, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.open {
			return Session{}, ErrSessionClosed
		}
		return c.snapshotLocked(), nil
	}

	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return Session{}, ErrSessionClosed
	}
	epoch := c.epoch
	movieID := c.session.MovieID
	character := c.session.CharacterName
	c.session.Turns = append(c.session.Turns, Turn{Role: RoleUser, Text: text})
	c.mu.Unlock()

	reply, err := c.talker.Talk(ctx, movieID, character, text)
	botText := strings.TrimSpace(reply)
	switch {
	case err != nil && isTransportFailure(err):
		botText = FallbackConnFailed
	case err != nil, botText == "":
		// An answered-but-unusable reply (error body or empty text)
		// degrades the same way.
		botText = FallbackReplyError
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open || epoch != c.epoch {
		return Session{}, ErrSessionStale
	}
	c.session.Turns = append(c.session.Turns, Turn{Role: RoleBot, Text: botText})
	return c.snapshotLocked(), nil
}

func (c *Controller) snapshotLocked() Session {
	s := c.session
	s.Turns = append([]Turn(nil), c.session.Turns...)
	return s
}

// isTransportFailure distinguishes "no usable response ever arrived"
// (network or parse failure) from "the backend answered with an error".
// http.Client failures surface as *url.Error, broken reply bodies as json
// decode errors.
func isTransportFailure(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
