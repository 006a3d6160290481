package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedTalker struct {
	mu      sync.Mutex
	replies []string
	err     error
	block   chan struct{}
	calls   int
}

func (s *scriptedTalker) Talk(ctx context.Context, movieID, characterName, userMessage string) (string, error) {
	s.mu.Lock()
	s.calls++
	reply := ""
	if len(s.replies) > 0 {
		reply = s.replies[0]
		s.replies = s.replies[1:]
	}
	block := s.block
	err := s.err
	s.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

func TestSelectOpensWithGreeting(t *testing.T) {
	c := NewController(&scriptedTalker{})

	session := c.Select("parasite", "기생충", "기택", "/images/parasite/기택.png")

	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", session.ID.String())
	assert.Equal(t, "parasite", session.MovieID)
	require.Len(t, session.Turns, 1)
	assert.Equal(t, RoleBot, session.Turns[0].Role)
	assert.Equal(t, "반갑다. 나는 기택이다.", session.Turns[0].Text)

	got, open := c.Current()
	assert.True(t, open)
	assert.Equal(t, session.ID, got.ID)
}

func TestSelectOverwritesOpenSession(t *testing.T) {
	c := NewController(&scriptedTalker{replies: []string{"응."}})

	first := c.Select("parasite", "기생충", "기택", "")
	_, err := c.Send(context.Background(), "안녕하세요")
	require.NoError(t, err)

	second := c.Select("parasite", "기생충", "기우", "")
	assert.NotEqual(t, first.ID, second.ID)
	require.Len(t, second.Turns, 1, "transcript restarts from the new greeting")
	assert.Equal(t, "반갑다. 나는 기우이다.", second.Turns[0].Text)
}

func TestCloseResetsEverything(t *testing.T) {
	c := NewController(&scriptedTalker{})
	c.Select("parasite", "기생충", "기택", "")

	c.Close()
	_, open := c.Current()
	assert.False(t, open)

	_, err := c.Send(context.Background(), "아무도 없나요")
	assert.ErrorIs(t, err, ErrSessionClosed)

	// Closing again stays a no-op.
	c.Close()
}

func TestSendAppendsUserAndBotTurns(t *testing.T) {
	c := NewController(&scriptedTalker{replies: []string{"무계획이 제일이지."}})
	c.Select("parasite", "기생충", "기택", "")

	session, err := c.Send(context.Background(), "  계획이 있으세요?  ")
	require.NoError(t, err)

	require.Len(t, session.Turns, 3)
	assert.Equal(t, Turn{Role: RoleUser, Text: "계획이 있으세요?"}, session.Turns[1])
	assert.Equal(t, Turn{Role: RoleBot, Text: "무계획이 제일이지."}, session.Turns[2])
}

func TestSendBlankInputIsNoop(t *testing.T) {
	talker := &scriptedTalker{}
	c := NewController(talker)
	c.Select("parasite", "기생충", "기택", "")

	session, err := c.Send(context.Background(), "   ")
	require.NoError(t, err)
	assert.Len(t, session.Turns, 1)
	assert.Zero(t, talker.calls)
}

func TestSendReplyErrorFallback(t *testing.T) {
	c := NewController(&scriptedTalker{err: errors.New("dialogue backend error: 500 - boom")})
	c.Select("parasite", "기생충", "기택", "")

	session, err := c.Send(context.Background(), "계획?")
	require.NoError(t, err)

	require.Len(t, session.Turns, 3)
	assert.Equal(t, FallbackReplyError, session.Turns[2].Text)
}

func TestSendEmptyReplyFallback(t *testing.T) {
	c := NewController(&scriptedTalker{replies: []string{"   "}})
	c.Select("parasite", "기생충", "기택", "")

	session, err := c.Send(context.Background(), "계획?")
	require.NoError(t, err)

	require.Len(t, session.Turns, 3)
	assert.Equal(t, FallbackReplyError, session.Turns[2].Text)
}

func TestSendConnectionFailedFallback(t *testing.T) {
	c := NewController(&scriptedTalker{err: &url.Error{Op: "Post", URL: "http://backend/api/talk", Err: errors.New("connection refused")}})
	c.Select("parasite", "기생충", "기택", "")

	session, err := c.Send(context.Background(), "계획?")
	require.NoError(t, err)

	require.Len(t, session.Turns, 3)
	assert.Equal(t, FallbackConnFailed, session.Turns[2].Text)
}

func TestSendParseFailureFallback(t *testing.T) {
	c := NewController(&scriptedTalker{err: fmt.Errorf("decode dialogue reply: %w", &json.SyntaxError{})})
	c.Select("parasite", "기생충", "기택", "")

	session, err := c.Send(context.Background(), "계획?")
	require.NoError(t, err)
	assert.Equal(t, FallbackConnFailed, session.Turns[2].Text)
}

func TestSlowReplyForReplacedSessionIsDiscarded(t *testing.T) {
	talker := &scriptedTalker{replies: []string{"늦은 대답"}, block: make(chan struct{})}
	c := NewController(talker)
	c.Select("parasite", "기생충", "기택", "")

	done := make(chan error, 1)
	go func() {
		_, err := c.Send(context.Background(), "첫 질문")
		done <- err
	}()

	// Wait for the pending send to register its user turn before switching.
	for {
		if s, open := c.Current(); open && len(s.Turns) == 2 {
			break
		}
	}

	c.Select("parasite", "기생충", "기우", "")
	close(talker.block)

	assert.ErrorIs(t, <-done, ErrSessionStale)

	session, open := c.Current()
	require.True(t, open)
	require.Len(t, session.Turns, 1, "stale bot turn must not leak into the new session")
	assert.Equal(t, "기우", session.CharacterName)
}
