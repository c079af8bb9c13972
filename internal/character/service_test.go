package character

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(&Config{
		Logger:     slog.Default(),
		ThinkDelay: time.Millisecond,
	})
}

func TestService_Persona(t *testing.T) {
	s := newTestService(t)

	p, err := s.Persona("pirate")
	require.NoError(t, err)
	assert.Equal(t, "pirate", p.Name)
	assert.NotEmpty(t, p.Greeting)
	assert.NotEmpty(t, p.Templates)

	_, err = s.Persona("accountant")
	require.ErrorIs(t, err, ErrPersonaNotFound)

	assert.Len(t, s.Personas(), 3)
}

func TestService_ReplyProcessor(t *testing.T) {
	s := newTestService(t)

	t.Run("generates a reply", func(t *testing.T) {
		proc := s.ReplyProcessor("sage")

		result, err := proc(context.Background(), "what is the meaning of life?")
		require.NoError(t, err)

		reply, ok := result.(Reply)
		require.True(t, ok)
		assert.Equal(t, "sage", reply.Persona)
		assert.NotEmpty(t, reply.Text)
	})

	t.Run("stable for repeated input", func(t *testing.T) {
		proc := s.ReplyProcessor("robot")

		first, err := proc(context.Background(), "hello")
		require.NoError(t, err)
		second, err := proc(context.Background(), "hello")
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("commands get the greeting", func(t *testing.T) {
		proc := s.ReplyProcessor("pirate")

		result, err := proc(context.Background(), "/start")
		require.NoError(t, err)

		reply := result.(Reply)
		p, _ := s.Persona("pirate")
		assert.Equal(t, p.Greeting, reply.Text)
	})

	t.Run("unknown persona fails", func(t *testing.T) {
		proc := s.ReplyProcessor("accountant")

		_, err := proc(context.Background(), "hello")
		require.ErrorIs(t, err, ErrPersonaNotFound)
	})

	t.Run("non-string payload fails", func(t *testing.T) {
		proc := s.ReplyProcessor("sage")

		_, err := proc(context.Background(), 42)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be a string")
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		slow := NewService(&Config{
			Logger:     slog.Default(),
			ThinkDelay: time.Second,
		})
		proc := slow.ReplyProcessor("sage")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := proc(ctx, "hello")
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestIsCommand(t *testing.T) {
	assert.True(t, IsCommand("/start"))
	assert.True(t, IsCommand("  /help"))
	assert.False(t, IsCommand("hello /start"))
	assert.False(t, IsCommand(""))
}
