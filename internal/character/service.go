package character

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"time"

	"github.com/thanhpq/chatbot-be/internal/queue"
)

// DefaultPersona is used when a dialog does not name one
const DefaultPersona = "sage"

var (
	// ErrPersonaNotFound is returned when a dialog references an unknown persona
	ErrPersonaNotFound = fmt.Errorf("persona not found")
)

// Persona describes one chatbot character
type Persona struct {
	Name       string
	Greeting   string
	Templates  []string
	ThinkDelay time.Duration
}

// Reply is the outcome of one reply-generation work item
type Reply struct {
	Persona string `json:"persona"`
	Text    string `json:"text"`
}

// Service generates character replies. It holds no state beyond its
// persona table; the actual generation runs inside queue processors.
type Service struct {
	logger   *slog.Logger
	personas map[string]Persona
}

// Config holds character service configuration
type Config struct {
	Logger     *slog.Logger
	ThinkDelay time.Duration
}

// NewService creates a character service with the built-in persona set
func NewService(cfg *Config) *Service {
	delay := cfg.ThinkDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}

	s := &Service{
		logger:   cfg.Logger,
		personas: make(map[string]Persona),
	}

	for _, p := range builtinPersonas(delay) {
		s.personas[p.Name] = p
	}

	return s
}

// Persona looks up a persona by name
func (s *Service) Persona(name string) (Persona, error) {
	p, ok := s.personas[name]
	if !ok {
		return Persona{}, fmt.Errorf("%w: %s", ErrPersonaNotFound, name)
	}
	return p, nil
}

// Personas returns the names of all registered personas
func (s *Service) Personas() []string {
	names := make([]string, 0, len(s.personas))
	for name := range s.personas {
		names = append(names, name)
	}
	return names
}

// ReplyProcessor returns a queue processor that generates the persona's
// reply to text. The simulated thinking delay honors the context, so a
// per-item timeout cuts generation short.
func (s *Service) ReplyProcessor(personaName string) queue.Processor {
	return func(ctx context.Context, payload any) (any, error) {
		text, ok := payload.(string)
		if !ok {
			return nil, fmt.Errorf("reply payload must be a string, got %T", payload)
		}

		persona, err := s.Persona(personaName)
		if err != nil {
			return nil, err
		}

		select {
		case <-time.After(persona.ThinkDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("reply generation canceled: %w", ctx.Err())
		}

		reply := persona.compose(text)

		s.logger.Debug("Reply generated",
			slog.String("persona", persona.Name),
			slog.Int("input_len", len(text)),
		)

		return Reply{Persona: persona.Name, Text: reply}, nil
	}
}

// compose picks a template deterministically from the input so repeated
// messages get stable answers
func (p Persona) compose(text string) string {
	if IsCommand(text) {
		return p.Greeting
	}

	h := fnv.New32a()
	h.Write([]byte(text))
	tmpl := p.Templates[int(h.Sum32())%len(p.Templates)]

	return fmt.Sprintf(tmpl, strings.TrimSpace(text))
}

// IsCommand reports whether text is a bot command rather than a chat message
func IsCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}

func builtinPersonas(delay time.Duration) []Persona {
	return []Persona{
		{
			Name:     "sage",
			Greeting: "Greetings, traveler. Ask, and I shall ponder.",
			Templates: []string{
				"Hmm. %q is a question the old scrolls answer in riddles.",
				"Consider this: %s. Now consider the opposite. Wisdom lives between.",
				"Patience. The answer to %q reveals itself to those who wait.",
			},
			ThinkDelay: delay,
		},
		{
			Name:     "pirate",
			Greeting: "Ahoy! Ye be talkin' to the saltiest bot on the seven seas.",
			Templates: []string{
				"Arr, %s ye say? That be a tale worth a barrel o' rum!",
				"Shiver me timbers! %q be the kind o' talk that sinks ships.",
				"Aye, %s. Now swab the deck!",
			},
			ThinkDelay: delay,
		},
		{
			Name:     "robot",
			Greeting: "UNIT ONLINE. AWAITING INPUT.",
			Templates: []string{
				"PROCESSING %q. RESULT: AFFIRMATIVE.",
				"INPUT %q ACKNOWLEDGED. CONFIDENCE: 42 PERCENT.",
				"ANALYSIS OF %q COMPLETE. PLEASE RESTATE IN BINARY.",
			},
			ThinkDelay: delay,
		},
	}
}
