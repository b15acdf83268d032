package chat

import (
	"context"
	"strings"
	"time"

	"phistack/internal/catalog"
	"phistack/internal/logging"
)

// DefaultHistoryLimit bounds the number of remembered exchanges.
const DefaultHistoryLimit = 10

const (
	basePersona   = "You are Phi, a helpful AI assistant created by Microsoft."
	codingPersona = " You specialize in helping with programming tasks, code generation, debugging, and software development best practices."
	mathPersona   = " You excel at mathematical reasoning, problem solving, and explaining complex mathematical concepts clearly."
	closingClause = " You provide accurate, helpful, and concise responses."

	codingSection = "\n\nCoding Assistant Mode: Focus on programming tasks, code quality, and best practices."
	mathSection   = "\n\nMath Assistant Mode: Emphasize mathematical accuracy and clear step-by-step explanations."

	codingTag = "[CODING TASK] "
	mathTag   = "[MATH PROBLEM] "
)

var (
	codingKeywords = []string{"code", "function", "bug"}
	mathKeywords   = []string{"solve", "calculate", "equation"}
)

// Options configures a Session.
type Options struct {
	Variant      catalog.ModelVariant
	Generator    Generator
	SystemPrompt string
	CodingMode   bool
	MathMode     bool
	HistoryLimit int
	MaxTokens    int
	Temperature  float32
	Transcript   *Transcript
	Logger       *logging.Logger
}

// Turn is a remembered exchange.
type Turn struct {
	User      string
	Assistant string
}

// Session keeps the conversation state for one chat.
// It is not safe for concurrent use.
type Session struct {
	opts    Options
	system  string
	history []Turn
	logger  *logging.Logger
}

// NewSession builds the system prompt and applies defaults.
func NewSession(opts Options) *Session {
	if opts.Generator == nil {
		opts.Generator = UnavailableGenerator{}
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Session{
		opts:   opts,
		system: SystemPrompt(opts.SystemPrompt, opts.CodingMode, opts.MathMode),
		logger: logger,
	}
}

// SystemPrompt returns the default persona when custom is empty, otherwise
// custom with the enabled mode sections appended.
func SystemPrompt(custom string, coding, math bool) string {
	if strings.TrimSpace(custom) != "" {
		out := custom
		if coding {
			out += codingSection
		}
		if math {
			out += mathSection
		}
		return out
	}

	out := basePersona
	if coding {
		out += codingPersona
	}
	if math {
		out += mathPersona
	}
	return out + closingClause
}

// Variant returns the model this session talks to.
func (s *Session) Variant() catalog.ModelVariant { return s.opts.Variant }

// System returns the effective system prompt.
func (s *Session) System() string { return s.system }

// History returns a copy of the remembered exchanges, oldest first.
func (s *Session) History() []Turn {
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// Reset forgets the conversation.
func (s *Session) Reset() { s.history = nil }

// EnhanceInput tags coding and math requests when the matching mode is on.
func (s *Session) EnhanceInput(input string) string {
	out := input
	if s.opts.CodingMode && containsAny(input, codingKeywords) {
		out = codingTag + out
	}
	if s.opts.MathMode && containsAny(input, mathKeywords) {
		out = mathTag + out
	}
	return out
}

// BuildPrompt renders the system prompt, history and the new input.
func (s *Session) BuildPrompt(input string) string {
	var b strings.Builder
	b.WriteString("System: ")
	b.WriteString(s.system)
	b.WriteString("\n\n")
	for _, t := range s.history {
		b.WriteString("User: ")
		b.WriteString(t.User)
		b.WriteString("\nAssistant: ")
		b.WriteString(t.Assistant)
		b.WriteString("\n\n")
	}
	b.WriteString("User: ")
	b.WriteString(s.EnhanceInput(input))
	b.WriteString("\nAssistant:")
	return b.String()
}

// Send generates a reply to input and records the exchange.
// A failed generation leaves the history unchanged.
func (s *Session) Send(ctx context.Context, input string) (string, error) {
	prompt := s.BuildPrompt(input)
	start := time.Now()

	reply, err := s.opts.Generator.Generate(ctx, prompt, s.opts.MaxTokens, s.opts.Temperature)
	if err != nil {
		return "", err
	}

	s.history = append(s.history, Turn{User: input, Assistant: reply})
	if over := len(s.history) - s.opts.HistoryLimit; over > 0 {
		s.history = append([]Turn(nil), s.history[over:]...)
	}

	s.logger.Debug("chat.exchange", "Reply generated", map[string]interface{}{
		"variant":    s.opts.Variant.ID,
		"elapsed_ms": time.Since(start).Milliseconds(),
		"history":    len(s.history),
	})

	if s.opts.Transcript != nil {
		if terr := s.opts.Transcript.Append(Exchange{Variant: s.opts.Variant.ID, User: input, Assistant: reply}); terr != nil {
			s.logger.Warn("chat.transcript.failed", "Failed to append transcript", map[string]interface{}{
				"error": terr.Error(),
			})
		}
	}
	return reply, nil
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
