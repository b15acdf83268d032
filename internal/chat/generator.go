package chat

import (
	"context"
	"errors"
)

// ErrEngineUnavailable means no inference engine is configured.
var ErrEngineUnavailable = errors.New("inference engine unavailable")

// Generator produces a completion for a fully formatted prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	return f(ctx, prompt, maxTokens, temperature)
}

// UnavailableGenerator always fails with ErrEngineUnavailable.
type UnavailableGenerator struct{}

// Generate implements Generator.
func (UnavailableGenerator) Generate(context.Context, string, int, float32) (string, error) {
	return "", ErrEngineUnavailable
}
