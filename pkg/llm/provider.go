package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}

// StreamingProvider is implemented by backends that can deliver the answer
// incrementally. onChunk is called in arrival order; returning an error
// from it aborts the stream.
type StreamingProvider interface {
	LLMProvider
	ChatStream(ctx context.Context, history []Message, onChunk func(chunk string) error, options ...Option) error
}

// ChatStream streams when the provider supports it and degrades to one
// chunk otherwise.
func ChatStream(ctx context.Context, p LLMProvider, history []Message, onChunk func(chunk string) error, options ...Option) error {
	if sp, ok := p.(StreamingProvider); ok {
		return sp.ChatStream(ctx, history, onChunk, options...)
	}
	full, err := p.Chat(ctx, history, options...)
	if err != nil {
		return err
	}
	return onChunk(full)
}
