package domain

import (
	"context"
	"io"
)

// TextExtractor turns an uploaded document into plain text.
type TextExtractor interface {
	// Extract returns the text of every page in page order. A document with
	// no extractable text yields an empty string and no error.
	Extract(ctx context.Context, r io.ReaderAt, size int64) (string, error)
}

// Prompt is a role-tagged instruction pair sent to a completion endpoint.
type Prompt struct {
	System string
	User   string
}

// SamplingOptions are the generation parameters of one call site.
type SamplingOptions struct {
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
	MaxTokens        int
}

// CompletionClient sends a prompt to a remote text-completion API.
type CompletionClient interface {
	// Complete returns the text of the first choice, or "" when the provider
	// returned no choices. Implementations do not retry.
	Complete(ctx context.Context, prompt Prompt, opts SamplingOptions) (string, error)
}
