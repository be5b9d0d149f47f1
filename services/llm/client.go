package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by every call on a backend whose required
// credential or endpoint is absent. Calls fail fast with zero network
// attempts; pipelines treat this as degraded mode, not a hard failure.
var ErrNotConfigured = errors.New("language service not configured")

// GenerationParams carries optional sampling knobs for a generation call.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// LLMClient defines the standard interface for any generative-language
// backend.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}
