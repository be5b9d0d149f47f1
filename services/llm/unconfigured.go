package llm

import (
	"context"
	"fmt"
)

// UnconfiguredClient stands in when no backend credential is present.
// Every call fails fast with ErrNotConfigured and performs no network
// I/O, so pipelines can fall back to degraded-mode responses.
type UnconfiguredClient struct {
	reason string
}

func NewUnconfiguredClient(reason string) *UnconfiguredClient {
	if reason == "" {
		reason = "no LLM backend configured"
	}
	return &UnconfiguredClient{reason: reason}
}

// Generate implements the LLMClient interface
func (u *UnconfiguredClient) Generate(context.Context, string, GenerationParams) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrNotConfigured, u.reason)
}
