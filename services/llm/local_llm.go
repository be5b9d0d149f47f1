package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// Default sampling knobs for study-assistant prompts when the caller
// leaves GenerationParams unset. Low temperature keeps plan summaries
// and answers grounded.
const (
	defaultLocalPredict     = 512
	defaultLocalTemperature = float32(0.2)
)

// localTimeout is a backstop only; pipelines bound every call with a
// context deadline.
const localTimeout = 2 * time.Minute

// LocalClient talks to a llama.cpp-compatible completion endpoint.
type LocalClient struct {
	httpClient *http.Client
	baseURL    string
}

type localCompletionPayload struct {
	Prompt      string   `json:"prompt"`
	NPredict    int      `json:"n_predict"`
	Temperature *float32 `json:"temperature,omitempty"`
	TopP        *float32 `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type localCompletionResponse struct {
	Content string `json:"content"`
}

// NewLocalClient reads the endpoint from LLM_SERVICE_URL_BASE.
func NewLocalClient() (*LocalClient, error) {
	baseURL := os.Getenv("LLM_SERVICE_URL_BASE")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: LLM_SERVICE_URL_BASE not set", ErrNotConfigured)
	}
	return NewLocalClientWithEndpoint(baseURL, localTimeout), nil
}

// NewLocalClientWithEndpoint builds a client against an explicit
// endpoint. A zero timeout uses the default backstop.
func NewLocalClientWithEndpoint(baseURL string, timeout time.Duration) *LocalClient {
	if timeout <= 0 {
		timeout = localTimeout
	}
	return &LocalClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// Generate implements the LLMClient interface
func (l *LocalClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	payload := l.buildPayload(prompt, params)

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion payload: %w", err)
	}

	completionURL := l.baseURL + "/completion"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, completionURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		slog.Error("Local LLM call failed", "error", err)
		return "", fmt.Errorf("local LLM call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("local LLM returned status %d: %s", resp.StatusCode, string(raw))
	}

	var completion localCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	return completion.Content, nil
}

// buildPayload threads the caller's sampling knobs into the llama.cpp
// request, filling study-assistant defaults for the unset ones.
func (l *LocalClient) buildPayload(prompt string, params GenerationParams) localCompletionPayload {
	payload := localCompletionPayload{
		Prompt:   prompt,
		NPredict: defaultLocalPredict,
	}
	if params.MaxTokens != nil {
		payload.NPredict = *params.MaxTokens
	}
	if params.Temperature != nil {
		payload.Temperature = params.Temperature
	} else {
		temperature := defaultLocalTemperature
		payload.Temperature = &temperature
	}
	if params.TopP != nil {
		payload.TopP = params.TopP
	}
	if len(params.Stop) > 0 {
		payload.Stop = params.Stop
	}
	return payload
}
