// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

// newCompletionServer records the decoded payload of the last request
// and replies with the given content.
func newCompletionServer(t *testing.T, content string) (*httptest.Server, *localCompletionPayload) {
	t.Helper()
	captured := &localCompletionPayload{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/completion", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(localCompletionResponse{Content: content})
	}))
	t.Cleanup(server.Close)
	return server, captured
}

func floatPtr(v float32) *float32 { return &v }
func intPtr(v int) *int           { return &v }

// =============================================================================
// Local Client Tests
// =============================================================================

// TestLocalClient_Generate verifies the response content round trip.
func TestLocalClient_Generate(t *testing.T) {
	// Arrange
	server, _ := newCompletionServer(t, "Here is your study plan.")
	client := NewLocalClientWithEndpoint(server.URL, 0)

	// Act
	response, err := client.Generate(context.Background(), "plan my week", GenerationParams{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Here is your study plan.", response)
}

// TestLocalClient_Generate_ThreadsParams verifies the sampling knobs
// reach the wire payload.
func TestLocalClient_Generate_ThreadsParams(t *testing.T) {
	// Arrange
	server, captured := newCompletionServer(t, "ok")
	client := NewLocalClientWithEndpoint(server.URL+"/", 0)
	params := GenerationParams{
		Temperature: floatPtr(0.7),
		TopP:        floatPtr(0.9),
		MaxTokens:   intPtr(128),
		Stop:        []string{"\n\n"},
	}

	// Act
	_, err := client.Generate(context.Background(), "hello", params)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "hello", captured.Prompt)
	assert.Equal(t, 128, captured.NPredict)
	require.NotNil(t, captured.Temperature)
	assert.InDelta(t, 0.7, float64(*captured.Temperature), 0.001)
	require.NotNil(t, captured.TopP)
	assert.InDelta(t, 0.9, float64(*captured.TopP), 0.001)
	assert.Equal(t, []string{"\n\n"}, captured.Stop)
}

// TestLocalClient_Generate_DefaultKnobs verifies unset params fall back
// to the grounded defaults.
func TestLocalClient_Generate_DefaultKnobs(t *testing.T) {
	// Arrange
	server, captured := newCompletionServer(t, "ok")
	client := NewLocalClientWithEndpoint(server.URL, 0)

	// Act
	_, err := client.Generate(context.Background(), "hello", GenerationParams{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, defaultLocalPredict, captured.NPredict)
	require.NotNil(t, captured.Temperature)
	assert.InDelta(t, float64(defaultLocalTemperature), float64(*captured.Temperature), 0.001)
	assert.Nil(t, captured.TopP, "top_p is omitted when unset")
	assert.Empty(t, captured.Stop)
}

// TestLocalClient_Generate_ServerError verifies non-200 responses
// surface the status and body.
func TestLocalClient_Generate_ServerError(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)
	client := NewLocalClientWithEndpoint(server.URL, 0)

	// Act
	_, err := client.Generate(context.Background(), "hello", GenerationParams{})

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model not loaded")
}

// TestNewLocalClient_MissingEndpoint verifies construction fails fast
// as unconfigured when the endpoint env var is absent.
func TestNewLocalClient_MissingEndpoint(t *testing.T) {
	t.Setenv("LLM_SERVICE_URL_BASE", "")

	_, err := NewLocalClient()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

// =============================================================================
// Unconfigured Client Tests
// =============================================================================

// TestUnconfiguredClient_Generate verifies the fast-fail contract.
func TestUnconfiguredClient_Generate(t *testing.T) {
	client := NewUnconfiguredClient("no API key")

	response, err := client.Generate(context.Background(), "anything", GenerationParams{})

	assert.Empty(t, response)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Contains(t, err.Error(), "no API key")
}
