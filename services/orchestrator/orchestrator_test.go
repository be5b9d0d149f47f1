// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package orchestrator

import (
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Test Setup
// =============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

// =============================================================================
// Config Tests
// =============================================================================

// TestApplyConfigDefaults_AllDefaults verifies default values are applied.
func TestApplyConfigDefaults_AllDefaults(t *testing.T) {
	// Arrange
	cfg := Config{}

	// Act
	result := applyConfigDefaults(cfg)

	// Assert
	assert.Equal(t, 12310, result.Port, "default port should be 12310")
	assert.Equal(t, "openai", result.LLMBackend, "default LLM backend should be openai")
	assert.Equal(t, "./data/pathwise", result.DataDir)
	assert.Equal(t, "pathwise-otel-collector:4317", result.OTelEndpoint,
		"default OTel endpoint should be pathwise-otel-collector:4317")
	assert.True(t, result.EnableMetrics, "metrics should be enabled by default")
	assert.Equal(t, time.Hour, result.RetentionInterval)
	assert.Equal(t, 30*24*time.Hour, result.RetentionMaxAge)
}

// TestApplyConfigDefaults_PreservesCustomValues verifies custom values
// are not overwritten.
func TestApplyConfigDefaults_PreservesCustomValues(t *testing.T) {
	// Arrange
	cfg := Config{
		Port:              8080,
		LLMBackend:        "local",
		DataDir:           "/var/lib/pathwise",
		OTelEndpoint:      "custom-collector:4317",
		RetentionInterval: 10 * time.Minute,
		RetentionMaxAge:   7 * 24 * time.Hour,
	}

	// Act
	result := applyConfigDefaults(cfg)

	// Assert
	assert.Equal(t, 8080, result.Port, "custom port should be preserved")
	assert.Equal(t, "local", result.LLMBackend, "custom LLM backend should be preserved")
	assert.Equal(t, "/var/lib/pathwise", result.DataDir)
	assert.Equal(t, "custom-collector:4317", result.OTelEndpoint)
	assert.Equal(t, 10*time.Minute, result.RetentionInterval)
	assert.Equal(t, 7*24*time.Hour, result.RetentionMaxAge)
}

// TestApplyConfigDefaults_TableDriven tests mixed config scenarios.
func TestApplyConfigDefaults_TableDriven(t *testing.T) {
	tests := []struct {
		name     string
		input    Config
		expected Config
	}{
		{
			name:  "empty config gets all defaults",
			input: Config{},
			expected: Config{
				Port:       12310,
				LLMBackend: "openai",
			},
		},
		{
			name:  "custom port preserved",
			input: Config{Port: 9999},
			expected: Config{
				Port:       9999,
				LLMBackend: "openai",
			},
		},
		{
			name:  "custom backend preserved",
			input: Config{LLMBackend: "none"},
			expected: Config{
				Port:       12310,
				LLMBackend: "none",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := applyConfigDefaults(tt.input)

			assert.Equal(t, tt.expected.Port, result.Port)
			assert.Equal(t, tt.expected.LLMBackend, result.LLMBackend)
			assert.True(t, result.EnableMetrics, "metrics are always enabled")
		})
	}
}

// =============================================================================
// Interface Compliance Tests
// =============================================================================

// TestServiceImplementsInterface documents the compile-time check in
// orchestrator.go: var _ Service = (*service)(nil).
func TestServiceImplementsInterface(t *testing.T) {
	var svc Service
	_ = svc
}

// =============================================================================
// Benchmark Tests
// =============================================================================

// BenchmarkClassifyRequest measures classification throughput.
func BenchmarkClassifyRequest(b *testing.B) {
	messages := []string{
		"I want to learn python in 6 weeks",
		"what is photosynthesis?",
		"calculate 2+2",
		"hello there",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ClassifyRequest(messages[i%len(messages)])
	}
}
