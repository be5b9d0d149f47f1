// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pathwise-ai/pathwise/services/llm"
	"github.com/pathwise-ai/pathwise/services/orchestrator/datatypes"
)

const assistantSystemPrompt = `You are an educational AI assistant specialized in helping students create personalized study plans and learning paths.

Your role is to:
- Understand student goals and learning preferences
- Provide educational guidance and resources
- Help break down complex topics into manageable steps
- Encourage effective learning strategies
- Be supportive and motivating

Keep responses concise, practical, and focused on education.`

// ExecContext carries optional per-call context for the assistant:
// recent conversation turns, the student's stored profile, and a
// search summary to ground factual answers.
type ExecContext struct {
	ConversationHistory []datatypes.ConversationEntry
	UserProfile         map[string]any
	SearchSummary       string
}

// AssistantAgent generates free-form educational responses through the
// configured LLM backend. All failures, including an unconfigured
// backend, are returned as unsuccessful results rather than errors so
// pipelines can degrade instead of aborting.
type AssistantAgent struct {
	name    string
	client  llm.LLMClient
	metrics MetricsRecorder
}

func NewAssistantAgent(client llm.LLMClient, metrics MetricsRecorder) *AssistantAgent {
	return &AssistantAgent{name: "LLMAgent", client: client, metrics: metrics}
}

func (a *AssistantAgent) Name() string { return a.name }

// Execute generates a response to the user's input.
func (a *AssistantAgent) Execute(ctx context.Context, userInput string, execCtx *ExecContext) *datatypes.LLMResult {
	start := time.Now()

	prompt := a.buildPrompt(userInput, execCtx)

	slog.Info("Agent action", "agent", a.name, "action", "generate_response",
		"input", truncate(userInput, 100))

	response, err := a.client.Generate(ctx, prompt, llm.GenerationParams{})
	durationMs := float64(time.Since(start)) / float64(time.Millisecond)

	if err != nil {
		slog.Error("LLM generation failed", "error", err, "input", truncate(userInput, 100))
		if a.metrics != nil {
			a.metrics.RecordError("llm_error")
		}
		return &datatypes.LLMResult{
			Success:    false,
			Agent:      a.name,
			Error:      err.Error(),
			UserInput:  userInput,
			DurationMs: durationMs,
		}
	}

	if a.metrics != nil {
		a.metrics.RecordAgentExecution(a.name, durationMs)
	}

	slog.Info("Agent action", "agent", a.name, "action", "generate_response",
		"input", truncate(userInput, 100), "result", truncate(response, 100),
		"duration_ms", durationMs)

	return &datatypes.LLMResult{
		Success:    true,
		Agent:      a.name,
		Response:   response,
		UserInput:  userInput,
		DurationMs: durationMs,
	}
}

// buildPrompt assembles system instructions, the last five turns of
// conversation, the student profile, and any grounding material ahead
// of the user's message.
func (a *AssistantAgent) buildPrompt(userInput string, execCtx *ExecContext) string {
	parts := []string{assistantSystemPrompt, ""}

	if execCtx != nil {
		history := execCtx.ConversationHistory
		if len(history) > 0 {
			if len(history) > 5 {
				history = history[len(history)-5:]
			}
			parts = append(parts, "Previous conversation:")
			for _, entry := range history {
				parts = append(parts, fmt.Sprintf("%s: %s", entry.Role, entry.Content))
			}
			parts = append(parts, "")
		}

		if len(execCtx.UserProfile) > 0 {
			parts = append(parts, fmt.Sprintf("Student Profile: %v", execCtx.UserProfile), "")
		}

		if execCtx.SearchSummary != "" {
			parts = append(parts, fmt.Sprintf("Reference material: %s", execCtx.SearchSummary), "")
		}
	}

	parts = append(parts, fmt.Sprintf("User: %s", userInput), "Assistant:")
	return strings.Join(parts, "\n")
}

// AnalyzeLearningNeeds asks the LLM for a structured reading of a
// learning request. Advisory only; callers treat failure as absence.
func (a *AssistantAgent) AnalyzeLearningNeeds(ctx context.Context, userInput string) *datatypes.AnalysisResult {
	prompt := fmt.Sprintf(`Analyze this student's learning request and extract key information:

"%s"

Provide a structured analysis in this format:
- Subject: [main topic]
- Level: [beginner/intermediate/advanced]
- Duration: [estimated weeks needed]
- Learning Style: [visual/auditory/reading/kinesthetic/mixed]
- Goals: [specific learning objectives]

Be concise and specific.`, userInput)

	response, err := a.client.Generate(ctx, prompt, llm.GenerationParams{})
	if err != nil {
		return &datatypes.AnalysisResult{
			Success:       false,
			Error:         err.Error(),
			OriginalInput: userInput,
		}
	}

	return &datatypes.AnalysisResult{
		Success:       true,
		Analysis:      response,
		OriginalInput: userInput,
	}
}

// GenerateStudyRecommendations asks the LLM for subject- and
// level-specific study advice.
func (a *AssistantAgent) GenerateStudyRecommendations(ctx context.Context, subject, level, extra string) *datatypes.RecommendationResult {
	contextLine := ""
	if extra != "" {
		contextLine = fmt.Sprintf("Additional context: %s\n", extra)
	}

	prompt := fmt.Sprintf(`Provide specific study recommendations for learning %s at %s level.

%s
Include:
1. Key concepts to master
2. Recommended study approach
3. Common pitfalls to avoid
4. Success metrics

Keep it practical and actionable.`, subject, level, contextLine)

	response, err := a.client.Generate(ctx, prompt, llm.GenerationParams{})
	if err != nil {
		return &datatypes.RecommendationResult{Success: false, Error: err.Error()}
	}

	return &datatypes.RecommendationResult{
		Success:         true,
		Subject:         subject,
		Level:           level,
		Recommendations: response,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
