// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pathwise-ai/pathwise/services/agents"
	"github.com/pathwise-ai/pathwise/services/orchestrator/datatypes"
	"github.com/pathwise-ai/pathwise/services/orchestrator/observability"
	"github.com/pathwise-ai/pathwise/services/session"
	"github.com/pathwise-ai/pathwise/services/tools"
)

// EngineTimeouts bounds each class of external call. Timed-out calls
// feed the same degraded-mode paths as any other backend failure.
type EngineTimeouts struct {
	LLM    time.Duration
	Search time.Duration
	Exec   time.Duration
}

// DefaultEngineTimeouts returns the production deadlines.
func DefaultEngineTimeouts() EngineTimeouts {
	return EngineTimeouts{
		LLM:    60 * time.Second,
		Search: 10 * time.Second,
		Exec:   10 * time.Second,
	}
}

func (t EngineTimeouts) withDefaults() EngineTimeouts {
	defaults := DefaultEngineTimeouts()
	if t.LLM <= 0 {
		t.LLM = defaults.LLM
	}
	if t.Search <= 0 {
		t.Search = defaults.Search
	}
	if t.Exec <= 0 {
		t.Exec = defaults.Exec
	}
	return t
}

// Engine coordinates agents and tools to serve one classified request
// at a time. It owns no transport concerns; handlers call Process and
// render the Result.
type Engine struct {
	sessions  *session.Service
	assistant *agents.AssistantAgent
	planner   *agents.PlanningAgent
	loop      *agents.LoopAgent

	studyPlanner *tools.StudyPlanner
	search       *tools.SearchClient
	evaluator    *tools.CodeEvaluator

	metrics  *observability.Collector
	timeouts EngineTimeouts
}

// NewEngine wires the engine from explicit dependencies.
func NewEngine(
	sessions *session.Service,
	assistant *agents.AssistantAgent,
	planner *agents.PlanningAgent,
	loop *agents.LoopAgent,
	studyPlanner *tools.StudyPlanner,
	search *tools.SearchClient,
	evaluator *tools.CodeEvaluator,
	metrics *observability.Collector,
	timeouts EngineTimeouts,
) *Engine {
	return &Engine{
		sessions:     sessions,
		assistant:    assistant,
		planner:      planner,
		loop:         loop,
		studyPlanner: studyPlanner,
		search:       search,
		evaluator:    evaluator,
		metrics:      metrics,
		timeouts:     timeouts.withDefaults(),
	}
}

// Sessions exposes the session service for the session endpoints.
func (e *Engine) Sessions() *session.Service {
	return e.sessions
}

// Metrics exposes the collector for the metrics endpoint.
func (e *Engine) Metrics() *observability.Collector {
	return e.metrics
}

// Process runs one request through classification and the matching
// pipeline. A panic anywhere below is converted into a failed Result
// so one bad request cannot take the server down.
func (e *Engine) Process(ctx context.Context, message, sessionID string) (result *datatypes.Result) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Orchestration panic", "panic", r, "session_id", sessionID)
			e.metrics.RecordError("orchestration_error")
			result = &datatypes.Result{
				Success:    false,
				Error:      fmt.Sprintf("internal error: %v", r),
				SessionID:  sessionID,
				DurationMs: float64(time.Since(start)) / float64(time.Millisecond),
			}
		}
	}()

	if sessionID == "" {
		created, err := e.sessions.CreateSession("", nil)
		if err != nil {
			e.metrics.RecordError("orchestration_error")
			return &datatypes.Result{
				Success:    false,
				Error:      err.Error(),
				DurationMs: float64(time.Since(start)) / float64(time.Millisecond),
			}
		}
		sessionID = created
	}

	if err := e.sessions.AddMessage(sessionID, datatypes.RoleUser, message); err != nil {
		e.metrics.RecordError("orchestration_error")
		return &datatypes.Result{
			Success:    false,
			Error:      err.Error(),
			SessionID:  sessionID,
			DurationMs: float64(time.Since(start)) / float64(time.Millisecond),
		}
	}

	slog.Info("Orchestration start", "session_id", sessionID, "input", truncate(message, 100))

	requestType := ClassifyRequest(message)

	switch requestType {
	case datatypes.RequestStudyPlan:
		result = e.handleStudyPlan(ctx, message, sessionID)
	case datatypes.RequestQuestion:
		result = e.handleQuestion(ctx, message, sessionID)
	case datatypes.RequestExecuteCode:
		result = e.handleCodeExecution(ctx, message, sessionID)
	case datatypes.RequestSearch:
		result = e.handleSearch(ctx, message, sessionID)
	default:
		result = e.handleGeneral(ctx, message, sessionID)
	}

	if err := e.sessions.AddMessage(sessionID, datatypes.RoleAssistant, result.Response); err != nil {
		slog.Warn("Failed to record assistant message", "session_id", sessionID, "error", err)
	}

	result.SessionID = sessionID
	result.Request = requestType
	result.DurationMs = float64(time.Since(start)) / float64(time.Millisecond)

	slog.Info("Orchestration complete",
		"session_id", sessionID,
		"request_type", requestType,
		"duration_ms", result.DurationMs,
		"success", result.Success)

	return result
}

// handleStudyPlan runs the full planning pipeline: advisory LLM
// analysis, goal parsing, plan generation, loop refinement to quality
// 85, persistence, and a summary. Only a goal-parsing failure fails
// the pipeline; LLM failures degrade.
func (e *Engine) handleStudyPlan(ctx context.Context, message, sessionID string) *datatypes.Result {
	history, err := e.sessions.ConversationHistory(sessionID, 5)
	if err != nil {
		history = nil
	}

	llmCtx, cancel := context.WithTimeout(ctx, e.timeouts.LLM)
	analysis := e.assistant.AnalyzeLearningNeeds(llmCtx, message)
	cancel()
	if !analysis.Success {
		slog.Debug("Goal analysis unavailable", "error", analysis.Error)
	}

	planning := e.planner.Plan(ctx, message)
	if !planning.Success {
		return &datatypes.Result{
			Success:  false,
			Response: "Could not create study plan",
			Error:    planning.Error,
		}
	}

	parsed := planning.ParsedGoal
	plan := e.studyPlanner.Execute(parsed.Subject, parsed.DurationWeeks, parsed.Level, parsed.HoursPerWeek, "mixed")
	e.metrics.RecordToolUsage("study_planner", true)

	refinement := e.loop.RefineUntilQuality(ctx, agents.TaskRefinePlan, plan, 85)

	finalPlan := plan
	if refinement.Success && refinement.FinalResult != nil {
		if refined, ok := refinement.FinalResult.Output.(*datatypes.StudyPlan); ok {
			finalPlan = refined
		}
	}

	if err := e.sessions.SaveStudyPlan(sessionID, finalPlan); err != nil {
		slog.Warn("Failed to persist study plan", "session_id", sessionID, "error", err)
	}

	llmCtx, cancel = context.WithTimeout(ctx, e.timeouts.LLM)
	summary := e.assistant.Execute(llmCtx,
		fmt.Sprintf("I've created a study plan for: %s. Please provide a friendly summary.", message),
		&agents.ExecContext{ConversationHistory: history})
	cancel()

	responseText := summary.Response
	if !summary.Success {
		responseText = fmt.Sprintf(
			"I've created a personalized study plan for %s! Check the study plan details below. (Note: AI summary unavailable - configure an LLM backend for enhanced responses)",
			parsed.Subject)
	}

	return &datatypes.Result{
		Success:              true,
		Response:             responseText,
		StudyPlan:            finalPlan,
		PlanningDetails:      planning,
		RefinementIterations: refinement.TotalIterations,
		AgentsUsed:           []string{"llm", "planning", "loop"},
		ToolsUsed:            []string{"study_planner"},
		LLMAvailable:         summary.Success,
	}
}

// handleQuestion grounds the answer with a search call, then asks the
// LLM. The pipeline fails only when both the LLM and search fail.
func (e *Engine) handleQuestion(ctx context.Context, message, sessionID string) *datatypes.Result {
	history, err := e.sessions.ConversationHistory(sessionID, 10)
	if err != nil {
		history = nil
	}

	searchCtx, cancel := context.WithTimeout(ctx, e.timeouts.Search)
	searchResult := e.search.Execute(searchCtx, message, "auto")
	cancel()
	e.metrics.RecordToolUsage("web_search", searchResult.Success)

	execCtx := &agents.ExecContext{ConversationHistory: history}
	if searchResult.Success {
		execCtx.SearchSummary = searchResult.Summary
	}

	llmCtx, cancel := context.WithTimeout(ctx, e.timeouts.LLM)
	llmResult := e.assistant.Execute(llmCtx, message, execCtx)
	cancel()

	responseText := llmResult.Response
	if !llmResult.Success {
		if !searchResult.Success {
			return &datatypes.Result{
				Success:  false,
				Response: "Could not answer question. Both LLM and search failed.",
				Error:    llmResult.Error,
			}
		}
		summary := searchResult.Summary
		if summary == "" {
			summary = "Information found."
		}
		responseText = fmt.Sprintf(
			"Based on my search: %s (Note: AI summary unavailable - configure an LLM backend for enhanced answers)",
			summary)
	}

	return &datatypes.Result{
		Success:       true,
		Response:      responseText,
		SearchResults: searchResult,
		AgentsUsed:    []string{"llm"},
		ToolsUsed:     []string{"web_search"},
		LLMAvailable:  llmResult.Success,
	}
}

// handleCodeExecution extracts a code block, runs it in the sandboxed
// evaluator, and asks the LLM to explain the output. A missing code
// block is a hard failure; an unavailable LLM degrades.
func (e *Engine) handleCodeExecution(ctx context.Context, message, sessionID string) *datatypes.Result {
	code, found := extractCode(message)
	if !found {
		return &datatypes.Result{
			Success:  false,
			Response: "No code found to execute",
			Error:    "No code provided",
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, e.timeouts.Exec)
	execResult := e.evaluator.Run(execCtx, code)
	cancel()
	e.metrics.RecordToolUsage("code_executor", execResult.Success)

	history, err := e.sessions.ConversationHistory(sessionID, 5)
	if err != nil {
		history = nil
	}

	llmCtx, cancel := context.WithTimeout(ctx, e.timeouts.LLM)
	llmResult := e.assistant.Execute(llmCtx,
		fmt.Sprintf("Explain this code execution result: %s", execResult.Output),
		&agents.ExecContext{ConversationHistory: history})
	cancel()

	responseText := llmResult.Response
	if !llmResult.Success {
		if execResult.Success {
			output := execResult.Output
			if output == "" {
				output = "No output"
			}
			responseText = fmt.Sprintf(
				"Code executed successfully. Output: %s (Note: AI explanation unavailable - configure an LLM backend for enhanced responses)",
				output)
		} else {
			errText := execResult.Error
			if errText == "" {
				errText = "Unknown error"
			}
			responseText = fmt.Sprintf("Code execution failed: %s", errText)
		}
	}

	return &datatypes.Result{
		Success:         execResult.Success,
		Response:        responseText,
		ExecutionResult: execResult,
		AgentsUsed:      []string{"llm"},
		ToolsUsed:       []string{"code_executor"},
		LLMAvailable:    llmResult.Success,
	}
}

// handleSearch serves the educational-content search without any LLM
// involvement.
func (e *Engine) handleSearch(ctx context.Context, message, sessionID string) *datatypes.Result {
	searchCtx, cancel := context.WithTimeout(ctx, e.timeouts.Search)
	searchResult := e.search.SearchEducationalContent(searchCtx, message)
	cancel()
	e.metrics.RecordToolUsage("web_search", searchResult.Success)

	responseText := searchResult.Summary
	if responseText == "" {
		responseText = "No results found"
	}

	return &datatypes.Result{
		Success:       searchResult.Success,
		Response:      responseText,
		SearchResults: searchResult,
		ToolsUsed:     []string{"web_search"},
	}
}

// handleGeneral is a single LLM call with history. With no LLM
// configured this pipeline fails, but the guidance text points at the
// pipelines that still work.
func (e *Engine) handleGeneral(ctx context.Context, message, sessionID string) *datatypes.Result {
	history, err := e.sessions.ConversationHistory(sessionID, 10)
	if err != nil {
		history = nil
	}

	llmCtx, cancel := context.WithTimeout(ctx, e.timeouts.LLM)
	llmResult := e.assistant.Execute(llmCtx, message, &agents.ExecContext{ConversationHistory: history})
	cancel()

	if !llmResult.Success {
		errText := llmResult.Error
		if errText == "" {
			errText = "LLM not available"
		}
		return &datatypes.Result{
			Success:      false,
			Response:     "I need an LLM API key to answer general questions. Please configure an LLM backend to enable AI-powered responses. You can still use other features like study planning (without AI summaries), code execution, and web search!",
			Error:        errText,
			AgentsUsed:   []string{"llm"},
			LLMAvailable: false,
		}
	}

	return &datatypes.Result{
		Success:      true,
		Response:     llmResult.Response,
		AgentsUsed:   []string{"llm"},
		LLMAvailable: true,
	}
}

// extractCode pulls runnable code out of a chat message: a fenced
// python block first, then any fenced block, then the raw message when
// it looks like code.
func extractCode(message string) (string, bool) {
	if strings.Contains(message, "```python") {
		parts := strings.SplitN(message, "```python", 2)
		if len(parts) > 1 {
			code := strings.SplitN(parts[1], "```", 2)[0]
			return strings.TrimSpace(code), true
		}
	}

	if strings.Contains(message, "```") {
		parts := strings.Split(message, "```")
		if len(parts) >= 3 {
			return strings.TrimSpace(parts[1]), true
		}
	}

	codeKeywords := []string{"print(", "def ", "for ", "while ", "if "}
	for _, keyword := range codeKeywords {
		if strings.Contains(message, keyword) {
			return message, true
		}
	}

	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
