// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// This file contains request and response types for the chat and session
// endpoints.
package datatypes

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// MaxMessageBytes is the maximum size of a single chat message. Checked
// as byte length, not rune count, to bound memory per request.
const MaxMessageBytes = 32 * 1024

// chatValidate is the validator instance for chat datatypes.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()
	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxMessageBytes
}

// RequestType tags the pipeline a request was classified into.
type RequestType string

const (
	RequestStudyPlan   RequestType = "create_study_plan"
	RequestQuestion    RequestType = "ask_question"
	RequestExecuteCode RequestType = "execute_code"
	RequestSearch      RequestType = "search_info"
	RequestGeneral     RequestType = "general"
)

// ChatRequest is the POST /api/chat body.
type ChatRequest struct {
	Message   string `json:"message" validate:"required,maxbytes"`
	SessionID string `json:"session_id" validate:"omitempty,max=128"`
}

// Validate checks the request against the chat validation rules.
func (r *ChatRequest) Validate() error {
	if err := chatValidate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// NewSessionRequest is the POST /api/session/new body.
type NewSessionRequest struct {
	UserID   string         `json:"user_id"`
	UserData map[string]any `json:"user_data"`
}

// Result is the structured outcome of one orchestrated request. Every
// pipeline, including failed ones, produces a Result with a renderable
// Response string where possible; the HTTP layer never inspects
// component internals.
type Result struct {
	Success    bool        `json:"success"`
	Response   string      `json:"response,omitempty"`
	Error      string      `json:"error,omitempty"`
	SessionID  string      `json:"session_id"`
	Request    RequestType `json:"request_type,omitempty"`
	DurationMs float64     `json:"duration_ms"`

	// Pipeline-specific fields.
	StudyPlan            *StudyPlan      `json:"study_plan,omitempty"`
	PlanningDetails      *PlanningResult `json:"planning_details,omitempty"`
	RefinementIterations int             `json:"refinement_iterations,omitempty"`
	SearchResults        *SearchResult   `json:"search_results,omitempty"`
	ExecutionResult      *ExecResult     `json:"execution_result,omitempty"`

	AgentsUsed   []string `json:"agents_used,omitempty"`
	ToolsUsed    []string `json:"tools_used,omitempty"`
	LLMAvailable bool     `json:"llm_available"`
}
