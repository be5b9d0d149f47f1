// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pathwise-ai/pathwise/services/orchestrator/datatypes"
)

// TestClassifyRequest_TableDriven covers each pipeline's keywords and
// the default.
func TestClassifyRequest_TableDriven(t *testing.T) {
	tests := []struct {
		message string
		want    datatypes.RequestType
	}{
		// Study plan
		{"Create a study plan for biology", datatypes.RequestStudyPlan},
		{"Help me learn Spanish", datatypes.RequestStudyPlan},
		{"I want to study chemistry", datatypes.RequestStudyPlan},
		{"Can you make me a schedule?", datatypes.RequestStudyPlan},

		// Code execution
		{"calculate 15 * 37", datatypes.RequestExecuteCode},
		{"run code for me", datatypes.RequestExecuteCode},
		{"execute this snippet", datatypes.RequestExecuteCode},

		// Search
		{"search for study techniques", datatypes.RequestSearch},
		{"look up the periodic table", datatypes.RequestSearch},
		{"research spaced repetition", datatypes.RequestSearch},

		// Question
		{"what is photosynthesis?", datatypes.RequestQuestion},
		{"how do plants grow", datatypes.RequestQuestion},
		{"tell me about the Roman Empire", datatypes.RequestQuestion},
		{"is the sky blue?", datatypes.RequestQuestion},

		// General fallback
		{"hello there", datatypes.RequestGeneral},
		{"thanks for the help", datatypes.RequestGeneral},
		{"", datatypes.RequestGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRequest(tt.message))
		})
	}
}

// TestClassifyRequest_Precedence verifies earlier rules win when a
// message matches several keyword sets.
func TestClassifyRequest_Precedence(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    datatypes.RequestType
	}{
		{
			// "learn" (plan) beats "python" (code) and "?" (question)
			"plan beats code and question",
			"can you help me learn python?",
			datatypes.RequestStudyPlan,
		},
		{
			// "python" (code) beats "what is" (question)
			"code beats question",
			"what is the python syntax for loops",
			datatypes.RequestExecuteCode,
		},
		{
			// "search" beats "?"
			"search beats question",
			"search for that, will you?",
			datatypes.RequestSearch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRequest(tt.message))
		})
	}
}

// TestClassifyRequest_CaseInsensitive verifies matching ignores case.
func TestClassifyRequest_CaseInsensitive(t *testing.T) {
	assert.Equal(t, datatypes.RequestStudyPlan, ClassifyRequest("STUDY PLAN please"))
	assert.Equal(t, datatypes.RequestExecuteCode, ClassifyRequest("CALCULATE 2+2"))
}
