// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package orchestrator

import (
	"strings"

	"github.com/pathwise-ai/pathwise/services/orchestrator/datatypes"
)

// classificationRule maps a keyword set to a request type. Rules are
// evaluated in order; the first match wins.
type classificationRule struct {
	requestType datatypes.RequestType
	keywords    []string
}

// classificationRules is the ordered rule table. Precedence:
// study plan > code > search > question > general. "learn" makes plan
// requests dominate most phrasings, and "?" makes nearly every real
// question classify as ask_question rather than general.
var classificationRules = []classificationRule{
	{datatypes.RequestStudyPlan, []string{
		"study plan", "learning plan", "help me learn", "want to study",
		"create plan", "schedule", "learn",
	}},
	{datatypes.RequestExecuteCode, []string{
		"calculate", "compute", "run code", "execute", "python",
	}},
	{datatypes.RequestSearch, []string{
		"search", "find information", "look up", "research",
	}},
	{datatypes.RequestQuestion, []string{
		"what is", "how do", "explain", "tell me about", "?",
	}},
}

// ClassifyRequest determines which pipeline handles the message.
// Matching is case-insensitive substring containment.
func ClassifyRequest(message string) datatypes.RequestType {
	lower := strings.ToLower(message)

	for _, rule := range classificationRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.requestType
			}
		}
	}
	return datatypes.RequestGeneral
}
