// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides the shared data structures for the Pathwise
// orchestrator service: request/response shapes, session and conversation
// records, study plans, and the agent result variants threaded between
// components.
package datatypes

import "errors"

// Error taxonomy for the orchestrator and its collaborators.
//
// Components never leak raw errors past their own boundary; public
// operations return structured results. These sentinels classify the
// failure that produced a result so callers can choose between hard
// failure and a degraded-mode fallback.
var (
	// ErrConfiguration indicates a required external credential or
	// setting is absent (for example, no LLM backend configured).
	ErrConfiguration = errors.New("configuration error")

	// ErrExternalService indicates a network or backend failure from the
	// language service, a search backend, or the code evaluator. Call
	// timeouts are classified here as well.
	ErrExternalService = errors.New("external service error")

	// ErrValidation indicates malformed or missing request fields, or an
	// unparseable code block.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates a session or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInternal indicates an unanticipated failure.
	ErrInternal = errors.New("internal error")
)
