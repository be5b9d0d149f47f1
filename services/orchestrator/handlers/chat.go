// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers contains the Gin HTTP handlers for the orchestrator
// API. Handlers validate and decode requests, delegate to the engine
// or session service, and render Result shapes as JSON; they never
// reach into pipeline internals.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pathwise-ai/pathwise/services/orchestrator/datatypes"
	"github.com/pathwise-ai/pathwise/services/orchestrator/observability"
)

// RequestProcessor is the slice of the engine the chat handler needs.
type RequestProcessor interface {
	Process(ctx context.Context, message, sessionID string) *datatypes.Result
}

// HandleChat is the main chat endpoint. The engine reports pipeline
// failures inside the Result body with HTTP 200; only transport-level
// problems map to non-200 statuses.
func HandleChat(engine RequestProcessor, metrics *observability.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.IncrementRequest("/api/chat")

		var req datatypes.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "Missing message in request",
			})
			return
		}

		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}

		slog.Info("Chat request", "message", truncate(req.Message, 100), "session_id", req.SessionID)

		result := engine.Process(c.Request.Context(), req.Message, req.SessionID)
		c.JSON(http.StatusOK, result)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
