// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pathwise-ai/pathwise/services/orchestrator/datatypes"
	"github.com/pathwise-ai/pathwise/services/orchestrator/observability"
	"github.com/pathwise-ai/pathwise/services/session"
)

func CreateSession(sessions *session.Service, metrics *observability.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.IncrementRequest("/api/session/new")

		var req datatypes.NewSessionRequest
		// An empty body is fine; the session is created as anonymous.
		_ = c.ShouldBindJSON(&req)

		sessionID, err := sessions.CreateSession(req.UserID, req.UserData)
		if err != nil {
			slog.Error("Failed to create session", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"session_id": sessionID,
		})
	}
}

func GetSession(sessions *session.Service, metrics *observability.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.IncrementRequest("/api/session")

		sessionID := c.Param("sessionId")
		sess, err := sessions.GetSession(sessionID)
		if err != nil {
			if errors.Is(err, datatypes.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"success": false,
					"error":   "Session not found",
				})
				return
			}
			slog.Error("Failed to load session", "session_id", sessionID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"session": sess,
		})
	}
}

func GetSessionHistory(sessions *session.Service, metrics *observability.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.IncrementRequest("/api/session/history")

		sessionID := c.Param("sessionId")

		limit := 50
		if raw := c.Query("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		history, err := sessions.ConversationHistory(sessionID, limit)
		if err != nil {
			if errors.Is(err, datatypes.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"success": false,
					"error":   "Session not found",
				})
				return
			}
			slog.Error("Failed to load history", "session_id", sessionID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"history": history,
		})
	}
}

func ListSessions(sessions *session.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		slog.Info("Received request to list sessions")

		previews, err := sessions.ListSessions()
		if err != nil {
			slog.Error("Failed to list sessions", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"sessions": previews,
		})
	}
}

func CloseSession(sessions *session.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")

		if err := sessions.CloseSession(sessionID); err != nil {
			if errors.Is(err, datatypes.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"success": false,
					"error":   "Session not found",
				})
				return
			}
			slog.Error("Failed to close session", "session_id", sessionID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":           true,
			"closed_session_id": sessionID,
		})
	}
}
