// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pathwise-ai/pathwise/services/orchestrator/handlers"
	"github.com/pathwise-ai/pathwise/services/orchestrator/observability"
	"github.com/pathwise-ai/pathwise/services/session"
)

func SetupRoutes(router *gin.Engine, engine handlers.RequestProcessor,
	sessions *session.Service, metrics *observability.Collector, enablePrometheus bool) {

	api := router.Group("/api")
	{
		api.POST("/chat", handlers.HandleChat(engine, metrics))
		api.POST("/session/new", handlers.CreateSession(sessions, metrics))
		api.GET("/session/:sessionId", handlers.GetSession(sessions, metrics))
		api.GET("/session/:sessionId/history", handlers.GetSessionHistory(sessions, metrics))
		api.DELETE("/session/:sessionId", handlers.CloseSession(sessions))
		api.GET("/sessions", handlers.ListSessions(sessions))
		api.GET("/metrics", handlers.GetMetrics(metrics))
		api.GET("/health", handlers.HealthCheck(metrics))
	}

	if enablePrometheus {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}
