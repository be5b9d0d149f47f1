// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pathwise-ai/pathwise/services/orchestrator/observability"
)

func HealthCheck(metrics *observability.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.IncrementRequest("/api/health")

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"status":  "healthy",
			"service": "Pathwise Study Assistant",
		})
	}
}

// GetMetrics serves the JSON counter snapshot. The Prometheus
// exposition lives separately on /metrics.
func GetMetrics(metrics *observability.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.IncrementRequest("/api/metrics")

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"metrics": metrics.Snapshot(),
		})
	}
}
