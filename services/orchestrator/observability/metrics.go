// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides metrics for the orchestrator.
//
// # Description
//
// Two layers coexist here. Prometheus metrics (Metrics) are exported
// on /metrics for scraping. The Collector maintains an in-process
// snapshot of request, agent, tool, session, and error counters that
// the JSON metrics endpoint serves; every Collector recording also
// increments the matching Prometheus series when a Metrics instance
// is attached.
//
// # Thread Safety
//
// Collector operations serialize on a single mutex. Prometheus metric
// operations are thread-safe via the client's internal locking.
package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "pathwise"

const orchestratorSubsystem = "orchestrator"

// Metrics holds the Prometheus series for orchestrator operations.
// Initialize once at startup via InitMetrics; registering twice
// panics.
type Metrics struct {
	// RequestsTotal counts processed requests.
	// Labels: endpoint, status (success, error)
	RequestsTotal *prometheus.CounterVec

	// AgentDurationSeconds measures per-agent execution latency.
	// Labels: agent
	AgentDurationSeconds *prometheus.HistogramVec

	// ToolCallsTotal counts tool invocations.
	// Labels: tool, status (success, error)
	ToolCallsTotal *prometheus.CounterVec

	// ActiveSessions tracks open sessions.
	ActiveSessions prometheus.Gauge

	// SessionsCreatedTotal counts session creations.
	SessionsCreatedTotal prometheus.Counter

	// ErrorsTotal counts errors by type.
	// Labels: error_type
	ErrorsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance, set by InitMetrics.
var DefaultMetrics *Metrics

// InitMetrics creates and registers the Prometheus metrics. Call once
// at application startup.
func InitMetrics() *Metrics {
	DefaultMetrics = &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: orchestratorSubsystem,
				Name:      "requests_total",
				Help:      "Total requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		AgentDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: orchestratorSubsystem,
				Name:      "agent_duration_seconds",
				Help:      "Agent execution latency in seconds",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"agent"},
		),

		ToolCallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: orchestratorSubsystem,
				Name:      "tool_calls_total",
				Help:      "Total tool invocations by tool and status",
			},
			[]string{"tool", "status"},
		),

		ActiveSessions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: orchestratorSubsystem,
				Name:      "active_sessions",
				Help:      "Number of currently open sessions",
			},
		),

		SessionsCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: orchestratorSubsystem,
				Name:      "sessions_created_total",
				Help:      "Total sessions created",
			},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: orchestratorSubsystem,
				Name:      "errors_total",
				Help:      "Total errors by type",
			},
			[]string{"error_type"},
		),
	}

	return DefaultMetrics
}

// AgentStats accumulates execution counts and total latency per agent.
type AgentStats struct {
	Count           int     `json:"count"`
	TotalDurationMs float64 `json:"total_duration_ms"`
}

// ToolStats accumulates call and success counts per tool.
type ToolStats struct {
	Calls     int `json:"calls"`
	Successes int `json:"successes"`
}

// ExecutionSample is one agent execution in the trailing window.
type ExecutionSample struct {
	Timestamp  time.Time `json:"timestamp"`
	Agent      string    `json:"agent"`
	DurationMs float64   `json:"duration_ms"`
}

// RequestStats is the request section of a snapshot.
type RequestStats struct {
	Total      int            `json:"total"`
	ByEndpoint map[string]int `json:"by_endpoint"`
}

// AgentsStats is the agent section of a snapshot.
type AgentsStats struct {
	TotalExecutions   int                   `json:"total_executions"`
	ByAgent           map[string]AgentStats `json:"by_agent"`
	AverageDurationMs float64               `json:"average_duration_ms"`
}

// ToolsStats is the tool section of a snapshot.
type ToolsStats struct {
	TotalCalls  int                  `json:"total_calls"`
	ByTool      map[string]ToolStats `json:"by_tool"`
	SuccessRate float64              `json:"success_rate"`
}

// SessionStats is the session section of a snapshot.
type SessionStats struct {
	TotalCreated int `json:"total_created"`
	Active       int `json:"active"`
}

// ErrorStats is the error section of a snapshot.
type ErrorStats struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"by_type"`
}

// Snapshot is a deep copy of the collector's counters, safe to
// serialize after the call returns.
type Snapshot struct {
	Requests       RequestStats      `json:"requests"`
	Agents         AgentsStats       `json:"agents"`
	Tools          ToolsStats        `json:"tools"`
	Sessions       SessionStats      `json:"sessions"`
	ExecutionTimes []ExecutionSample `json:"execution_times"`
	Errors         ErrorStats        `json:"errors"`
}

// executionWindow bounds the trailing execution-sample buffer.
const executionWindow = 100

// Collector maintains the JSON-facing counters. A nil prom disables
// Prometheus mirroring, which tests use to avoid duplicate
// registration in the default registry.
type Collector struct {
	mu   sync.Mutex
	prom *Metrics

	requests       RequestStats
	agents         AgentsStats
	tools          ToolsStats
	sessions       SessionStats
	executionTimes []ExecutionSample
	errors         ErrorStats
}

func NewCollector(prom *Metrics) *Collector {
	return &Collector{
		prom:     prom,
		requests: RequestStats{ByEndpoint: map[string]int{}},
		agents:   AgentsStats{ByAgent: map[string]AgentStats{}},
		tools:    ToolsStats{ByTool: map[string]ToolStats{}},
		errors:   ErrorStats{ByType: map[string]int{}},
	}
}

// IncrementRequest counts a request against an endpoint.
func (c *Collector) IncrementRequest(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests.Total++
	c.requests.ByEndpoint[endpoint]++

	if c.prom != nil {
		c.prom.RequestsTotal.WithLabelValues(endpoint, "success").Inc()
	}
}

// RecordAgentExecution counts an agent run, updates the running
// average, and appends to the trailing execution window.
func (c *Collector) RecordAgentExecution(agent string, durationMs float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.agents.TotalExecutions++

	stats := c.agents.ByAgent[agent]
	stats.Count++
	stats.TotalDurationMs += durationMs
	c.agents.ByAgent[agent] = stats

	totalDuration := 0.0
	for _, s := range c.agents.ByAgent {
		totalDuration += s.TotalDurationMs
	}
	c.agents.AverageDurationMs = totalDuration / float64(c.agents.TotalExecutions)

	c.executionTimes = append(c.executionTimes, ExecutionSample{
		Timestamp:  time.Now(),
		Agent:      agent,
		DurationMs: durationMs,
	})
	if len(c.executionTimes) > executionWindow {
		c.executionTimes = c.executionTimes[len(c.executionTimes)-executionWindow:]
	}

	if c.prom != nil {
		c.prom.AgentDurationSeconds.WithLabelValues(agent).Observe(durationMs / 1000)
	}
}

// RecordToolUsage counts a tool call and recomputes the overall
// success rate.
func (c *Collector) RecordToolUsage(tool string, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tools.TotalCalls++

	stats := c.tools.ByTool[tool]
	stats.Calls++
	if success {
		stats.Successes++
	}
	c.tools.ByTool[tool] = stats

	totalSuccesses := 0
	for _, s := range c.tools.ByTool {
		totalSuccesses += s.Successes
	}
	c.tools.SuccessRate = float64(totalSuccesses) / float64(c.tools.TotalCalls) * 100

	if c.prom != nil {
		status := "success"
		if !success {
			status = "error"
		}
		c.prom.ToolCallsTotal.WithLabelValues(tool, status).Inc()
	}
}

// RecordSessionEvent adjusts session counters for "created" and
// "closed" events. The active count never goes below zero.
func (c *Collector) RecordSessionEvent(event string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch event {
	case "created":
		c.sessions.TotalCreated++
		c.sessions.Active++
		if c.prom != nil {
			c.prom.SessionsCreatedTotal.Inc()
			c.prom.ActiveSessions.Inc()
		}
	case "closed":
		if c.sessions.Active > 0 {
			c.sessions.Active--
			if c.prom != nil {
				c.prom.ActiveSessions.Dec()
			}
		}
	}
}

// RecordError counts an error by type.
func (c *Collector) RecordError(errorType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.errors.Total++
	c.errors.ByType[errorType]++

	if c.prom != nil {
		c.prom.ErrorsTotal.WithLabelValues(errorType).Inc()
	}
}

// Snapshot returns a deep copy of all counters.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Requests: RequestStats{
			Total:      c.requests.Total,
			ByEndpoint: make(map[string]int, len(c.requests.ByEndpoint)),
		},
		Agents: AgentsStats{
			TotalExecutions:   c.agents.TotalExecutions,
			ByAgent:           make(map[string]AgentStats, len(c.agents.ByAgent)),
			AverageDurationMs: c.agents.AverageDurationMs,
		},
		Tools: ToolsStats{
			TotalCalls:  c.tools.TotalCalls,
			ByTool:      make(map[string]ToolStats, len(c.tools.ByTool)),
			SuccessRate: c.tools.SuccessRate,
		},
		Sessions:       c.sessions,
		ExecutionTimes: make([]ExecutionSample, len(c.executionTimes)),
		Errors: ErrorStats{
			Total:  c.errors.Total,
			ByType: make(map[string]int, len(c.errors.ByType)),
		},
	}

	for k, v := range c.requests.ByEndpoint {
		snap.Requests.ByEndpoint[k] = v
	}
	for k, v := range c.agents.ByAgent {
		snap.Agents.ByAgent[k] = v
	}
	for k, v := range c.tools.ByTool {
		snap.Tools.ByTool[k] = v
	}
	for k, v := range c.errors.ByType {
		snap.Errors.ByType[k] = v
	}
	copy(snap.ExecutionTimes, c.executionTimes)

	return snap
}
