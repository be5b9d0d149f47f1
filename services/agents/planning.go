// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package agents contains the reasoning units of the assistant: a
// planning agent that decomposes learning goals into phased steps, a
// loop agent that iteratively refines work products toward a quality
// target, and an LLM-backed assistant for free-form responses.
package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/pathwise-ai/pathwise/services/orchestrator/datatypes"
)

// MetricsRecorder is the slice of the observability collector the
// agents need. A nil recorder disables recording.
type MetricsRecorder interface {
	RecordAgentExecution(agent string, durationMs float64)
	RecordToolUsage(tool string, success bool)
	RecordError(errorType string)
}

// PlanningAgent breaks a free-text learning goal into a parsed goal,
// actionable phased steps, a week-aligned timeline, and a resource
// list.
type PlanningAgent struct {
	name    string
	metrics MetricsRecorder
}

func NewPlanningAgent(metrics MetricsRecorder) *PlanningAgent {
	return &PlanningAgent{name: "PlanningAgent", metrics: metrics}
}

func (a *PlanningAgent) Name() string { return a.name }

// Plan creates a structured learning plan from the user's goal.
func (a *PlanningAgent) Plan(ctx context.Context, userGoal string) *datatypes.PlanningResult {
	start := time.Now()

	slog.Info("Agent action", "agent", a.name, "action", "create_plan", "goal", userGoal)

	if err := ctx.Err(); err != nil {
		a.recordError("planning_error")
		return &datatypes.PlanningResult{
			Success:    false,
			Agent:      a.name,
			Error:      err.Error(),
			DurationMs: float64(time.Since(start)) / float64(time.Millisecond),
		}
	}

	parsed := ParseLearningGoal(userGoal)
	steps := a.createPlanSteps(parsed)
	timeline := a.createTimeline(steps, parsed.DurationWeeks)
	resources := a.identifyResources(parsed)

	durationMs := float64(time.Since(start)) / float64(time.Millisecond)
	if a.metrics != nil {
		a.metrics.RecordAgentExecution(a.name, durationMs)
	}

	slog.Info("Agent action", "agent", a.name, "action", "create_plan",
		"result", fmt.Sprintf("Created %d step plan", len(steps)), "duration_ms", durationMs)

	return &datatypes.PlanningResult{
		Success:    true,
		Agent:      a.name,
		ParsedGoal: &parsed,
		PlanSteps:  steps,
		Timeline:   timeline,
		Resources:  resources,
		DurationMs: durationMs,
	}
}

func (a *PlanningAgent) recordError(errorType string) {
	if a.metrics != nil {
		a.metrics.RecordError(errorType)
	}
}

var subjectKeywords = []struct {
	subject  string
	keywords []string
}{
	{"mathematics", []string{"math", "calculus", "algebra", "geometry"}},
	{"programming", []string{"program", "code", "python", "javascript"}},
	{"science", []string{"science", "physics", "chemistry", "biology"}},
	{"language", []string{"language", "spanish", "french", "english"}},
	{"history", []string{"history", "historical"}},
}

// ParseLearningGoal extracts subject, level, duration, and weekly hours
// from a free-text goal. Unrecognized fields fall back to general /
// beginner / 4 weeks / 5 hours.
func ParseLearningGoal(goal string) datatypes.ParsedGoal {
	lower := strings.ToLower(goal)

	subject := "general"
	for _, group := range subjectKeywords {
		if containsAny(lower, group.keywords) {
			subject = group.subject
			break
		}
	}

	level := datatypes.LevelBeginner
	if containsAny(lower, []string{"advanced", "expert", "master"}) {
		level = datatypes.LevelAdvanced
	} else if containsAny(lower, []string{"intermediate", "improve", "better"}) {
		level = datatypes.LevelIntermediate
	}

	durationWeeks := 4
	if strings.Contains(lower, "week") {
		durationWeeks = numberBefore(lower, "week", durationWeeks)
	} else if strings.Contains(lower, "month") {
		durationWeeks = 8
	}

	hoursPerWeek := 5
	if strings.Contains(lower, "hour") {
		hoursPerWeek = numberBefore(lower, "hour", hoursPerWeek)
	}

	return datatypes.ParsedGoal{
		OriginalGoal:  goal,
		Subject:       subject,
		Level:         level,
		DurationWeeks: durationWeeks,
		HoursPerWeek:  hoursPerWeek,
	}
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// numberBefore scans whitespace tokens for one containing marker and
// returns the integer value of the preceding token, keeping fallback
// when none parses. Zero and negative values count as unparseable so
// durations and hours stay positive.
func numberBefore(text, marker string, fallback int) int {
	words := strings.Fields(text)
	value := fallback
	for i, word := range words {
		if strings.Contains(word, marker) && i > 0 {
			if n, err := strconv.Atoi(words[i-1]); err == nil && n > 0 {
				value = n
			}
		}
	}
	return value
}

func (a *PlanningAgent) createPlanSteps(parsed datatypes.ParsedGoal) []datatypes.PlanStep {
	subject := parsed.Subject
	level := parsed.Level

	return []datatypes.PlanStep{
		{
			Step:          1,
			Phase:         "Foundation",
			Action:        fmt.Sprintf("Assess current %s knowledge and set specific goals", subject),
			DurationWeeks: 1,
			ToolsNeeded:   []string{"study_planner", "web_search"},
		},
		{
			Step:          2,
			Phase:         "Learning",
			Action:        fmt.Sprintf("Study core %s concepts at %s level", subject, level),
			DurationWeeks: max(1, parsed.DurationWeeks-2),
			ToolsNeeded:   []string{"web_search", "code_executor"},
		},
		{
			Step:          3,
			Phase:         "Practice",
			Action:        fmt.Sprintf("Apply %s knowledge through exercises and projects", subject),
			DurationWeeks: 1,
			ToolsNeeded:   []string{"code_executor", "study_planner"},
		},
		{
			Step:          4,
			Phase:         "Review",
			Action:        "Review progress and identify areas for improvement",
			DurationWeeks: 1,
			ToolsNeeded:   []string{"study_planner"},
		},
	}
}

// createTimeline lays the steps onto consecutive weeks. Phases are
// clipped to the total duration and dropped entirely once no weeks
// remain.
func (a *PlanningAgent) createTimeline(steps []datatypes.PlanStep, totalWeeks int) *datatypes.Timeline {
	timeline := &datatypes.Timeline{
		TotalWeeks: totalWeeks,
		Phases:     []datatypes.TimelinePhase{},
	}

	currentWeek := 1
	for _, step := range steps {
		duration := min(step.DurationWeeks, totalWeeks-currentWeek+1)
		if duration <= 0 {
			continue
		}
		timeline.Phases = append(timeline.Phases, datatypes.TimelinePhase{
			Phase:         step.Phase,
			StartWeek:     currentWeek,
			EndWeek:       currentWeek + duration - 1,
			DurationWeeks: duration,
		})
		currentWeek += duration
	}

	return timeline
}

func (a *PlanningAgent) identifyResources(parsed datatypes.ParsedGoal) []string {
	resources := []string{
		"Study planner tool for scheduling",
		"Web search for finding learning materials",
		"Code executor for practice (if applicable)",
	}

	switch parsed.Subject {
	case "programming":
		resources = append(resources, "Online coding platform (e.g., LeetCode, Codecademy)")
	case "mathematics":
		resources = append(resources, "Math practice platform (e.g., Khan Academy)")
	case "science":
		resources = append(resources, "Educational videos and interactive simulations")
	case "language":
		resources = append(resources, "Language learning app (e.g., Duolingo)")
	}

	return resources
}
