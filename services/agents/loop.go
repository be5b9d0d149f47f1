// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agents

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pathwise-ai/pathwise/services/orchestrator/datatypes"
)

// Built-in loop tasks. Unknown task names fall through to a generic
// pass-through refinement.
const (
	TaskRefinePlan        = "refine_study_plan"
	TaskValidateResources = "validate_resources"
	TaskImproveSchedule   = "improve_schedule"
)

// StoppingCondition reports whether the loop should stop after the
// given iteration.
type StoppingCondition func(iteration *datatypes.Iteration) bool

// LoopAgent runs a refinement task repeatedly, feeding each iteration's
// output into the next, until a stopping condition fires or the
// iteration cap is reached.
type LoopAgent struct {
	name          string
	maxIterations int
	metrics       MetricsRecorder
}

func NewLoopAgent(metrics MetricsRecorder) *LoopAgent {
	return &LoopAgent{name: "LoopAgent", maxIterations: 10, metrics: metrics}
}

func (a *LoopAgent) Name() string { return a.name }

// Execute runs the task iteratively. A nil stopping condition uses the
// default: stop at quality 90 or after five iterations. maxIterations
// <= 0 uses the agent's cap.
func (a *LoopAgent) Execute(ctx context.Context, task string, initialData any,
	stop StoppingCondition, maxIterations int) *datatypes.LoopResult {

	start := time.Now()
	maxIter := maxIterations
	if maxIter <= 0 {
		maxIter = a.maxIterations
	}

	slog.Info("Agent action", "agent", a.name, "action", "start_loop", "task", task)

	iterations := []datatypes.Iteration{}
	currentData := initialData
	count := 0

	for count < maxIter {
		if err := ctx.Err(); err != nil {
			if a.metrics != nil {
				a.metrics.RecordError("loop_error")
			}
			return &datatypes.LoopResult{
				Success:    false,
				Agent:      a.name,
				Task:       task,
				Error:      err.Error(),
				DurationMs: float64(time.Since(start)) / float64(time.Millisecond),
			}
		}

		count++
		iteration := a.processIteration(task, currentData, count)
		iterations = append(iterations, iteration)

		if stop != nil {
			if stop(&iteration) {
				slog.Info("Loop stopped", "reason", "stopping_condition_met", "iteration", count)
				break
			}
		} else if defaultStoppingCondition(&iteration, count) {
			break
		}

		if iteration.Output != nil {
			currentData = iteration.Output
		}
	}

	durationMs := float64(time.Since(start)) / float64(time.Millisecond)
	if a.metrics != nil {
		a.metrics.RecordAgentExecution(a.name, durationMs)
	}

	result := &datatypes.LoopResult{
		Success:         true,
		Agent:           a.name,
		Task:            task,
		Iterations:      iterations,
		TotalIterations: count,
		StoppedEarly:    count < maxIter,
		DurationMs:      durationMs,
	}
	if len(iterations) > 0 {
		result.FinalResult = &iterations[len(iterations)-1]
	}

	slog.Info("Agent action", "agent", a.name, "action", "complete_loop", "task", task,
		"result", fmt.Sprintf("Completed in %d iterations", count), "duration_ms", durationMs)

	return result
}

// RefineUntilQuality loops the task until the quality score reaches
// the target.
func (a *LoopAgent) RefineUntilQuality(ctx context.Context, task string, data any, targetQuality int) *datatypes.LoopResult {
	return a.Execute(ctx, task, data, func(it *datatypes.Iteration) bool {
		return it.QualityScore >= targetQuality
	}, 0)
}

func (a *LoopAgent) processIteration(task string, data any, iteration int) datatypes.Iteration {
	switch task {
	case TaskRefinePlan:
		return refineStudyPlan(data, iteration)
	case TaskValidateResources:
		return validateResources(data, iteration)
	case TaskImproveSchedule:
		return improveSchedule(data, iteration)
	default:
		return datatypes.Iteration{
			Iteration:    iteration,
			Input:        data,
			Output:       data,
			Changes:      fmt.Sprintf("Processed iteration %d", iteration),
			QualityScore: min(50+iteration*10, 100),
		}
	}
}

var planRefinements = map[int]string{
	1: "Added time estimates for each topic",
	2: "Included break periods and review sessions",
	3: "Added resource links and materials",
	4: "Incorporated spaced repetition intervals",
}

// refineStudyPlan accumulates refinement notes on a study plan. Data
// that is not already a plan is wrapped so refinement can proceed.
func refineStudyPlan(data any, iteration int) datatypes.Iteration {
	plan, ok := data.(*datatypes.StudyPlan)
	if !ok {
		plan = &datatypes.StudyPlan{Raw: data, Refinements: []string{}}
	}

	refinements := append([]string{}, plan.Refinements...)
	if note, exists := planRefinements[iteration]; exists {
		refinements = append(refinements, note)
	}

	quality := min(60+iteration*10, 95)

	refined := *plan
	refined.Refinements = refinements
	refined.QualityScore = quality

	changes := "No changes"
	if len(refinements) > 0 {
		changes = refinements[len(refinements)-1]
	}

	return datatypes.Iteration{
		Iteration:    iteration,
		Input:        plan,
		Output:       &refined,
		Changes:      changes,
		QualityScore: quality,
	}
}

func validateResources(data any, iteration int) datatypes.Iteration {
	var resources []any
	switch v := data.(type) {
	case []any:
		resources = v
	case []string:
		for _, r := range v {
			resources = append(resources, r)
		}
	case []datatypes.ValidatedResource:
		for _, r := range v {
			resources = append(resources, r.Resource)
		}
	default:
		resources = []any{data}
	}

	validated := make([]datatypes.ValidatedResource, 0, len(resources))
	for _, resource := range resources {
		validated = append(validated, datatypes.ValidatedResource{
			Resource:   resource,
			Validated:  true,
			Iteration:  iteration,
			Confidence: min(70+iteration*5, 95),
		})
	}

	return datatypes.Iteration{
		Iteration:    iteration,
		Input:        resources,
		Output:       validated,
		Changes:      fmt.Sprintf("Validated %d resources", len(resources)),
		QualityScore: min(65+iteration*8, 95),
	}
}

var scheduleImprovements = map[int]string{
	1: "Balanced workload across week",
	2: "Added buffer time for difficult topics",
	3: "Optimized based on peak productivity hours",
}

type iterativeSchedule struct {
	Sessions     []datatypes.ScheduleSlot `json:"sessions"`
	Improvements []string                 `json:"improvements"`
	QualityScore int                      `json:"quality_score"`
}

func improveSchedule(data any, iteration int) datatypes.Iteration {
	schedule, ok := data.(*iterativeSchedule)
	if !ok {
		schedule = &iterativeSchedule{Sessions: []datatypes.ScheduleSlot{}, Improvements: []string{}}
		if slots, isSlots := data.([]datatypes.ScheduleSlot); isSlots {
			schedule.Sessions = slots
		}
	}

	improvements := append([]string{}, schedule.Improvements...)
	if note, exists := scheduleImprovements[iteration]; exists {
		improvements = append(improvements, note)
	}

	quality := min(65+iteration*10, 95)

	improved := *schedule
	improved.Improvements = improvements
	improved.QualityScore = quality

	changes := "No changes"
	if len(improvements) > 0 {
		changes = improvements[len(improvements)-1]
	}

	return datatypes.Iteration{
		Iteration:    iteration,
		Input:        schedule,
		Output:       &improved,
		Changes:      changes,
		QualityScore: quality,
	}
}

func defaultStoppingCondition(iteration *datatypes.Iteration, count int) bool {
	if iteration.QualityScore >= 90 {
		return true
	}
	return count >= 5
}
