// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tools provides the three capabilities the orchestrator invokes
// by name: a deterministic study-plan generator, a sandboxed code
// evaluator, and a search facade over two keyless backends. All three
// are stateless given their inputs.
package tools

import (
	"math"
	"strconv"
	"time"

	"github.com/pathwise-ai/pathwise/services/orchestrator/datatypes"
)

var weekDays = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// StudyPlanner generates personalized study schedules and resource
// recommendations from a parsed goal.
type StudyPlanner struct {
	subjectResources map[string]map[string][]string
}

func NewStudyPlanner() *StudyPlanner {
	return &StudyPlanner{
		subjectResources: map[string]map[string][]string{
			"mathematics": {
				datatypes.LevelBeginner:     {"Khan Academy", "Basic Math Textbook", "Math is Fun"},
				datatypes.LevelIntermediate: {"Coursera Calculus", "MIT OpenCourseWare", "Paul's Online Math Notes"},
				datatypes.LevelAdvanced:     {"Advanced Calculus Books", "Research Papers", "Mathematical Proofs"},
			},
			"programming": {
				datatypes.LevelBeginner:     {"Codecademy", "Python.org Tutorial", "FreeCodeCamp"},
				datatypes.LevelIntermediate: {"LeetCode", "Real Python", "Full Stack Open"},
				datatypes.LevelAdvanced:     {"System Design", "Advanced Algorithms", "Open Source Projects"},
			},
			"science": {
				datatypes.LevelBeginner:     {"Khan Academy Science", "Crash Course", "Science Buddies"},
				datatypes.LevelIntermediate: {"Coursera Science Courses", "Scientific American", "Nature Education"},
				datatypes.LevelAdvanced:     {"Research Papers", "Advanced Textbooks", "Lab Experiences"},
			},
			"language": {
				datatypes.LevelBeginner:     {"Duolingo", "Basic Grammar Books", "Language Apps"},
				datatypes.LevelIntermediate: {"iTalki", "Native Content", "Language Exchange"},
				datatypes.LevelAdvanced:     {"Literature", "Academic Writing", "Professional Translation"},
			},
			"history": {
				datatypes.LevelBeginner:     {"Crash Course History", "History.com", "Simple Timelines"},
				datatypes.LevelIntermediate: {"Academic Textbooks", "Documentary Series", "Primary Sources"},
				datatypes.LevelAdvanced:     {"Research Papers", "Historical Archives", "Specialized Studies"},
			},
		},
	}
}

// Execute generates a study plan for the given subject, duration, level,
// weekly hours, and learning style. Unknown subjects fall back to the
// programming resource set; unknown levels fall back to beginner.
func (p *StudyPlanner) Execute(subject string, durationWeeks int, level string,
	hoursPerWeek int, learningStyle string) *datatypes.StudyPlan {

	byLevel, ok := p.subjectResources[subject]
	if !ok {
		byLevel = p.subjectResources["programming"]
	}
	resources, ok := byLevel[level]
	if !ok {
		resources = byLevel[datatypes.LevelBeginner]
	}

	return &datatypes.StudyPlan{
		Subject:              subject,
		Level:                level,
		DurationWeeks:        durationWeeks,
		HoursPerWeek:         hoursPerWeek,
		LearningStyle:        learningStyle,
		TotalHours:           durationWeeks * hoursPerWeek,
		WeeklySchedule:       p.createWeeklySchedule(hoursPerWeek, learningStyle),
		RecommendedResources: resources,
		Milestones:           p.createMilestones(subject, durationWeeks, level),
		StudyTips:            p.studyTips(learningStyle),
		CreatedAt:            time.Now(),
	}
}

func (p *StudyPlanner) createWeeklySchedule(hoursPerWeek int, learningStyle string) []datatypes.ScheduleSlot {
	sessionsPerWeek := hoursPerWeek
	if sessionsPerWeek > 7 {
		sessionsPerWeek = 7
	}
	if sessionsPerWeek < 1 {
		sessionsPerWeek = 1
	}
	hoursPerSession := float64(hoursPerWeek) / float64(sessionsPerWeek)

	mixedActivities := []string{"Watch lectures", "Practice problems", "Read materials", "Hands-on work"}

	schedule := make([]datatypes.ScheduleSlot, 0, sessionsPerWeek)
	for i := 0; i < sessionsPerWeek; i++ {
		var activity string
		switch learningStyle {
		case "visual":
			activity = "Watch video lectures and diagram practice"
		case "auditory":
			activity = "Listen to podcasts and discuss concepts"
		case "reading":
			activity = "Read textbooks and take notes"
		case "kinesthetic":
			activity = "Hands-on practice and experiments"
		default:
			activity = mixedActivities[i%len(mixedActivities)]
		}

		recommended := "Evening"
		if i < 3 {
			recommended = "Morning"
		}

		schedule = append(schedule, datatypes.ScheduleSlot{
			Day:             weekDays[i],
			DurationHours:   math.Round(hoursPerSession*10) / 10,
			Activity:        activity,
			RecommendedTime: recommended,
		})
	}
	return schedule
}

func (p *StudyPlanner) createMilestones(subject string, durationWeeks int, level string) []datatypes.Milestone {
	weeksPerMilestone := durationWeeks / 4
	if weeksPerMilestone < 1 {
		weeksPerMilestone = 1
	}

	var names []string
	switch level {
	case datatypes.LevelIntermediate:
		names = []string{
			"Review and strengthen " + subject + " fundamentals",
			"Tackle intermediate " + subject + " challenges",
			"Build " + subject + " projects",
			"Achieve proficiency in " + subject,
		}
	case datatypes.LevelAdvanced:
		names = []string{
			"Explore advanced " + subject + " topics",
			"Research " + subject + " specialization areas",
			"Contribute to " + subject + " community",
			"Master expert-level " + subject + " concepts",
		}
	default:
		names = []string{
			"Understand basic " + subject + " concepts",
			"Complete introductory " + subject + " exercises",
			"Apply " + subject + " to simple problems",
			"Master fundamental " + subject + " skills",
		}
	}

	milestones := make([]datatypes.Milestone, 0, len(names))
	for i, name := range names {
		week := (i + 1) * weeksPerMilestone
		if week > durationWeeks {
			continue
		}
		milestones = append(milestones, datatypes.Milestone{
			Week:       week,
			Milestone:  name,
			Assessment: "Complete week " + strconv.Itoa(week) + " quiz or project",
		})
	}
	return milestones
}

func (p *StudyPlanner) studyTips(learningStyle string) []string {
	base := []string{
		"Take regular breaks (Pomodoro technique: 25 min work, 5 min break)",
		"Review material within 24 hours to improve retention",
		"Practice active recall instead of passive reading",
		"Join study groups or online communities",
	}

	styleSpecific := map[string][]string{
		"visual":      {"Use mind maps and diagrams", "Watch educational videos", "Create flashcards with images"},
		"auditory":    {"Record and listen to lectures", "Discuss topics with others", "Use mnemonic devices"},
		"reading":     {"Take detailed notes", "Summarize chapters in your own words", "Create study guides"},
		"kinesthetic": {"Practice hands-on activities", "Build projects", "Use physical manipulatives"},
		"mixed":       {"Combine multiple learning methods", "Experiment with different techniques", "Adapt based on topic"},
	}

	extra, ok := styleSpecific[learningStyle]
	if !ok {
		extra = styleSpecific["mixed"]
	}
	return append(base, extra...)
}

// GenerateProgressReport compares completed weeks against logged hours.
// A plan counts as on track when the two completion percentages are
// within 20 points of each other.
func (p *StudyPlanner) GenerateProgressReport(completedWeeks, totalWeeks,
	completedHours, totalHours int) *datatypes.ProgressReport {

	// Zero totals would produce NaN/Inf percentages, which json.Marshal
	// rejects.
	progressPct := 0.0
	if totalWeeks > 0 {
		progressPct = float64(completedWeeks) / float64(totalWeeks) * 100
	}
	hoursPct := 0.0
	if totalHours > 0 {
		hoursPct = float64(completedHours) / float64(totalHours) * 100
	}

	onTrack := math.Abs(progressPct-hoursPct) < 20

	status := "Needs Adjustment"
	recommendation := "Consider adjusting your study schedule to stay on track."
	if onTrack {
		status = "On Track"
		recommendation = "Great progress! Keep it up!"
	}

	return &datatypes.ProgressReport{
		CompletedWeeks:     completedWeeks,
		TotalWeeks:         totalWeeks,
		ProgressPercentage: math.Round(progressPct*10) / 10,
		CompletedHours:     completedHours,
		TotalHours:         totalHours,
		HoursPercentage:    math.Round(hoursPct*10) / 10,
		OnTrack:            onTrack,
		Status:             status,
		Recommendation:     recommendation,
	}
}
