package datatypes

import "time"

// Skill levels recognized by the goal parser.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// ParsedGoal is the structured form of a free-text learning goal.
// Derived deterministically from text and immutable once produced.
// DurationWeeks and HoursPerWeek are always positive (defaulted when
// unparseable).
type ParsedGoal struct {
	OriginalGoal  string `json:"original_goal"`
	Subject       string `json:"subject"`
	Level         string `json:"level"`
	DurationWeeks int    `json:"duration_weeks"`
	HoursPerWeek  int    `json:"hours_per_week"`
}

// PlanStep is one phase of the fixed plan template the planning agent
// expands a parsed goal into.
type PlanStep struct {
	Step          int      `json:"step"`
	Phase         string   `json:"phase"`
	Action        string   `json:"action"`
	DurationWeeks int      `json:"duration_weeks"`
	ToolsNeeded   []string `json:"tools_needed"`
}

// TimelinePhase is one allocated stretch of weeks in a plan timeline.
type TimelinePhase struct {
	Phase         string `json:"phase"`
	StartWeek     int    `json:"start_week"`
	EndWeek       int    `json:"end_week"`
	DurationWeeks int    `json:"duration_weeks"`
}

// Timeline allocates plan phases to sequential weeks. The final phase is
// clipped when the template would overrun the requested total; phases
// left with zero weeks are omitted.
type Timeline struct {
	TotalWeeks int             `json:"total_weeks"`
	Phases     []TimelinePhase `json:"phases"`
}

// PlanningResult is the planning agent's structured outcome.
type PlanningResult struct {
	Success    bool        `json:"success"`
	Agent      string      `json:"agent"`
	ParsedGoal *ParsedGoal `json:"parsed_goal,omitempty"`
	PlanSteps  []PlanStep  `json:"plan_steps,omitempty"`
	Timeline   *Timeline   `json:"timeline,omitempty"`
	Resources  []string    `json:"resources,omitempty"`
	Error      string      `json:"error,omitempty"`
	DurationMs float64     `json:"duration_ms"`
}

// ScheduleSlot is one study session in a weekly schedule.
type ScheduleSlot struct {
	Day             string  `json:"day"`
	DurationHours   float64 `json:"duration_hours"`
	Activity        string  `json:"activity"`
	RecommendedTime string  `json:"recommended_time"`
}

// Milestone is a checkpoint in a study plan.
type Milestone struct {
	Week       int    `json:"week"`
	Milestone  string `json:"milestone"`
	Assessment string `json:"assessment"`
}

// StudyPlan is a generated study plan. QualityScore and Refinements are
// mutable: the refinement loop appends to them on each iteration.
type StudyPlan struct {
	Subject              string         `json:"subject"`
	Level                string         `json:"level"`
	DurationWeeks        int            `json:"duration_weeks"`
	HoursPerWeek         int            `json:"hours_per_week"`
	LearningStyle        string         `json:"learning_style"`
	TotalHours           int            `json:"total_hours"`
	WeeklySchedule       []ScheduleSlot `json:"weekly_schedule"`
	RecommendedResources []string       `json:"recommended_resources"`
	Milestones           []Milestone    `json:"milestones"`
	StudyTips            []string       `json:"study_tips"`
	QualityScore         int            `json:"quality_score,omitempty"`
	Refinements          []string       `json:"refinements,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`

	// Raw carries non-plan data coerced into a plan by the refinement
	// loop's study-plan step.
	Raw any `json:"raw_plan,omitempty"`
}

// ProgressReport compares completed weeks against logged hours for a
// study plan.
type ProgressReport struct {
	CompletedWeeks     int     `json:"completed_weeks"`
	TotalWeeks         int     `json:"total_weeks"`
	ProgressPercentage float64 `json:"progress_percentage"`
	CompletedHours     int     `json:"completed_hours"`
	TotalHours         int     `json:"total_hours"`
	HoursPercentage    float64 `json:"hours_percentage"`
	OnTrack            bool    `json:"on_track"`
	Status             string  `json:"status"`
	Recommendation     string  `json:"recommendation"`
}

// ValidatedResource is the per-resource outcome of the loop agent's
// resource-validation task.
type ValidatedResource struct {
	Resource   any  `json:"resource"`
	Validated  bool `json:"validated"`
	Iteration  int  `json:"iteration"`
	Confidence int  `json:"confidence"`
}

// Iteration records one pass of the refinement loop: input and output
// snapshots, a human-readable change description, and a quality score in
// [0,100]. Scores are monotone only by convention of the built-in step
// functions; the loop itself does not enforce monotonicity.
type Iteration struct {
	Iteration    int    `json:"iteration"`
	Input        any    `json:"input"`
	Output       any    `json:"output"`
	Changes      string `json:"changes"`
	QualityScore int    `json:"quality_score"`
}

// LoopResult is the loop agent's structured outcome. FinalResult is the
// last iteration when at least one ran. StoppedEarly is true when the
// stopping predicate fired before the iteration cap.
type LoopResult struct {
	Success         bool        `json:"success"`
	Agent           string      `json:"agent"`
	Task            string      `json:"task"`
	Iterations      []Iteration `json:"iterations"`
	TotalIterations int         `json:"total_iterations"`
	FinalResult     *Iteration  `json:"final_result,omitempty"`
	StoppedEarly    bool        `json:"stopped_early"`
	Error           string      `json:"error,omitempty"`
	DurationMs      float64     `json:"duration_ms"`
}
