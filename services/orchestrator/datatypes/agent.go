package datatypes

import "time"

// LLMResult is the assistant agent's structured outcome for a single
// generation call. Failure never propagates as an error; callers decide
// between degraded fallback text and hard pipeline failure.
type LLMResult struct {
	Success    bool    `json:"success"`
	Agent      string  `json:"agent"`
	Response   string  `json:"response,omitempty"`
	UserInput  string  `json:"user_input,omitempty"`
	Error      string  `json:"error,omitempty"`
	DurationMs float64 `json:"duration_ms"`
}

// AnalysisResult is the advisory goal analysis the assistant produces
// for the study-plan pipeline. Its failure never aborts the pipeline.
type AnalysisResult struct {
	Success       bool   `json:"success"`
	Analysis      string `json:"analysis,omitempty"`
	OriginalInput string `json:"original_input"`
	Error         string `json:"error,omitempty"`
}

// RecommendationResult carries LLM-generated study recommendations for
// a subject at a given level.
type RecommendationResult struct {
	Success         bool   `json:"success"`
	Subject         string `json:"subject,omitempty"`
	Level           string `json:"level,omitempty"`
	Recommendations string `json:"recommendations,omitempty"`
	Error           string `json:"error,omitempty"`
}

// SearchResult is the search facade's outcome from either backend.
type SearchResult struct {
	Success       bool      `json:"success"`
	Query         string    `json:"query"`
	Source        string    `json:"source"`
	Heading       string    `json:"heading,omitempty"`
	Summary       string    `json:"summary"`
	URL           string    `json:"url,omitempty"`
	Thumbnail     string    `json:"thumbnail,omitempty"`
	RelatedTopics []string  `json:"related_topics,omitempty"`
	Error         string    `json:"error,omitempty"`
	Timestamp     time.Time `json:"timestamp"`

	// Educational framing, set by the educational-content search.
	Educational bool     `json:"educational,omitempty"`
	Topic       string   `json:"topic,omitempty"`
	StudyNotes  []string `json:"study_notes,omitempty"`
}

// ExecResult is the sandboxed evaluator's outcome.
type ExecResult struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code"`

	// Value is the parsed numeric result for math-expression runs.
	Value *float64 `json:"result,omitempty"`
}
