package datatypes

import "time"

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// AnonymousUserID is the owning user recorded for sessions created
// without an explicit user id.
const AnonymousUserID = "anonymous"

// ConversationEntry is a single turn in a session's conversation log.
// Entries are append-only and strictly timestamp-ordered within a session.
type ConversationEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
}

// AgentState is an opaque per-agent state blob saved into a session.
type AgentState struct {
	State     map[string]any `json:"state"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Session is the unit of conversational continuity. It scopes the
// conversation history, per-agent state, and an optional free-form user
// profile. Sessions are soft-deleted (Active flipped false) and only
// physically removed by the retention sweep.
type Session struct {
	SessionID    string                `json:"session_id"`
	UserID       string                `json:"user_id"`
	UserData     map[string]any        `json:"user_data,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	LastAccessed time.Time             `json:"last_accessed"`
	ClosedAt     *time.Time            `json:"closed_at,omitempty"`
	Active       bool                  `json:"active"`
	Conversation []ConversationEntry   `json:"conversation"`
	AgentStates  map[string]AgentState `json:"agent_states,omitempty"`
}

// SessionPreview is the lightweight listing shape for the session
// sidebar: id, the first user message, and creation time.
type SessionPreview struct {
	SessionID    string    `json:"session_id"`
	FirstMessage string    `json:"first_message"`
	CreatedAt    time.Time `json:"created_at"`
}

// GlobalEntry is a conversation entry tagged with its session, retained
// in the store's cross-session ring buffer for diagnostics. This buffer
// is NOT session history; a session's own log is unbounded.
type GlobalEntry struct {
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
}
