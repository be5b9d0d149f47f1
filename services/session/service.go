// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package session manages user sessions and their state across agent
// interactions: conversation history, per-agent state, soft closing,
// and retention sweeps.
package session

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pathwise-ai/pathwise/services/memory"
	"github.com/pathwise-ai/pathwise/services/orchestrator/datatypes"
)

// SessionMetrics is the slice of the observability collector the
// service records into. A nil recorder disables recording.
type SessionMetrics interface {
	RecordSessionEvent(event string)
	RecordError(errorType string)
}

// Service serializes all mutations through a single mutex so
// read-modify-write sequences against the store never interleave.
type Service struct {
	mu      sync.Mutex
	store   memory.Store
	metrics SessionMetrics

	// lastEntryTime enforces strictly increasing conversation
	// timestamps within the service's lifetime.
	lastEntryTime time.Time
}

func NewService(store memory.Store, metrics SessionMetrics) *Service {
	return &Service{store: store, metrics: metrics}
}

// CreateSession creates a new session and returns its ID. An empty
// userID is recorded as anonymous.
func (s *Service) CreateSession(userID string, userData map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userID == "" {
		userID = datatypes.AnonymousUserID
	}
	if userData == nil {
		userData = map[string]any{}
	}

	now := time.Now()
	session := &datatypes.Session{
		SessionID:    uuid.NewString(),
		UserID:       userID,
		UserData:     userData,
		CreatedAt:    now,
		LastAccessed: now,
		Active:       true,
		Conversation: []datatypes.ConversationEntry{},
		AgentStates:  map[string]datatypes.AgentState{},
	}

	if err := s.store.PutSession(session); err != nil {
		s.recordError("session_create_error")
		return "", fmt.Errorf("create session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordSessionEvent("created")
	}
	slog.Info("Session event", "session_id", session.SessionID, "event", "created", "user_id", userID)

	return session.SessionID, nil
}

// GetSession loads a session and touches its last-accessed time.
func (s *Service) GetSession(sessionID string) (*datatypes.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	session.LastAccessed = time.Now()
	if err := s.store.PutSession(session); err != nil {
		return nil, fmt.Errorf("touch session %s: %w", sessionID, err)
	}

	slog.Debug("Session event", "session_id", sessionID, "event", "accessed")
	return session, nil
}

// UpdateSession merges updates into the session's user data.
func (s *Service) UpdateSession(sessionID string, updates map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.store.GetSession(sessionID)
	if err != nil {
		s.recordError("session_update_error")
		return err
	}

	if session.UserData == nil {
		session.UserData = map[string]any{}
	}
	for k, v := range updates {
		session.UserData[k] = v
	}
	session.LastAccessed = time.Now()

	if err := s.store.PutSession(session); err != nil {
		s.recordError("session_update_error")
		return fmt.Errorf("update session %s: %w", sessionID, err)
	}

	slog.Info("Session event", "session_id", sessionID, "event", "updated")
	return nil
}

// AddMessage appends a conversation entry to the session and mirrors
// it into the bounded global feed. Entry timestamps are strictly
// increasing within the service.
func (s *Service) AddMessage(sessionID, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.store.GetSession(sessionID)
	if err != nil {
		s.recordError("add_message_error")
		return err
	}

	entry := datatypes.ConversationEntry{
		Timestamp: s.nextEntryTime(),
		Role:      role,
		Content:   content,
	}
	session.Conversation = append(session.Conversation, entry)
	session.LastAccessed = entry.Timestamp

	if err := s.store.PutSession(session); err != nil {
		s.recordError("add_message_error")
		return fmt.Errorf("append message to session %s: %w", sessionID, err)
	}

	global := datatypes.GlobalEntry{
		SessionID: sessionID,
		Timestamp: entry.Timestamp,
		Role:      role,
		Content:   content,
	}
	if err := s.store.AppendRecent(global); err != nil {
		s.recordError("add_message_error")
		return fmt.Errorf("append to global feed: %w", err)
	}

	return nil
}

// nextEntryTime returns a timestamp strictly after the previous entry's.
// Callers hold s.mu.
func (s *Service) nextEntryTime() time.Time {
	now := time.Now()
	if !now.After(s.lastEntryTime) {
		now = s.lastEntryTime.Add(time.Nanosecond)
	}
	s.lastEntryTime = now
	return now
}

// ConversationHistory returns the most recent limit entries of the
// session's conversation, oldest first.
func (s *Service) ConversationHistory(sessionID string, limit int) ([]datatypes.ConversationEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	conversation := session.Conversation
	if limit > 0 && len(conversation) > limit {
		conversation = conversation[len(conversation)-limit:]
	}
	return conversation, nil
}

// UpdateAgentState replaces an agent's stored state for the session.
func (s *Service) UpdateAgentState(sessionID, agentName string, state map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.store.GetSession(sessionID)
	if err != nil {
		return err
	}

	if session.AgentStates == nil {
		session.AgentStates = map[string]datatypes.AgentState{}
	}
	session.AgentStates[agentName] = datatypes.AgentState{
		State:     state,
		UpdatedAt: time.Now(),
	}

	if err := s.store.PutSession(session); err != nil {
		return fmt.Errorf("update agent state for session %s: %w", sessionID, err)
	}

	slog.Info("Session event", "session_id", sessionID, "event", "agent_state_updated", "agent", agentName)
	return nil
}

// AgentState returns an agent's stored state for the session, or nil
// when the agent has none.
func (s *Service) AgentState(sessionID, agentName string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	state, ok := session.AgentStates[agentName]
	if !ok {
		return nil, nil
	}
	return state.State, nil
}

// CloseSession soft-closes a session. The record stays readable until
// the retention sweep removes it.
func (s *Service) CloseSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.store.GetSession(sessionID)
	if err != nil {
		return err
	}

	now := time.Now()
	session.Active = false
	session.ClosedAt = &now

	if err := s.store.PutSession(session); err != nil {
		return fmt.Errorf("close session %s: %w", sessionID, err)
	}

	if s.metrics != nil {
		s.metrics.RecordSessionEvent("closed")
	}
	slog.Info("Session event", "session_id", sessionID, "event", "closed")
	return nil
}

// ListSessions returns previews of every stored session, newest first.
// The preview message is the first user entry of the conversation.
func (s *Service) ListSessions() ([]datatypes.SessionPreview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previews := []datatypes.SessionPreview{}
	err := s.store.ScanSessions(func(session *datatypes.Session) error {
		firstMessage := ""
		for _, entry := range session.Conversation {
			if entry.Role == datatypes.RoleUser {
				firstMessage = entry.Content
				break
			}
		}
		previews = append(previews, datatypes.SessionPreview{
			SessionID:    session.SessionID,
			FirstMessage: firstMessage,
			CreatedAt:    session.CreatedAt,
		})
		return nil
	})
	if err != nil {
		s.recordError("list_sessions_error")
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sort.Slice(previews, func(i, j int) bool {
		return previews[i].CreatedAt.After(previews[j].CreatedAt)
	})
	return previews, nil
}

// SaveStudyPlan records a generated plan against the session's user.
func (s *Service) SaveStudyPlan(sessionID string, plan *datatypes.StudyPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.store.GetSession(sessionID)
	if err != nil {
		return err
	}

	if err := s.store.SaveStudyPlan(session.UserID, plan); err != nil {
		return fmt.Errorf("save study plan for %s: %w", session.UserID, err)
	}
	return nil
}

// StudyPlans returns the plan history of the session's user.
func (s *Service) StudyPlans(sessionID string) ([]datatypes.StudyPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.store.StudyPlans(session.UserID)
}

// CleanupOldSessions removes closed sessions whose last access is older
// than maxAge. Active sessions are never removed. Returns the number
// of sessions deleted.
func (s *Service) CleanupOldSessions(maxAge time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)

	stale := []string{}
	err := s.store.ScanSessions(func(session *datatypes.Session) error {
		if !session.Active && session.LastAccessed.Before(cutoff) {
			stale = append(stale, session.SessionID)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan sessions for cleanup: %w", err)
	}

	removed := 0
	for _, sessionID := range stale {
		if err := s.store.DeleteSession(sessionID); err != nil {
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		slog.Info("Retention sweep removed sessions", "count", removed)
	}
	return removed, nil
}

func (s *Service) recordError(errorType string) {
	if s.metrics != nil {
		s.metrics.RecordError(errorType)
	}
}
