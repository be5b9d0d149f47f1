// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathwise-ai/pathwise/services/memory"
	"github.com/pathwise-ai/pathwise/services/orchestrator/datatypes"
	"github.com/pathwise-ai/pathwise/services/orchestrator/observability"
	"github.com/pathwise-ai/pathwise/services/session"
)

// =============================================================================
// Test Setup
// =============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

// echoProcessor is a RequestProcessor double that records its inputs
// and returns a canned result.
type echoProcessor struct {
	lastMessage   string
	lastSessionID string
	result        *datatypes.Result
}

func (p *echoProcessor) Process(_ context.Context, message, sessionID string) *datatypes.Result {
	p.lastMessage = message
	p.lastSessionID = sessionID
	return p.result
}

func newTestSessions(t *testing.T) *session.Service {
	t.Helper()
	store, err := memory.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return session.NewService(store, nil)
}

// perform runs a request through a single-route router and returns the
// recorder.
func perform(handler gin.HandlerFunc, method, path, target, body string) *httptest.ResponseRecorder {
	router := gin.New()
	router.Handle(method, path, handler)

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

// =============================================================================
// Chat Handler Tests
// =============================================================================

func TestHandleChat_Success(t *testing.T) {
	// Arrange
	processor := &echoProcessor{result: &datatypes.Result{
		Success:   true,
		Response:  "here you go",
		SessionID: "s-1",
	}}
	handler := HandleChat(processor, observability.NewCollector(nil))

	// Act
	recorder := perform(handler, http.MethodPost, "/api/chat", "/api/chat",
		`{"message":"help me learn python","session_id":"s-1"}`)

	// Assert
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "help me learn python", processor.lastMessage)
	assert.Equal(t, "s-1", processor.lastSessionID)

	body := decodeBody(t, recorder)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "here you go", body["response"])
}

// TestHandleChat_MissingMessage verifies the 400 on an absent or empty
// message.
func TestHandleChat_MissingMessage(t *testing.T) {
	handler := HandleChat(&echoProcessor{}, observability.NewCollector(nil))

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"empty object", `{}`},
		{"empty message", `{"message":""}`},
		{"malformed json", `{"message":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := perform(handler, http.MethodPost, "/api/chat", "/api/chat", tt.body)

			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			body := decodeBody(t, recorder)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "Missing message in request", body["error"])
		})
	}
}

// TestHandleChat_FailedResultStillHTTP200 verifies pipeline failures
// ride inside a 200 body.
func TestHandleChat_FailedResultStillHTTP200(t *testing.T) {
	// Arrange
	processor := &echoProcessor{result: &datatypes.Result{
		Success:  false,
		Response: "Could not create study plan",
		Error:    "backend down",
	}}
	handler := HandleChat(processor, observability.NewCollector(nil))

	// Act
	recorder := perform(handler, http.MethodPost, "/api/chat", "/api/chat",
		`{"message":"help me learn"}`)

	// Assert
	assert.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "backend down", body["error"])
}

// TestHandleChat_OversizedMessageRejected verifies the byte cap.
func TestHandleChat_OversizedMessageRejected(t *testing.T) {
	handler := HandleChat(&echoProcessor{}, observability.NewCollector(nil))

	message := strings.Repeat("a", datatypes.MaxMessageBytes+1)
	recorder := perform(handler, http.MethodPost, "/api/chat", "/api/chat",
		`{"message":"`+message+`"}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

// =============================================================================
// Session Handler Tests
// =============================================================================

func TestCreateSession(t *testing.T) {
	// Arrange
	sessions := newTestSessions(t)
	handler := CreateSession(sessions, observability.NewCollector(nil))

	// Act
	recorder := perform(handler, http.MethodPost, "/api/session/new", "/api/session/new",
		`{"user_id":"alice"}`)

	// Assert
	assert.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["session_id"])
}

func TestCreateSession_EmptyBodyIsAnonymous(t *testing.T) {
	sessions := newTestSessions(t)
	handler := CreateSession(sessions, observability.NewCollector(nil))

	recorder := perform(handler, http.MethodPost, "/api/session/new", "/api/session/new", "")

	assert.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	sessionID, _ := body["session_id"].(string)
	require.NotEmpty(t, sessionID)

	sess, err := sessions.GetSession(sessionID)
	require.NoError(t, err)
	assert.Equal(t, datatypes.AnonymousUserID, sess.UserID)
}

func TestGetSession(t *testing.T) {
	// Arrange
	sessions := newTestSessions(t)
	sessionID, err := sessions.CreateSession("alice", nil)
	require.NoError(t, err)
	handler := GetSession(sessions, observability.NewCollector(nil))

	// Act
	recorder := perform(handler, http.MethodGet, "/api/session/:sessionId",
		"/api/session/"+sessionID, "")

	// Assert
	assert.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, true, body["success"])
	sess, ok := body["session"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, sessionID, sess["session_id"])
	assert.Equal(t, "alice", sess["user_id"])
}

func TestGetSession_NotFound(t *testing.T) {
	sessions := newTestSessions(t)
	handler := GetSession(sessions, observability.NewCollector(nil))

	recorder := perform(handler, http.MethodGet, "/api/session/:sessionId",
		"/api/session/missing", "")

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "Session not found", body["error"])
}

func TestGetSessionHistory(t *testing.T) {
	// Arrange
	sessions := newTestSessions(t)
	sessionID, err := sessions.CreateSession("", nil)
	require.NoError(t, err)
	for _, content := range []string{"one", "two", "three"} {
		require.NoError(t, sessions.AddMessage(sessionID, datatypes.RoleUser, content))
	}
	handler := GetSessionHistory(sessions, observability.NewCollector(nil))

	t.Run("default limit returns all", func(t *testing.T) {
		recorder := perform(handler, http.MethodGet, "/api/session/:sessionId/history",
			"/api/session/"+sessionID+"/history", "")

		assert.Equal(t, http.StatusOK, recorder.Code)
		body := decodeBody(t, recorder)
		history, ok := body["history"].([]any)
		require.True(t, ok)
		assert.Len(t, history, 3)
	})

	t.Run("explicit limit keeps the newest", func(t *testing.T) {
		recorder := perform(handler, http.MethodGet, "/api/session/:sessionId/history",
			"/api/session/"+sessionID+"/history?limit=2", "")

		assert.Equal(t, http.StatusOK, recorder.Code)
		body := decodeBody(t, recorder)
		history, ok := body["history"].([]any)
		require.True(t, ok)
		require.Len(t, history, 2)
		first, ok := history[0].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "two", first["content"])
	})

	t.Run("unknown session is 404", func(t *testing.T) {
		recorder := perform(handler, http.MethodGet, "/api/session/:sessionId/history",
			"/api/session/missing/history", "")

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestListSessions(t *testing.T) {
	// Arrange
	sessions := newTestSessions(t)
	_, err := sessions.CreateSession("", nil)
	require.NoError(t, err)
	_, err = sessions.CreateSession("", nil)
	require.NoError(t, err)
	handler := ListSessions(sessions)

	// Act
	recorder := perform(handler, http.MethodGet, "/api/sessions", "/api/sessions", "")

	// Assert
	assert.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	previews, ok := body["sessions"].([]any)
	require.True(t, ok)
	assert.Len(t, previews, 2)
}

func TestCloseSession(t *testing.T) {
	// Arrange
	sessions := newTestSessions(t)
	sessionID, err := sessions.CreateSession("", nil)
	require.NoError(t, err)
	handler := CloseSession(sessions)

	// Act
	recorder := perform(handler, http.MethodDelete, "/api/session/:sessionId",
		"/api/session/"+sessionID, "")

	// Assert
	assert.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, sessionID, body["closed_session_id"])

	sess, err := sessions.GetSession(sessionID)
	require.NoError(t, err)
	assert.False(t, sess.Active, "close is soft; the record remains readable")
}

func TestCloseSession_NotFound(t *testing.T) {
	sessions := newTestSessions(t)
	handler := CloseSession(sessions)

	recorder := perform(handler, http.MethodDelete, "/api/session/:sessionId",
		"/api/session/missing", "")

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

// =============================================================================
// Misc Handler Tests
// =============================================================================

func TestHealthCheck(t *testing.T) {
	handler := HealthCheck(observability.NewCollector(nil))

	recorder := perform(handler, http.MethodGet, "/api/health", "/api/health", "")

	assert.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "Pathwise Study Assistant", body["service"])
}

func TestGetMetrics(t *testing.T) {
	// Arrange
	collector := observability.NewCollector(nil)
	collector.RecordToolUsage("web_search", true)
	handler := GetMetrics(collector)

	// Act
	recorder := perform(handler, http.MethodGet, "/api/metrics", "/api/metrics", "")

	// Assert
	assert.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	metrics, ok := body["metrics"].(map[string]any)
	require.True(t, ok)
	tools, ok := metrics["tools"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), tools["total_calls"])
}
