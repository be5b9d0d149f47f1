// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Backends
// =============================================================================

// newDDGServer serves a canned DuckDuckGo instant-answer response.
func newDDGServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

// newWikiServer serves a canned Wikipedia summary response, or the given
// status code with an empty body.
func newWikiServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

// =============================================================================
// Routing Tests
// =============================================================================

// TestIsFactualQuery verifies the factual-phrasing heuristic.
func TestIsFactualQuery(t *testing.T) {
	tests := []struct {
		query   string
		factual bool
	}{
		{"what is photosynthesis", true},
		{"Who is Marie Curie", true},
		{"define osmosis", true},
		{"history of rome", true},
		{"best pizza near me", false},
		{"python tutorials", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.factual, isFactualQuery(tt.query), "query: %s", tt.query)
	}
}

// TestSearchClient_Execute_AutoRoutesFactualToWikipedia verifies that
// "auto" sends factual queries to the encyclopedic backend.
func TestSearchClient_Execute_AutoRoutesFactualToWikipedia(t *testing.T) {
	// Arrange
	wiki := newWikiServer(t, http.StatusOK,
		`{"title":"Photosynthesis","extract":"Photosynthesis is a process used by plants."}`)
	ddg := newDDGServer(t, `{"Abstract":"should not be used"}`)
	client := NewSearchClientWithBackends(nil, ddg.URL+"/", wiki.URL+"/")

	// Act
	result := client.Execute(context.Background(), "what is photosynthesis", "auto")

	// Assert
	require.True(t, result.Success)
	assert.Equal(t, "Wikipedia", result.Source)
	assert.Equal(t, "Photosynthesis", result.Heading)
	assert.Equal(t, "Photosynthesis is a process used by plants.", result.Summary)
}

// TestSearchClient_Execute_AutoRoutesCasualToDuckDuckGo verifies that
// non-factual phrasing goes to the general backend.
func TestSearchClient_Execute_AutoRoutesCasualToDuckDuckGo(t *testing.T) {
	// Arrange
	ddg := newDDGServer(t, `{"Abstract":"Go is a programming language.","Heading":"Go","AbstractURL":"https://example.org/go"}`)
	wiki := newWikiServer(t, http.StatusOK, `{}`)
	client := NewSearchClientWithBackends(nil, ddg.URL+"/", wiki.URL+"/")

	// Act
	result := client.Execute(context.Background(), "golang tutorials", "auto")

	// Assert
	require.True(t, result.Success)
	assert.Equal(t, "DuckDuckGo", result.Source)
	assert.Equal(t, "Go is a programming language.", result.Summary)
	assert.Equal(t, "https://example.org/go", result.URL)
}

// =============================================================================
// Fallback and Error Tests
// =============================================================================

// TestSearchClient_WikipediaNotFoundFallsBackToDuckDuckGo verifies the
// 404 fallback path.
func TestSearchClient_WikipediaNotFoundFallsBackToDuckDuckGo(t *testing.T) {
	// Arrange
	wiki := newWikiServer(t, http.StatusNotFound, `{"type":"not_found"}`)
	ddg := newDDGServer(t, `{"Abstract":"Fallback answer."}`)
	client := NewSearchClientWithBackends(nil, ddg.URL+"/", wiki.URL+"/")

	// Act
	result := client.Execute(context.Background(), "obscure topic", "wikipedia")

	// Assert
	require.True(t, result.Success)
	assert.Equal(t, "DuckDuckGo", result.Source, "404 should fall back to DuckDuckGo")
	assert.Equal(t, "Fallback answer.", result.Summary)
}

// TestSearchClient_BackendErrorReturnsFailedResult verifies a non-OK
// status produces a failed result rather than an error.
func TestSearchClient_BackendErrorReturnsFailedResult(t *testing.T) {
	// Arrange
	ddg := newWikiServer(t, http.StatusInternalServerError, "")
	client := NewSearchClientWithBackends(nil, ddg.URL+"/", ddg.URL+"/")

	// Act
	result := client.Execute(context.Background(), "anything", "duckduckgo")

	// Assert
	assert.False(t, result.Success)
	assert.Equal(t, "Search failed", result.Summary)
	assert.Contains(t, result.Error, "500")
}

// TestSearchClient_NoDirectAnswerUsesRelatedTopic verifies the summary
// fallback chain when the abstract is empty.
func TestSearchClient_NoDirectAnswerUsesRelatedTopic(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		summary string
	}{
		{
			"first related topic",
			`{"Abstract":"","RelatedTopics":[{"Text":"Topic one"},{"Text":"Topic two"}]}`,
			"Topic one",
		},
		{
			"nothing at all",
			`{"Abstract":"","RelatedTopics":[]}`,
			"No direct answer found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ddg := newDDGServer(t, tt.body)
			client := NewSearchClientWithBackends(nil, ddg.URL+"/", ddg.URL+"/")

			result := client.Execute(context.Background(), "q", "duckduckgo")

			require.True(t, result.Success)
			assert.Equal(t, tt.summary, result.Summary)
		})
	}
}

// TestSearchClient_RelatedTopicsCappedAtFive verifies at most five
// related topics are kept.
func TestSearchClient_RelatedTopicsCappedAtFive(t *testing.T) {
	ddg := newDDGServer(t, `{"Abstract":"A.","RelatedTopics":[
		{"Text":"1"},{"Text":"2"},{"Text":""},{"Text":"3"},{"Text":"4"},{"Text":"5"},{"Text":"6"}]}`)
	client := NewSearchClientWithBackends(nil, ddg.URL+"/", ddg.URL+"/")

	result := client.Execute(context.Background(), "q", "duckduckgo")

	require.True(t, result.Success)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, result.RelatedTopics,
		"empty topics skipped, capped at five")
}

// =============================================================================
// Educational Content Tests
// =============================================================================

// TestSearchClient_SearchEducationalContent verifies the educational
// framing and study-note extraction.
func TestSearchClient_SearchEducationalContent(t *testing.T) {
	// Arrange - a multi-sentence extract for note extraction
	extract := "Photosynthesis is a process used by plants to convert light. " +
		"It occurs in chloroplasts within plant cells. " +
		"Short. " +
		"The process produces oxygen as a byproduct."
	wiki := newWikiServer(t, http.StatusOK,
		`{"title":"Photosynthesis","extract":"`+extract+`"}`)
	client := NewSearchClientWithBackends(nil, wiki.URL+"/", wiki.URL+"/")

	// Act
	result := client.SearchEducationalContent(context.Background(), "photosynthesis")

	// Assert
	require.True(t, result.Success)
	assert.True(t, result.Educational)
	assert.Equal(t, "photosynthesis", result.Topic)
	require.Len(t, result.StudyNotes, 3, "sentences of 20 chars or less are dropped")
	assert.Equal(t, "Photosynthesis is a process used by plants to convert light.",
		result.StudyNotes[0])
}

// TestExtractKeyPoints verifies sentence splitting, the length filter,
// and trailing-period normalization.
func TestExtractKeyPoints(t *testing.T) {
	text := "This is the first long sentence here. " +
		"Tiny. " +
		"This is another sufficiently long sentence. " +
		"Third long enough sentence for the list. " +
		"Fourth long enough sentence for the list. " +
		"Fifth long enough sentence for the list. " +
		"Sixth sentence that should be cut off entirely."

	points := extractKeyPoints(text, 5)

	// Five sentences considered, one filtered for length
	require.Len(t, points, 4)
	for _, point := range points {
		assert.True(t, len(point) > 20)
		assert.True(t, point[len(point)-1] == '.', "points should end with a period")
	}
}
