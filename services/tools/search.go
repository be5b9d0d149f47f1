// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pathwise-ai/pathwise/services/orchestrator/datatypes"
)

// Search backend names as reported in results.
const (
	sourceDuckDuckGo = "DuckDuckGo"
	sourceWikipedia  = "Wikipedia"
)

// factualLeadIns route a query to the encyclopedic backend when present.
var factualLeadIns = []string{
	"what is", "who is", "when was", "where is", "define",
	"history of", "explain", "meaning of", "biography",
}

// SearchClient is a keyless search facade over DuckDuckGo's instant
// answer API and Wikipedia's REST summary API. Backend selection is a
// factual-phrasing heuristic; a Wikipedia not-found falls back to
// DuckDuckGo.
type SearchClient struct {
	httpClient *http.Client
	ddgAPI     string
	wikiAPI    string
}

func NewSearchClient() *SearchClient {
	return &SearchClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		ddgAPI:     "https://api.duckduckgo.com/",
		wikiAPI:    "https://en.wikipedia.org/api/rest_v1/page/summary/",
	}
}

// NewSearchClientWithBackends overrides the backend base URLs. Used by
// tests to point the facade at local servers.
func NewSearchClientWithBackends(httpClient *http.Client, ddgAPI, wikiAPI string) *SearchClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &SearchClient{httpClient: httpClient, ddgAPI: ddgAPI, wikiAPI: wikiAPI}
}

// Execute runs a search. Source may be "duckduckgo", "wikipedia", or
// "auto"; auto routes factual phrasing to Wikipedia and everything else
// to DuckDuckGo.
func (s *SearchClient) Execute(ctx context.Context, query, source string) *datatypes.SearchResult {
	if source == "wikipedia" || (source == "auto" && isFactualQuery(query)) {
		return s.searchWikipedia(ctx, query)
	}
	return s.searchDuckDuckGo(ctx, query)
}

// SearchEducationalContent searches a topic with an educational framing,
// preferring the encyclopedic backend, and attaches extracted study
// notes to a successful result.
func (s *SearchClient) SearchEducationalContent(ctx context.Context, topic string) *datatypes.SearchResult {
	result := s.Execute(ctx, topic, "wikipedia")
	result.Educational = true
	result.Topic = topic
	if result.Success && result.Summary != "" {
		result.StudyNotes = extractKeyPoints(result.Summary, 5)
	}
	return result
}

type ddgResponse struct {
	Abstract      string `json:"Abstract"`
	Heading       string `json:"Heading"`
	AbstractURL   string `json:"AbstractURL"`
	RelatedTopics []struct {
		Text string `json:"Text"`
	} `json:"RelatedTopics"`
}

func (s *SearchClient) searchDuckDuckGo(ctx context.Context, query string) *datatypes.SearchResult {
	failed := func(err error) *datatypes.SearchResult {
		slog.Warn("DuckDuckGo search failed", "query", query, "error", err)
		return &datatypes.SearchResult{
			Query:     query,
			Source:    sourceDuckDuckGo,
			Summary:   "Search failed",
			Error:     err.Error(),
			Timestamp: time.Now(),
		}
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.ddgAPI+"?"+params.Encode(), nil)
	if err != nil {
		return failed(err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return failed(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return failed(fmt.Errorf("duckduckgo returned status %d", resp.StatusCode))
	}

	var data ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return failed(fmt.Errorf("failed to decode duckduckgo response: %w", err))
	}

	topics := make([]string, 0, 5)
	for _, topic := range data.RelatedTopics {
		if topic.Text == "" {
			continue
		}
		topics = append(topics, topic.Text)
		if len(topics) == 5 {
			break
		}
	}

	summary := data.Abstract
	if summary == "" {
		summary = "No direct answer found"
		if len(topics) > 0 {
			summary = topics[0]
		}
	}

	return &datatypes.SearchResult{
		Success:       true,
		Query:         query,
		Source:        sourceDuckDuckGo,
		Heading:       data.Heading,
		Summary:       summary,
		URL:           data.AbstractURL,
		RelatedTopics: topics,
		Timestamp:     time.Now(),
	}
}

type wikiResponse struct {
	Title     string `json:"title"`
	Extract   string `json:"extract"`
	Thumbnail struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

func (s *SearchClient) searchWikipedia(ctx context.Context, query string) *datatypes.SearchResult {
	failed := func(err error) *datatypes.SearchResult {
		slog.Warn("Wikipedia search failed", "query", query, "error", err)
		return &datatypes.SearchResult{
			Query:     query,
			Source:    sourceWikipedia,
			Summary:   "Search failed",
			Error:     err.Error(),
			Timestamp: time.Now(),
		}
	}

	searchTerm := strings.ReplaceAll(query, " ", "_")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.wikiAPI+url.PathEscape(searchTerm), nil)
	if err != nil {
		return failed(err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return failed(err)
	}
	defer resp.Body.Close()

	// Not-found on the encyclopedic backend falls back to the general one.
	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return s.searchDuckDuckGo(ctx, query)
	}
	if resp.StatusCode != http.StatusOK {
		return failed(fmt.Errorf("wikipedia returned status %d", resp.StatusCode))
	}

	var data wikiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return failed(fmt.Errorf("failed to decode wikipedia response: %w", err))
	}

	return &datatypes.SearchResult{
		Success:   true,
		Query:     query,
		Source:    sourceWikipedia,
		Heading:   data.Title,
		Summary:   data.Extract,
		URL:       data.ContentURLs.Desktop.Page,
		Thumbnail: data.Thumbnail.Source,
		Timestamp: time.Now(),
	}
}

func isFactualQuery(query string) bool {
	lower := strings.ToLower(query)
	for _, phrase := range factualLeadIns {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// extractKeyPoints pulls up to maxPoints sentences longer than 20
// characters from text, normalizing trailing periods.
func extractKeyPoints(text string, maxPoints int) []string {
	sentences := strings.Split(text, ". ")
	if len(sentences) > maxPoints {
		sentences = sentences[:maxPoints]
	}
	points := make([]string, 0, len(sentences))
	for _, sentence := range sentences {
		clean := strings.TrimSpace(sentence)
		if len(clean) <= 20 {
			continue
		}
		if !strings.HasSuffix(clean, ".") {
			clean += "."
		}
		points = append(points, clean)
	}
	return points
}
