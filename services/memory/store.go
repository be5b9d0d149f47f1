// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package memory provides the durable store behind the session service:
// sessions, a bounded global conversation feed, per-user study plans,
// and per-user learning paths.
//
// The default implementation is backed by BadgerDB for low-latency
// embedded persistence. An in-memory mode exists for tests.
package memory

import (
	"github.com/pathwise-ai/pathwise/services/orchestrator/datatypes"
)

// Store is the persistence contract. Implementations must be safe for
// concurrent use; callers that need serialized read-modify-write
// sequences (the session service) hold their own lock on top.
type Store interface {
	// GetSession loads a session by ID. Returns datatypes.ErrNotFound
	// when no session exists under the ID.
	GetSession(sessionID string) (*datatypes.Session, error)

	// PutSession writes a session, replacing any existing record.
	PutSession(session *datatypes.Session) error

	// DeleteSession removes a session. Deleting a missing session is
	// not an error.
	DeleteSession(sessionID string) error

	// ScanSessions invokes fn for every stored session. A non-nil
	// error from fn stops the scan and is returned.
	ScanSessions(fn func(session *datatypes.Session) error) error

	// AppendRecent appends an entry to the global conversation feed,
	// trimming the feed to its configured cap.
	AppendRecent(entry datatypes.GlobalEntry) error

	// RecentEntries returns up to limit entries from the tail of the
	// global feed, oldest first. limit <= 0 returns the whole feed.
	RecentEntries(limit int) ([]datatypes.GlobalEntry, error)

	// SaveStudyPlan appends a plan to the user's plan history.
	SaveStudyPlan(userID string, plan *datatypes.StudyPlan) error

	// StudyPlans returns the user's plan history, oldest first. A user
	// with no plans gets an empty slice, not an error.
	StudyPlans(userID string) ([]datatypes.StudyPlan, error)

	// SaveLearningPath replaces the user's learning path.
	SaveLearningPath(userID string, path map[string]any) error

	// LearningPath loads the user's learning path. Returns
	// datatypes.ErrNotFound when none has been saved.
	LearningPath(userID string) (map[string]any, error)

	Close() error
}
