// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/pathwise-ai/pathwise/services/orchestrator/datatypes"
)

// Key layout. Sessions and per-user records are namespaced by prefix;
// the global feed lives under a single key and is rewritten on append.
const (
	sessionPrefix  = "session/"
	plansPrefix    = "plans/"
	pathPrefix     = "path/"
	recentFeedKey  = "recent"
	defaultRecent  = 1000
	gcInterval     = 5 * time.Minute
	gcDiscardRatio = 0.5
)

// Config holds configuration for the Badger-backed store.
type Config struct {
	// Path is the directory for database files. Required unless
	// InMemory is true.
	Path string

	// InMemory disables disk persistence. Useful for testing.
	InMemory bool

	// RecentLimit caps the global conversation feed. Defaults to 1000.
	RecentLimit int

	// Logger receives BadgerDB's internal log output. If nil, that
	// logging is disabled.
	Logger *slog.Logger
}

// BadgerStore implements Store on an embedded BadgerDB instance.
type BadgerStore struct {
	db          *badger.DB
	recentLimit int
	gcDone      chan struct{}
	gcStop      chan struct{}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open creates and opens the store. Callers must Close it when done.
func Open(cfg Config) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	recentLimit := cfg.RecentLimit
	if recentLimit <= 0 {
		recentLimit = defaultRecent
	}

	store := &BadgerStore{
		db:          db,
		recentLimit: recentLimit,
		gcStop:      make(chan struct{}),
		gcDone:      make(chan struct{}),
	}

	if cfg.InMemory {
		close(store.gcDone)
	} else {
		go store.runGC()
	}

	return store, nil
}

// OpenInMemory opens a throwaway store for testing.
func OpenInMemory() (*BadgerStore, error) {
	return Open(Config{InMemory: true})
}

func (s *BadgerStore) runGC() {
	defer close(s.gcDone)

	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.gcStop:
			return
		case <-ticker.C:
			err := s.db.RunValueLogGC(gcDiscardRatio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				slog.Warn("Badger value log GC error", "error", err)
			}
		}
	}
}

func (s *BadgerStore) Close() error {
	select {
	case <-s.gcStop:
	default:
		close(s.gcStop)
	}
	<-s.gcDone
	return s.db.Close()
}

func (s *BadgerStore) GetSession(sessionID string) (*datatypes.Session, error) {
	var session datatypes.Session
	err := s.getJSON(sessionPrefix+sessionID, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *BadgerStore) PutSession(session *datatypes.Session) error {
	return s.putJSON(sessionPrefix+session.SessionID, session)
}

func (s *BadgerStore) DeleteSession(sessionID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(sessionPrefix + sessionID))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

func (s *BadgerStore) ScanSessions(fn func(session *datatypes.Session) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sessionPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var session datatypes.Session
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &session)
			})
			if err != nil {
				return fmt.Errorf("decode session %s: %w", it.Item().Key(), err)
			}
			if err := fn(&session); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) AppendRecent(entry datatypes.GlobalEntry) error {
	feed := []datatypes.GlobalEntry{}
	err := s.getJSON(recentFeedKey, &feed)
	if err != nil && !errors.Is(err, datatypes.ErrNotFound) {
		return err
	}

	feed = append(feed, entry)
	if len(feed) > s.recentLimit {
		feed = feed[len(feed)-s.recentLimit:]
	}

	return s.putJSON(recentFeedKey, feed)
}

func (s *BadgerStore) RecentEntries(limit int) ([]datatypes.GlobalEntry, error) {
	feed := []datatypes.GlobalEntry{}
	err := s.getJSON(recentFeedKey, &feed)
	if err != nil {
		if errors.Is(err, datatypes.ErrNotFound) {
			return []datatypes.GlobalEntry{}, nil
		}
		return nil, err
	}

	if limit > 0 && len(feed) > limit {
		feed = feed[len(feed)-limit:]
	}
	return feed, nil
}

func (s *BadgerStore) SaveStudyPlan(userID string, plan *datatypes.StudyPlan) error {
	plans := []datatypes.StudyPlan{}
	err := s.getJSON(plansPrefix+userID, &plans)
	if err != nil && !errors.Is(err, datatypes.ErrNotFound) {
		return err
	}

	stored := *plan
	stored.CreatedAt = time.Now()
	plans = append(plans, stored)

	return s.putJSON(plansPrefix+userID, plans)
}

func (s *BadgerStore) StudyPlans(userID string) ([]datatypes.StudyPlan, error) {
	plans := []datatypes.StudyPlan{}
	err := s.getJSON(plansPrefix+userID, &plans)
	if err != nil {
		if errors.Is(err, datatypes.ErrNotFound) {
			return []datatypes.StudyPlan{}, nil
		}
		return nil, err
	}
	return plans, nil
}

func (s *BadgerStore) SaveLearningPath(userID string, path map[string]any) error {
	stored := make(map[string]any, len(path)+1)
	for k, v := range path {
		stored[k] = v
	}
	stored["created_at"] = time.Now().Format(time.RFC3339)

	return s.putJSON(pathPrefix+userID, stored)
}

func (s *BadgerStore) LearningPath(userID string) (map[string]any, error) {
	var path map[string]any
	if err := s.getJSON(pathPrefix+userID, &path); err != nil {
		return nil, err
	}
	return path, nil
}

func (s *BadgerStore) getJSON(key string, out any) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", datatypes.ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	return nil
}

func (s *BadgerStore) putJSON(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
