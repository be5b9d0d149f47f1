// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package retention runs the background sweep that removes closed
// sessions past their retention window.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Cleaner removes sessions inactive for longer than maxAge and reports
// how many were removed. The session service implements this.
type Cleaner interface {
	CleanupOldSessions(maxAge time.Duration) (int, error)
}

// Config holds scheduler settings.
type Config struct {
	// Interval is how often to run a sweep.
	Interval time.Duration

	// MaxAge is how long closed sessions are retained after their last
	// access.
	MaxAge time.Duration
}

// DefaultConfig returns production defaults: hourly sweeps, thirty-day
// retention.
func DefaultConfig() Config {
	return Config{
		Interval: 1 * time.Hour,
		MaxAge:   30 * 24 * time.Hour,
	}
}

// Scheduler runs retention sweeps on a ticker until stopped. Uses the
// ticker + done channel pattern for graceful shutdown.
type Scheduler struct {
	cleaner Cleaner
	config  Config
	done    chan struct{}
	mu      sync.Mutex
	running bool
}

func NewScheduler(cleaner Cleaner, config Config) *Scheduler {
	return &Scheduler{
		cleaner: cleaner,
		config:  config,
		done:    make(chan struct{}),
	}
}

// Start begins the background sweep goroutine. Returns an error if the
// scheduler is already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true
	s.done = make(chan struct{}) // reset for potential restart
	s.mu.Unlock()

	slog.Info("Retention scheduler starting",
		"interval", s.config.Interval.String(),
		"max_age", s.config.MaxAge.String(),
	)

	go s.runLoop(ctx)
	return nil
}

// Stop signals the scheduler to stop. Safe to call multiple times.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	slog.Info("Retention scheduler stopping")
	close(s.done)
	s.running = false
	return nil
}

// RunNow triggers an immediate sweep, outside the ticker cadence.
func (s *Scheduler) RunNow() (int, error) {
	return s.cleaner.CleanupOldSessions(s.config.MaxAge)
}

func (s *Scheduler) runLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Run an initial sweep immediately on start
	s.executeSweep()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Retention scheduler stopped (context cancelled)")
			return
		case <-s.done:
			slog.Info("Retention scheduler stopped (stop requested)")
			return
		case <-ticker.C:
			s.executeSweep()
		}
	}
}

func (s *Scheduler) executeSweep() {
	removed, err := s.cleaner.CleanupOldSessions(s.config.MaxAge)
	if err != nil {
		slog.Error("Retention sweep failed", "error", err)
		return
	}
	if removed > 0 {
		slog.Info("Retention sweep complete", "sessions_removed", removed)
	}
}
