// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package retention

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Doubles
// =============================================================================

// countingCleaner records sweep invocations and their max-age argument.
type countingCleaner struct {
	mu      sync.Mutex
	calls   int
	maxAges []time.Duration
	removed int
	err     error
}

func (c *countingCleaner) CleanupOldSessions(maxAge time.Duration) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.maxAges = append(c.maxAges, maxAge)
	return c.removed, c.err
}

func (c *countingCleaner) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// =============================================================================
// Config Tests
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, time.Hour, cfg.Interval)
	assert.Equal(t, 30*24*time.Hour, cfg.MaxAge)
}

// =============================================================================
// Scheduler Tests
// =============================================================================

// TestScheduler_StartRunsInitialSweep verifies a sweep fires immediately
// on start, before the first tick.
func TestScheduler_StartRunsInitialSweep(t *testing.T) {
	// Arrange - an interval far longer than the test
	cleaner := &countingCleaner{}
	scheduler := NewScheduler(cleaner, Config{Interval: time.Hour, MaxAge: time.Minute})

	// Act
	require.NoError(t, scheduler.Start(context.Background()))
	t.Cleanup(func() { _ = scheduler.Stop() })

	// Assert - poll for the initial sweep
	require.Eventually(t, func() bool { return cleaner.callCount() >= 1 },
		time.Second, 5*time.Millisecond, "initial sweep should run on start")
}

// TestScheduler_StartTwiceErrors verifies double-start is rejected.
func TestScheduler_StartTwiceErrors(t *testing.T) {
	// Arrange
	scheduler := NewScheduler(&countingCleaner{}, Config{Interval: time.Hour, MaxAge: time.Hour})
	require.NoError(t, scheduler.Start(context.Background()))
	t.Cleanup(func() { _ = scheduler.Stop() })

	// Act
	err := scheduler.Start(context.Background())

	// Assert
	assert.EqualError(t, err, "scheduler is already running")
}

// TestScheduler_TickerSweeps verifies sweeps repeat on the interval.
func TestScheduler_TickerSweeps(t *testing.T) {
	// Arrange
	cleaner := &countingCleaner{}
	scheduler := NewScheduler(cleaner, Config{Interval: 10 * time.Millisecond, MaxAge: time.Hour})

	// Act
	require.NoError(t, scheduler.Start(context.Background()))
	t.Cleanup(func() { _ = scheduler.Stop() })

	// Assert - initial sweep plus at least two ticks
	require.Eventually(t, func() bool { return cleaner.callCount() >= 3 },
		time.Second, 5*time.Millisecond)
}

// TestScheduler_StopHaltsSweeps verifies no sweeps run after Stop.
func TestScheduler_StopHaltsSweeps(t *testing.T) {
	// Arrange
	cleaner := &countingCleaner{}
	scheduler := NewScheduler(cleaner, Config{Interval: 10 * time.Millisecond, MaxAge: time.Hour})
	require.NoError(t, scheduler.Start(context.Background()))
	require.Eventually(t, func() bool { return cleaner.callCount() >= 1 },
		time.Second, 5*time.Millisecond)

	// Act
	require.NoError(t, scheduler.Stop())
	after := cleaner.callCount()
	time.Sleep(50 * time.Millisecond)

	// Assert - allow one in-flight sweep at most
	assert.LessOrEqual(t, cleaner.callCount(), after+1)

	// Stop is idempotent
	assert.NoError(t, scheduler.Stop())
}

// TestScheduler_ContextCancelHaltsSweeps verifies the loop honors its
// context.
func TestScheduler_ContextCancelHaltsSweeps(t *testing.T) {
	// Arrange
	cleaner := &countingCleaner{}
	scheduler := NewScheduler(cleaner, Config{Interval: 10 * time.Millisecond, MaxAge: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, scheduler.Start(ctx))

	// Act
	cancel()
	time.Sleep(30 * time.Millisecond)
	after := cleaner.callCount()
	time.Sleep(50 * time.Millisecond)

	// Assert
	assert.Equal(t, after, cleaner.callCount(), "no sweeps after context cancel")
}

// TestScheduler_RunNow verifies on-demand sweeps use the configured
// max age.
func TestScheduler_RunNow(t *testing.T) {
	// Arrange
	cleaner := &countingCleaner{removed: 7}
	scheduler := NewScheduler(cleaner, Config{Interval: time.Hour, MaxAge: 48 * time.Hour})

	// Act - no Start needed
	removed, err := scheduler.RunNow()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 7, removed)
	require.Len(t, cleaner.maxAges, 1)
	assert.Equal(t, 48*time.Hour, cleaner.maxAges[0])
}

// TestScheduler_RestartAfterStop verifies the done channel is reset so
// the scheduler can run again.
func TestScheduler_RestartAfterStop(t *testing.T) {
	// Arrange
	cleaner := &countingCleaner{}
	scheduler := NewScheduler(cleaner, Config{Interval: time.Hour, MaxAge: time.Hour})

	require.NoError(t, scheduler.Start(context.Background()))
	require.NoError(t, scheduler.Stop())

	// Act
	err := scheduler.Start(context.Background())
	t.Cleanup(func() { _ = scheduler.Stop() })

	// Assert
	require.NoError(t, err)
	require.Eventually(t, func() bool { return cleaner.callCount() >= 2 },
		time.Second, 5*time.Millisecond, "restarted scheduler should sweep again")
}
