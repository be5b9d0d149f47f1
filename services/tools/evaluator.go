// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pathwise-ai/pathwise/services/orchestrator/datatypes"
)

// denylist patterns checked before any execution. A match rejects the
// code outright: OS/process/subprocess imports, dynamic evaluation,
// file I/O, scope introspection, and any dunder identifier.
var unsafePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bimport\s+os\b`),
	regexp.MustCompile(`(?i)\bimport\s+sys\b`),
	regexp.MustCompile(`(?i)\bimport\s+subprocess\b`),
	regexp.MustCompile(`(?i)\b__import__\b`),
	regexp.MustCompile(`(?i)\beval\b`),
	regexp.MustCompile(`(?i)\bexec\b`),
	regexp.MustCompile(`(?i)\bopen\b`),
	regexp.MustCompile(`(?i)\bfile\b`),
	regexp.MustCompile(`(?i)\bcompile\b`),
	regexp.MustCompile(`(?i)\bglobals\b`),
	regexp.MustCompile(`(?i)\blocals\b`),
	regexp.MustCompile(`(?i)\b__\w+__\b`),
}

// CodeEvaluator runs small Python snippets for calculations and
// educational examples. Code is screened against the denylist first,
// then executed in an isolated interpreter subprocess under a
// wall-clock cap. This is a guardrail for accidents, not a jail.
type CodeEvaluator struct {
	pythonPath string
	timeout    time.Duration
}

func NewCodeEvaluator() *CodeEvaluator {
	return &CodeEvaluator{
		pythonPath: "python3",
		timeout:    5 * time.Second,
	}
}

// NewCodeEvaluatorWithInterpreter overrides the interpreter binary and
// execution cap. Used by tests.
func NewCodeEvaluatorWithInterpreter(pythonPath string, timeout time.Duration) *CodeEvaluator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CodeEvaluator{pythonPath: pythonPath, timeout: timeout}
}

// Run screens and executes a code snippet, capturing standard output
// and standard error. Denylisted code is rejected without execution.
func (e *CodeEvaluator) Run(ctx context.Context, code string) *datatypes.ExecResult {
	if !isSafeCode(code) {
		slog.Warn("Rejected code with unsafe operations")
		return &datatypes.ExecResult{
			Success: false,
			Error:   "Code contains potentially unsafe operations",
			Code:    code,
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	// -I runs the interpreter isolated from the user environment and
	// site-packages.
	cmd := exec.CommandContext(runCtx, e.pythonPath, "-I", "-c", code)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return &datatypes.ExecResult{
			Success: false,
			Output:  stdout.String(),
			Error:   fmt.Sprintf("execution exceeded %s time limit", e.timeout),
			Code:    code,
		}
	}
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return &datatypes.ExecResult{
			Success: false,
			Output:  stdout.String(),
			Error:   detail,
			Code:    code,
		}
	}

	result := &datatypes.ExecResult{
		Success: true,
		Output:  stdout.String(),
		Code:    code,
	}
	if warnings := strings.TrimSpace(stderr.String()); warnings != "" {
		result.Error = warnings
	}
	return result
}

// ExecuteMath wraps a bare expression in a print and parses the numeric
// result into Value.
func (e *CodeEvaluator) ExecuteMath(ctx context.Context, expression string) *datatypes.ExecResult {
	code := "result = " + expression + "\nprint(result)"
	result := e.Run(ctx, code)
	if result.Success {
		if value, err := strconv.ParseFloat(strings.TrimSpace(result.Output), 64); err == nil {
			result.Value = &value
		}
	}
	return result
}

func isSafeCode(code string) bool {
	for _, pattern := range unsafePatterns {
		if pattern.MatchString(code) {
			return false
		}
	}
	return true
}
