// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/pathwise-ai/pathwise/pkg/logging"
	"github.com/pathwise-ai/pathwise/services/orchestrator"
)

func main() {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		Service: "orchestrator",
		LogDir:  os.Getenv("PATHWISE_LOG_DIR"),
		JSON:    true,
	})
	defer logger.Close()
	logger.SetAsDefault()

	cfg := orchestrator.Config{
		Port:              getEnvInt("PATHWISE_PORT", 0),
		LLMBackend:        os.Getenv("LLM_BACKEND_TYPE"),
		DataDir:           os.Getenv("PATHWISE_DATA_DIR"),
		OTelEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		GinMode:           os.Getenv("GIN_MODE"),
		RetentionInterval: getEnvDuration("PATHWISE_RETENTION_INTERVAL", 0),
		RetentionMaxAge:   getEnvDuration("PATHWISE_RETENTION_MAX_AGE", 0),
	}

	svc, err := orchestrator.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize orchestrator: %v", err)
	}

	if err := svc.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using default", key, raw)
		return fallback
	}
	return value
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using default", key, raw)
		return fallback
	}
	return value
}
