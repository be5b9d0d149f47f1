// Copyright (C) 2025 Pathwise AI (dev@pathwise.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package orchestrator provides the core service for Pathwise.
//
// The orchestrator coordinates all components of the study assistant:
// request classification, the agent pipelines, the session service and
// its Badger-backed memory store, the tool set, HTTP routing, and the
// observability infrastructure.
//
// # Usage
//
//	cfg := orchestrator.Config{Port: 12310}
//	svc, err := orchestrator.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/pathwise-ai/pathwise/services/agents"
	"github.com/pathwise-ai/pathwise/services/llm"
	"github.com/pathwise-ai/pathwise/services/memory"
	"github.com/pathwise-ai/pathwise/services/orchestrator/observability"
	"github.com/pathwise-ai/pathwise/services/orchestrator/retention"
	"github.com/pathwise-ai/pathwise/services/orchestrator/routes"
	"github.com/pathwise-ai/pathwise/services/session"
	"github.com/pathwise-ai/pathwise/services/tools"
)

// Service defines the contract for the orchestrator service. Run()
// blocks and should only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing. Callers
	// must not modify routes after construction.
	Router() *gin.Engine
}

// Config holds orchestrator configuration. All fields are optional;
// defaults are applied by New().
type Config struct {
	// Port is the HTTP server port. Default: 12310
	Port int

	// LLMBackend selects the generative backend.
	// Valid values: "openai", "local", "none". Default: "openai".
	// A backend that fails to initialize leaves the service in
	// degraded mode rather than failing startup.
	LLMBackend string

	// DataDir is the directory for the Badger memory store.
	// Default: "./data/pathwise"
	DataDir string

	// InMemoryStore disables disk persistence. Useful for testing.
	InMemoryStore bool

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "pathwise-otel-collector:4317"
	OTelEndpoint string

	// EnableMetrics enables the Prometheus /metrics endpoint.
	// Default: true
	EnableMetrics bool

	// GinMode sets the Gin framework mode ("debug", "release",
	// "test"). Default: uses GIN_MODE env var or "debug".
	GinMode string

	// RetentionInterval is how often the retention sweep runs.
	// Default: 1 hour
	RetentionInterval time.Duration

	// RetentionMaxAge is how long closed sessions are kept after
	// their last access. Default: 30 days
	RetentionMaxAge time.Duration

	// Timeouts bounds each class of external call made by the
	// pipelines. Zero fields use DefaultEngineTimeouts().
	Timeouts EngineTimeouts
}

// service implements Service for production use. Thread-safe after
// construction; all fields are read-only after New() returns.
type service struct {
	config        Config
	router        *gin.Engine
	engine        *Engine
	store         memory.Store
	llmClient     llm.LLMClient
	scheduler     *retention.Scheduler
	tracerCleanup func(context.Context)
}

// New creates a new orchestrator Service with the given configuration.
//
// Initialization order: defaults, tracing, metrics, memory store,
// session service, LLM client, agents and tools, engine, retention
// scheduler, routes. An LLM backend that cannot initialize is replaced
// by an unconfigured client so the deterministic pipelines keep
// working.
func New(cfg Config) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	var prom *observability.Metrics
	if s.config.EnableMetrics {
		prom = observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics")
	}
	collector := observability.NewCollector(prom)

	s.store, err = memory.Open(memory.Config{
		Path:     s.config.DataDir,
		InMemory: s.config.InMemoryStore,
	})
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to open memory store: %w", err)
	}

	sessions := session.NewService(s.store, collector)

	s.initLLMClient()

	assistant := agents.NewAssistantAgent(s.llmClient, collector)
	planner := agents.NewPlanningAgent(collector)
	loop := agents.NewLoopAgent(collector)

	studyPlanner := tools.NewStudyPlanner()
	search := tools.NewSearchClient()
	evaluator := tools.NewCodeEvaluator()

	s.engine = NewEngine(sessions, assistant, planner, loop,
		studyPlanner, search, evaluator, collector, s.config.Timeouts)

	s.scheduler = retention.NewScheduler(sessions, retention.Config{
		Interval: s.config.RetentionInterval,
		MaxAge:   s.config.RetentionMaxAge,
	})
	if err := s.scheduler.Start(context.Background()); err != nil {
		slog.Warn("Retention scheduler failed to start", "error", err)
	}

	s.initRouter()

	return s, nil
}

// Run starts the HTTP server and blocks until shutdown or error.
// Cleanup is automatic on return.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting orchestrator server", "port", s.config.Port)

	return s.router.Run(addr)
}

func (s *service) Router() *gin.Engine {
	return s.router
}

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12310
	}
	if cfg.LLMBackend == "" {
		cfg.LLMBackend = "openai"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data/pathwise"
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "pathwise-otel-collector:4317"
	}
	cfg.EnableMetrics = true

	if cfg.RetentionInterval == 0 {
		cfg.RetentionInterval = 1 * time.Hour
	}
	if cfg.RetentionMaxAge == 0 {
		cfg.RetentionMaxAge = 30 * 24 * time.Hour
	}

	return cfg
}

// initTracer sets up the OTLP trace exporter. Uses an insecure gRPC
// connection, appropriate for internal networks.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("pathwise-orchestrator")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initLLMClient selects the generative backend. A misconfigured
// backend degrades to an unconfigured client instead of failing
// startup; the deterministic pipelines stay available.
func (s *service) initLLMClient() {
	var err error

	switch s.config.LLMBackend {
	case "openai":
		s.llmClient, err = llm.NewOpenAIClient()
		if err == nil {
			slog.Info("Using OpenAI LLM backend")
		}
	case "local":
		s.llmClient, err = llm.NewLocalClient()
		if err == nil {
			slog.Info("Using local LLM backend")
		}
	case "none":
		err = errors.New("LLM backend disabled by configuration")
	default:
		slog.Warn("Unknown LLM backend, trying OpenAI", "backend", s.config.LLMBackend)
		s.llmClient, err = llm.NewOpenAIClient()
	}

	if err != nil {
		slog.Warn("LLM backend unavailable, running in degraded mode", "error", err)
		s.llmClient = llm.NewUnconfiguredClient(err.Error())
	}
}

// initRouter sets up the Gin HTTP router with all routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}

	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("pathwise-orchestrator"))

	routes.SetupRoutes(s.router, s.engine, s.engine.Sessions(), s.engine.Metrics(), s.config.EnableMetrics)
}

// cleanup releases all resources held by the service.
func (s *service) cleanup() {
	if s.scheduler != nil {
		if err := s.scheduler.Stop(); err != nil {
			slog.Warn("Retention scheduler stop error", "error", err)
		}
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Warn("Memory store close error", "error", err)
		}
	}

	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

var _ Service = (*service)(nil)
