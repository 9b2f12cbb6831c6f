package main

import (
	"code-lab/ai"
	"code-lab/docsync"
	"code-lab/domain"
	"code-lab/executor"
	"code-lab/infrastructure/server"
	"code-lab/infrastructure/ws"
	"code-lab/internal"
	"code-lab/repositories"
	"code-lab/runtime"
	"code-lab/runtime/workers"
	"code-lab/services"
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownTimeout = 10 * time.Second

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and owns their lifecycle, deferred cleanups
// all run before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	policy, _ := config.Policy()
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Toolchains, checked once before serving
	monitor := workers.NewProcessMonitor(log, config.MetricInterval)
	runner := executor.New(log, config.WorkDir,
		executor.WithTimeouts(config.CompileTimeout, config.RunTimeout),
		executor.WithMaxOutput(config.MaxOutputBytes),
		executor.WithTracker(monitor),
	)
	if err := runner.CheckEnvironment(); err != nil {
		return exitRuntime, fmt.Errorf("execution environment: %w", err)
	}

	// 3. Diagnostics
	corpus, err := ai.LoadCorpus(log, config.CorpusPath)
	if err != nil {
		return exitConfig, fmt.Errorf("example corpus: %w", err)
	}
	var generator ai.Generator = ai.Unavailable{Reason: "GEMINI_API_KEY is not set"}
	if config.GeminiAPIKey != "" {
		if generator, err = ai.NewGeminiGenerator(ctx, config.GeminiAPIKey, config.GeminiModel); err != nil {
			return exitConfig, fmt.Errorf("diagnostic collaborator: %w", err)
		}
	} else {
		log.Warn("No GEMINI_API_KEY, failures will not be explained")
	}
	breaker := ai.NewBreakerGenerator(log, generator, uint32(config.BreakerFailures), config.BreakerCooldown)
	explainer := ai.NewExplainer(log, corpus, breaker, config.DiagnosticTimeout)

	// 4. Document update log, in memory only
	db, err := repositories.OpenInMemory()
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()
	updates := repositories.NewUpdateRepository(db, log)

	// 5. Registry, supervision & orchestration
	registry := runtime.NewRegistry(log, func(room domain.RoomID) *docsync.Document {
		return docsync.NewDocument(log, room, updates)
	})
	supervisor := workers.NewSupervisor(log, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(log, supervisor, registry, runner, runtime.OrchestratorConfig{
		FanoutWorkers:    config.FanoutWorkers,
		ExecutionWorkers: config.ExecutionWorkers,
		BufferSize:       config.BufferSize,
		QueueSize:        config.ExecutionQueue,
		SinkTimeout:      config.SinkTimeout,
	})
	capacity := workers.NewChannelCapacityWorker(log, orchestrator.Channels(), config.MetricInterval)
	orchestrator.Add(monitor, capacity)

	// 6. Services & transport
	rooms := services.NewRoomService(log, registry, orchestrator)
	executions := services.NewExecutionService(log, orchestrator, explainer, orchestrator, policy)
	validate := validator.New()
	wsOpts := ws.DefaultOptions()
	wsOpts.BufferSize = config.ConnectionBufferSize
	wsOpts.DeliveryTimeout = config.SinkTimeout

	stats := server.NewStatsCollector(registry, orchestrator, monitor, capacity, supervisor, breaker)
	srv := server.New(log, executions,
		ws.NewControlHandler(log, rooms, validate, wsOpts),
		ws.NewSyncHandler(log, registry, wsOpts),
		stats, validate,
		server.Config{MaxCodeLength: config.MaxCodeLength, StaticDir: config.StaticDir},
	)
	httpServer := &http.Server{
		Addr:              config.Address(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 7. Start the engine, then serve
	engineCtx, cancelEngine := context.WithCancel(ctx)
	defer cancelEngine()
	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		orchestrator.Start(engineCtx)
	}()

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", httpServer.Addr, "corpus_examples", corpus.Len(),
			"policy", policy)
		if err := httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	code, runErr := exitOK, error(nil)
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case runErr = <-errChan:
		code = exitRuntime
	}

	// 9. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown incomplete", "error", err)
	}
	orchestrator.Stop()
	cancelEngine()
	<-engineDone
	log.Info("Program stopped cleanly")
	return code, runErr
}
