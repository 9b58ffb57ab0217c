// Command server hosts the workflow engine: an HTTP surface for
// workflow CRUD and execute-trigger publication, plus a background
// worker draining the trigger-event stream into the runner. Grounded
// on the teacher's api/main.go wiring (pgxpool connect, mux router,
// CORS, signal-driven graceful shutdown), extended with the Redis
// queue worker and the zerolog/otel/prometheus ambient stack
// SPEC_FULL.md §6 adds.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"workflowengine/pkg/db"
	"workflowengine/pkg/observability"
	"workflowengine/pkg/queue"
	"workflowengine/services/api"
	"workflowengine/services/executor"
	"workflowengine/services/executors"
	"workflowengine/services/graph"
	"workflowengine/services/registry"
	"workflowengine/services/runner"
	"workflowengine/services/step"
	"workflowengine/services/storage"

	"github.com/google/uuid"
)

func main() {
	godotenv.Load()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbURL, ok := os.LookupEnv("DATABASE_URL")
	if !ok {
		log.Fatal().Msg("DATABASE_URL is not set")
	}
	redisURL, ok := os.LookupEnv("REDIS_URL")
	if !ok {
		redisURL = "redis://localhost:6379/0"
	}

	pool, err := db.Connect(ctx, db.DefaultConfig(dbURL))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure schema")
	}

	store, err := storage.NewPool(pool)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create storage instance")
	}

	redisClient, err := queue.Connect(ctx, queue.Config{URL: redisURL})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	tracerProvider := observability.NewTracerProvider()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := observability.Shutdown(shutdownCtx, tracerProvider); err != nil {
			log.Error().Err(err).Msg("failed to shut down tracer provider")
		}
	}()

	metrics := observability.NewMetrics(nil)
	statusSink := observability.LoggingSink{Logger: log.Logger}

	reg := registry.New()
	reg.Register(graph.NodeManualTrigger, executors.ManualTrigger{})
	if err := reg.Alias(graph.NodeInitial, graph.NodeManualTrigger); err != nil {
		log.Fatal().Err(err).Msg("failed to alias INITIAL to MANUAL_TRIGGER")
	}
	reg.Register(graph.NodeHTTPRequest, executors.NewHTTPRequest(nil))
	reg.Register(graph.NodeCondition, executors.Condition{})
	reg.Register(graph.NodeSetVariable, executors.SetVariable{})
	reg.Register(graph.NodeDelay, executors.Delay{})

	wfRunner := &runner.Runner{
		Storage:  store,
		Registry: reg,
		Status:   statusSink,
		NewStep: func(executionID uuid.UUID) executor.Step {
			inner := step.NewPostgres(pool, executionID)
			return observability.InstrumentedStep{Inner: inner, Metrics: metrics}
		},
	}

	worker := &queue.Worker{
		Client: redisClient,
		Runner: wfRunner,
		Config: queue.DefaultWorkerConfig("workflow-runner", hostname()),
		Logger: log.Logger,
	}
	go func() {
		if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("queue worker stopped unexpectedly")
		}
	}()

	mainRouter := mux.NewRouter()
	apiRouter := mainRouter.PathPrefix("/api/v1").Subrouter()

	apiService, err := api.NewService(store, redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create api service")
	}
	apiService.LoadRoutes(apiRouter)
	mainRouter.Handle("/metrics", promhttp.Handler())

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"http://localhost:3003"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-User-Id"}),
		handlers.AllowCredentials(),
	)(mainRouter)

	srv := &http.Server{
		Addr:    ":8080",
		Handler: corsHandler,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Msg("starting server on :8080")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		log.Error().Err(err).Msg("server error")

	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("could not stop server gracefully")
			srv.Close()
		}
	}
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "worker"
	}
	return h
}
