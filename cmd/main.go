package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"faasrhub/clients"
	githubclient "faasrhub/clients/github"
	identityclient "faasrhub/clients/identity"
	"faasrhub/config"
	"faasrhub/handlers"
	"faasrhub/metrics"
	"faasrhub/middleware"
	"faasrhub/services/forks"
	"faasrhub/services/sessions"
	"faasrhub/services/workflows"
)

func main() {
	if err := run(); err != nil {
		log.Printf("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Initialize error alert middleware
	alertMiddleware := middleware.NewErrorAlertMiddleware(middleware.SlackAlertConfig{
		WebhookURL:  cfg.SlackConfig.AlertWebhookURL,
		Environment: cfg.Environment,
		AppName:     "faasrhub",
	})

	// Metrics live on a dedicated registry so tests and the default registry
	// never interfere with each other.
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	var githubClient clients.GitHubClient
	if cfg.GitHubConfig.IsConfigured() {
		githubClient, err = githubclient.NewClient(cfg.GitHubConfig.AppID, cfg.GitHubConfig.AppPrivateKey)
		if err != nil {
			return fmt.Errorf("failed to initialize GitHub client: %w", err)
		}
	}

	var identityClient clients.IdentityClient
	if cfg.IdentityConfig.IsConfigured() {
		identityClient = identityclient.NewClient(cfg.IdentityConfig.BaseURL, cfg.IdentityConfig.AnonKey)
	}

	// An optional JSON schema tightens upload validation beyond well-formedness.
	var schema *jsonschema.Schema
	if cfg.RegistryConfig.SchemaFile != "" {
		raw, err := os.ReadFile(cfg.RegistryConfig.SchemaFile)
		if err != nil {
			return fmt.Errorf("failed to read workflow schema file: %w", err)
		}
		schema, err = workflows.CompileSchema(raw)
		if err != nil {
			return fmt.Errorf("failed to compile workflow schema: %w", err)
		}
		log.Printf("✅ Workflow schema loaded from %s", cfg.RegistryConfig.SchemaFile)
	}

	sessionsService := sessions.NewSessionsService(cfg.SessionConfig.SigningSecret, cfg.SessionConfig.TTL)
	forksService := forks.NewForksService(
		githubClient,
		collector,
		cfg.RegistryConfig.TemplateOwner,
		cfg.RegistryConfig.TemplateRepo,
		cfg.RegistryConfig.ForkPollAttempts,
		cfg.RegistryConfig.ForkPollDelay,
	)
	workflowsService := workflows.NewWorkflowsService(
		githubClient,
		collector,
		cfg.RegistryConfig.TemplateRepo,
		cfg.RegistryConfig.RegistrationWorkflow,
		schema,
	)

	authMiddleware := middleware.NewSessionAuthMiddleware(sessionsService, identityClient)
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer rateLimiter.Stop()

	authHandler := handlers.NewAuthHTTPHandler(cfg, githubClient, sessionsService, forksService)
	workflowsHandler := handlers.NewWorkflowsHTTPHandler(workflowsService, forksService)

	// Create a new router
	router := mux.NewRouter()

	// Request metrics run inside the router so the matched route template is
	// available as a label.
	router.Use(collector.HTTPMiddleware)

	// Setup endpoints with the new router
	authHandler.SetupEndpoints(router, authMiddleware, rateLimiter)
	workflowsHandler.SetupEndpoints(router, authMiddleware, rateLimiter)

	// Health check endpoint
	router.HandleFunc("/health", handlers.HandleHealth).Methods("GET")

	// Prometheus scrape endpoint
	router.Handle("/metrics", metrics.Handler(registry)).Methods("GET")

	// Setup CORS middleware
	allowedOrigins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Setup and handle graceful shutdown
	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: middleware.RequestIDMiddleware(
			alertMiddleware.HTTPMiddleware(c.Handler(router)),
		),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server)
}

func handleGracefulShutdown(server *http.Server) error {
	// Channel to listen for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Listening on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-stop
	log.Printf("🛑 Shutdown signal received, cleaning up...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown server gracefully
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
		return err
	}

	log.Printf("✅ Server stopped gracefully")
	return nil
}
