// Package server provides the HTTP REST API for the storefront builder.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mateo/storefront-builder/internal/build"
	"github.com/mateo/storefront-builder/internal/cache"
	"github.com/mateo/storefront-builder/internal/config"
	"github.com/mateo/storefront-builder/internal/db"
	"github.com/mateo/storefront-builder/internal/facts"
	"github.com/mateo/storefront-builder/internal/llm"
	"github.com/mateo/storefront-builder/internal/notify"
	"github.com/mateo/storefront-builder/internal/server/ratelimit"
)

// TenantDirectory is the tenant CRUD surface the handlers call directly,
// outside the fact and build services.
type TenantDirectory interface {
	CreateTenant(ctx context.Context, name string) (uuid.UUID, error)
	GetTenant(ctx context.Context, tenantID uuid.UUID) (*db.Tenant, error)
	ListSections(ctx context.Context, tenantID uuid.UUID, pageName string) ([]db.SiteSection, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	db          *db.DB
	llmClient   llm.Client
	directory   TenantDirectory
	facts       *facts.Service
	builds      *build.Orchestrator
	rateLimiter *ratelimit.Limiter
	validator   *validator.Validate
}

// sectionWriter adapts the database's upsert to the orchestrator's writer
// interface.
type sectionWriter struct {
	db *db.DB
}

func (w sectionWriter) AddSection(ctx context.Context, tenantID uuid.UUID, pageName, sectionType string, content []byte, position int) error {
	return w.db.UpsertSection(ctx, tenantID, pageName, sectionType, content, position)
}

// New creates a fully wired server instance.
func New(cfg *config.Config) (*Server, error) {
	ctx := context.Background()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	llmClient, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create generation client: %w", err)
	}

	summary := cache.New(cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
	notifier := notify.LogNotifier{}

	buildCfg := build.DefaultConfig()
	buildCfg.SectionTimeout = cfg.SectionTimeout
	buildCfg.PipelineTimeout = cfg.PipelineTimeout
	buildCfg.StuckThreshold = cfg.StuckThreshold
	buildCfg.MaxRetries = cfg.MaxBuildRetries
	buildCfg.MaxConcurrent = cfg.MaxConcurrentBuilds

	s := newServer(
		database,
		facts.NewService(database, notifier, summary),
		build.New(database, sectionWriter{db: database}, llmClient, notifier, summary, buildCfg),
	)
	s.db = database
	s.llmClient = llmClient
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(s.routes()))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// newServer wires the handler layer only. Tests use it with in-memory
// implementations behind the services.
func newServer(directory TenantDirectory, factService *facts.Service, orchestrator *build.Orchestrator) *Server {
	return &Server{
		directory: directory,
		facts:     factService,
		builds:    orchestrator,
		validator: validator.New(),
	}
}

// routes builds the request router.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	// Tenant endpoints
	mux.HandleFunc("POST /tenants", s.handleCreateTenant)
	mux.HandleFunc("GET /tenants/{id}", s.handleGetTenant)

	// Discovery fact endpoints
	mux.HandleFunc("POST /tenants/{id}/facts", s.handleStoreFact)
	mux.HandleFunc("GET /tenants/{id}/facts", s.handleGetFacts)
	mux.HandleFunc("GET /tenants/{id}/summary", s.handleGetSummary)

	// Build endpoints
	mux.HandleFunc("POST /tenants/{id}/build", s.handleTriggerBuild)
	mux.HandleFunc("GET /tenants/{id}/build", s.handleGetBuildStatus)
	mux.HandleFunc("POST /tenants/{id}/build/retry", s.handleRetryBuild)
	mux.HandleFunc("GET /tenants/{id}/sections", s.handleListSections)

	return mux
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.llmClient != nil {
		if err := s.llmClient.Close(); err != nil {
			log.Printf("Error closing generation client: %v", err)
		}
	}
	if s.db != nil {
		s.db.Close()
	}
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Idempotency-Key")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging logs each request with its duration
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// withRateLimit applies the per-client limiter before routing.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientIP(r), r.URL.Path, r.Method)
		if !allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())+1))
			s.errorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the caller's address, preferring the forwarding header
// set by the edge proxy.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}

// handleHealth returns service health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// tenantID parses the {id} path segment.
func tenantID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue("id"))
}
