// Package server provides the HTTP REST API consumed by the browser
// extension popup.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jordan/resume-tailor/internal/archive"
	"github.com/jordan/resume-tailor/internal/pipeline"
	"github.com/jordan/resume-tailor/internal/templates"
)

// Runner executes one pipeline run. Satisfied by *pipeline.Orchestrator.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) pipeline.Result
}

// Config holds server configuration.
type Config struct {
	Port         int
	ArtifactsDir string
	// UseBrowser enables the headless browser fallback when the extension
	// sends a URL without HTML and the server fetches the page itself.
	UseBrowser bool
}

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	runner     Runner
	store      archive.Store
	catalog    *templates.Catalog
	cfg        Config
	validate   *validator.Validate

	mu      sync.Mutex
	lastRun *runSnapshot
}

// runSnapshot is what GET /api/status reports about the most recent run.
type runSnapshot struct {
	URL        string    `json:"url"`
	Success    bool      `json:"success"`
	Artifacts  []string  `json:"artifacts,omitempty"`
	Errors     []string  `json:"errors,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// New creates a server instance around an already wired pipeline.
func New(cfg Config, runner Runner, store archive.Store, catalog *templates.Catalog) *Server {
	s := &Server{
		runner:   runner,
		store:    store,
		catalog:  catalog,
		cfg:      cfg,
		validate: validator.New(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/scrape", s.handleScrape)
	mux.HandleFunc("POST /api/mark-applied", s.handleMarkApplied)
	mux.HandleFunc("GET /api/list-resumes", s.handleListResumes)
	mux.HandleFunc("GET /api/download-artifact/{name}", s.handleDownloadArtifact)
	mux.HandleFunc("DELETE /api/clear", s.handleClear)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/jobs/count", s.handleJobsCount)
	mux.HandleFunc("GET /api/status", s.handleStatus)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(s.withCORS(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // extraction plus two compiles can take a while
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the configured routes, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening and blocks until SIGINT/SIGTERM, then shuts down
// gracefully.
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

	s.store.Close()
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers so the extension popup can call the API.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) recordRun(url string, result pipeline.Result) {
	snapshot := &runSnapshot{
		URL:        url,
		Success:    result.Success,
		Artifacts:  result.Artifacts,
		FinishedAt: time.Now(),
	}
	for _, stageErr := range result.Errors {
		snapshot.Errors = append(snapshot.Errors, stageErr.Error())
	}
	s.mu.Lock()
	s.lastRun = snapshot
	s.mu.Unlock()
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
