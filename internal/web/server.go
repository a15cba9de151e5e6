package web

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/distress-leads/internal/matcher"
	"github.com/distress-leads/internal/store"
	"github.com/distress-leads/internal/web/handlers"
	"github.com/distress-leads/internal/web/middleware"
)

// Config holds HTTP server settings.
type Config struct {
	Host string
	Port int
}

// Server is the read-only inspection API over the property store and
// ledger: operators use it to check sync freshness and preview matches
// before a lead run goes out.
type Server struct {
	config     Config
	db         *sql.DB
	httpServer *http.Server
	router     *mux.Router
}

// NewServer creates the inspection server. The matcher is wired over the
// Postgres store so previews use the same pg_trgm path as the pipeline.
func NewServer(config Config, db *sql.DB, thresholds matcher.Thresholds) *Server {
	s := &Server{config: config, db: db}

	propertyStore := store.NewPostgresStore(db)
	s.router = mux.NewRouter()

	apiHandler := &handlers.APIHandler{DB: db}
	searchHandler := &handlers.SearchHandler{
		Matcher: matcher.New(propertyStore, nil, thresholds),
	}
	propertyHandler := &handlers.PropertyHandler{Store: propertyStore}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", apiHandler.Health).Methods("GET")
	api.HandleFunc("/stats", apiHandler.GetStats).Methods("GET")
	api.HandleFunc("/match", searchHandler.MatchPreview).Methods("GET")
	api.HandleFunc("/properties/{titleNumber:[A-Z]{1,4}[0-9]+}", propertyHandler.GetProperty).Methods("GET")

	s.router.Use(middleware.RequestLogging())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		fmt.Printf("Starting server on http://%s\n", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Server error: %v\n", err)
		}
	}()

	<-stop
	fmt.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		fmt.Printf("Server shutdown error: %v\n", err)
	}
	return nil
}
