// Package server provides the HTTP server for the handsign recognition system.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/handsign/internal/classifier"
	"github.com/ayusman/handsign/internal/inference"
	"github.com/ayusman/handsign/internal/server/api"
	"github.com/ayusman/handsign/internal/store"
	"github.com/ayusman/handsign/internal/vocab"
)

// Config holds the server configuration. Routes whose dependencies are nil
// are not registered.
type Config struct {
	StaticDir  string
	Store      *store.Store
	Vocabulary *vocab.Vocabulary
	Engine     *inference.Engine
	Model      *classifier.Metadata
	Decisions  *DecisionHub
	Frames     *FrameBuffer
	Logger     logrus.FieldLogger
}

// Server represents the HTTP server for the handsign application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	log    logrus.FieldLogger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		config.Logger = l
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		log:    config.Logger.WithField("component", "server"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Vocabulary != nil {
		s.mux.Handle("/api/signs", api.NewSignsHandler(s.config.Store, s.config.Vocabulary))

		if s.config.Store != nil {
			dataset := api.NewDatasetHandler(s.config.Store, s.config.Vocabulary)
			s.mux.Handle("/api/dataset", dataset)
			s.mux.Handle("/api/dataset/", dataset)
		}
	}

	if s.config.Model != nil {
		s.mux.Handle("/api/model/info", api.NewModelHandler(s.config.Model))
	}

	if s.config.Engine != nil {
		s.mux.Handle("/api/predict", api.NewPredictHandler(s.config.Engine))
	}

	if s.config.Decisions != nil {
		s.mux.Handle("/api/decisions", s.config.Decisions)
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", s.config.Frames)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
		"model":  s.config.Model != nil,
	}
	if s.config.Decisions != nil {
		response["subscribers"] = s.config.Decisions.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		// Long-lived streams end with ctx instead of holding up Shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
