// Package dashboard serves the landing prediction page and its JSON API.
// It exposes the prediction form, the historical launch dashboard with
// websocket-driven slicers, the latest API snapshot and Prometheus metrics.
package dashboard

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"falcon-dash/internal/launches"
	"falcon-dash/internal/ml"
	"falcon-dash/internal/storage"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// ModelSource exposes the loaded artifacts for inspection.
type ModelSource interface {
	Get() (*ml.Artifacts, error)
}

// PredictionLog persists served predictions.
type PredictionLog interface {
	StorePrediction(storage.PredictionRecord) error
	RecentPredictions(limit int) ([]storage.PredictionRecord, error)
}

// MetricsInterface defines the metrics the dashboard reports.
type MetricsInterface interface {
	HTTPRequestInc(route string, code int)
	WSClientsAdd(delta float64)
	DashboardQueriesInc()
}

// Config wires the dashboard to its collaborators. Models, Predictions,
// Metrics and Gatherer are optional.
type Config struct {
	Port        int
	DataPath    string // directory of the launch snapshot database
	Predictor   ml.PredictorInterface
	Models      ModelSource
	Dataset     *launches.Dataset
	Predictions PredictionLog
	Metrics     MetricsInterface
	Gatherer    prometheus.Gatherer
}

// Server is the dashboard HTTP server.
type Server struct {
	cfg       Config
	router    *mux.Router
	server    *http.Server
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	isRunning bool
	mu        sync.Mutex
}

// New creates a dashboard with its routes registered.
func New(cfg Config) *Server {
	if cfg.Dataset == nil {
		cfg.Dataset = launches.NewDataset(nil)
	}

	s := &Server{
		cfg:      cfg,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  make(map[*websocket.Conn]bool),
	}

	metricsHandler := promhttp.Handler()
	if cfg.Gatherer != nil {
		metricsHandler = promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})
	}

	r := mux.NewRouter()
	r.Use(s.instrument)
	r.HandleFunc("/", s.handlePage).Methods("GET")
	r.HandleFunc("/api/options", s.handleOptions).Methods("GET")
	r.HandleFunc("/api/predict", s.handlePredict).Methods("POST")
	r.HandleFunc("/api/predictions", s.handlePredictions).Methods("GET")
	r.HandleFunc("/api/model", s.handleModel).Methods("GET")
	r.HandleFunc("/api/dashboard", s.handleDashboard).Methods("GET")
	r.HandleFunc("/api/snapshot", s.handleSnapshot).Methods("GET")
	r.HandleFunc("/ws", s.handleWebSocket).Methods("GET")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.Handle("/metrics", metricsHandler).Methods("GET")
	s.router = r

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the routed handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts serving in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("dashboard is already running")
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}

	go func() {
		log.Info().
			Str("address", s.server.Addr).
			Msg("Starting dashboard server")

		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Dashboard server failed")
		}
	}()

	s.isRunning = true
	return nil
}

// Stop closes websocket clients and shuts the server down gracefully.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.clientsMu.Lock()
	for client := range s.clients {
		client.Close()
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.WSClientsAdd(-float64(len(s.clients)))
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown dashboard server")
		return err
	}

	s.isRunning = false
	log.Info().Msg("Dashboard stopped")
	return nil
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}

// statusRecorder captures the response code for request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if s.cfg.Metrics == nil {
			return
		}
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		s.cfg.Metrics.HTTPRequestInc(route, rec.status)
	})
}
