package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/efdarkside/whatsapi/internal/dedup"
	"github.com/efdarkside/whatsapi/internal/model"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Normalizer turns a raw webhook body into an event, or signals a skip.
type Normalizer interface {
	Normalize(body []byte, now time.Time) (model.InboundEvent, bool)
}

// Dispatcher runs the relay pipeline for one event.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev model.InboundEvent) model.RelayResult
}

// ServerCfg is the configuration for the API server
type ServerCfg struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	VerifyToken  string
	MaxBodyBytes int64
}

// Server is the API server
type Server struct {
	cfg        ServerCfg
	normalizer Normalizer
	guard      dedup.Guard
	dispatcher Dispatcher
	log        *zap.Logger
	http       *http.Server
}

// NewServer creates a new API server
// and registers the routes
func NewServer(cfg ServerCfg, n Normalizer, g dedup.Guard, d Dispatcher, log *zap.Logger) *Server {
	r := mux.NewRouter()
	s := &Server{
		cfg:        cfg,
		normalizer: n,
		guard:      g,
		dispatcher: d,
		log:        log,
	}

	// health check
	r.HandleFunc("/healthz", s.healthz).Methods("GET")

	r.HandleFunc("/webhook", s.verifyWebhook).Methods("GET")
	r.HandleFunc("/webhook", s.relayWebhook).Methods("POST")

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Start starts the API server
func (s *Server) Start() error {
	s.log.Info("http server listening", zap.String("addr", s.http.Addr))
	return s.http.ListenAndServe()
}

// Shutdown shuts down the API server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
