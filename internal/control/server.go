// internal/control/server.go

// Package control exposes the engine's command protocol over HTTP: a JSON
// command endpoint, a status endpoint, and a websocket status stream.
package control

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/drover/api/schemas"
	"github.com/xkilldash9x/drover/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	readHeaderTimeout = 5 * time.Second
	shutdownGrace     = 10 * time.Second
	// maxCommandBytes bounds a single command payload.
	maxCommandBytes = 1 << 20
)

// CommandHandler is the engine-side entry point for control commands.
type CommandHandler interface {
	Handle(ctx context.Context, cmd schemas.Command) schemas.Response
	Status() schemas.StatusData
}

// Server is the HTTP control surface.
type Server struct {
	cfg     config.ControlConfig
	handler CommandHandler
	logger  *zap.Logger
	limiter *rate.Limiter

	srv *http.Server
}

// New creates a control server bound to the engine handler.
func New(cfg config.ControlConfig, handler CommandHandler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger.Named("control"),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}

	r := mux.NewRouter()
	r.Use(s.rateLimitMiddleware)
	r.HandleFunc("/api/command", s.handleCommand).Methods(http.MethodPost)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/events", s.handleEvents).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Control server listening", zap.String("addr", s.cfg.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("Control server shutdown error", zap.Error(err))
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// rateLimitMiddleware rejects requests beyond the configured rate with 429.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.writeResponse(w, http.StatusTooManyRequests, schemas.Fail("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleCommand decodes one command and dispatches it to the engine. Command
// failures stay inside the response envelope; only transport problems map to
// HTTP error codes.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd schemas.Command
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBytes))
	if err := dec.Decode(&cmd); err != nil {
		s.writeResponse(w, http.StatusBadRequest, schemas.Fail("decoding command: %v", err))
		return
	}

	resp := s.handler.Handle(r.Context(), cmd)
	s.logger.Debug("Command handled",
		zap.String("type", string(cmd.Type)),
		zap.Bool("success", resp.Success))
	s.writeResponse(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeResponse(w, http.StatusOK, schemas.OK(s.handler.Status()))
}

func (s *Server) writeResponse(w http.ResponseWriter, code int, resp schemas.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("Writing response failed", zap.Error(err))
	}
}
