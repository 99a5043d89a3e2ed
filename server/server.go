// Package server exposes the assistant over HTTP: a server-sent-events chat
// endpoint plus health and metrics endpoints. The handler is a pure consumer
// of the run event stream; all orchestration decisions stay in the agent.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/docent"
	"github.com/hupe1980/docent/core"
	"github.com/hupe1980/docent/logging"
)

// Options configures the HTTP server.
type Options struct {
	// Addr is the listen address.
	Addr string
	// Logger receives request lifecycle messages.
	Logger logging.Logger
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// Server serves the chat API.
type Server struct {
	bot    *docent.Docent
	addr   string
	logger logging.Logger

	shutdownTimeout time.Duration
	httpSrv         *http.Server
}

// New builds a Server around the assistant.
func New(bot *docent.Docent, optFns ...func(o *Options)) *Server {
	opts := Options{
		Addr:            ":8080",
		Logger:          logging.NewNoOpLogger(),
		ShutdownTimeout: 10 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Server{
		bot:             bot,
		addr:            opts.Addr,
		logger:          opts.Logger,
		shutdownTimeout: opts.ShutdownTimeout,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/stream", s.handleChatStream)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// ListenAndServe blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	return s.httpSrv.Shutdown(shutdownCtx)
}

type chatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

type errorDetail struct {
	Detail string `json:"detail"`
}

type streamError struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

type streamFinalReason struct {
	Type       string `json:"type"`
	ExitReason string `json:"exit_reason"`
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorDetail{Detail: "invalid request body"})
		return
	}

	// Reject before opening the stream so clients get a plain 400.
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, errorDetail{Detail: "EMPTY_INPUT"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = core.NewID()
	}

	runID, eventsCh, errorsCh, err := s.bot.Ask(r.Context(), sessionID, req.Query)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorDetail{Detail: err.Error()})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorDetail{Detail: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	s.logger.Debug("chat stream opened", "run_id", runID, "session_id", sessionID)

	var final *core.FinalState
	for event := range eventsCh {
		switch event.Kind {
		case core.EventToken, core.EventToolStart, core.EventToolEnd, core.EventCacheHit:
			writeSSE(w, flusher, event)
		case core.EventFinal:
			// Withheld; the terminal outcome goes out as error/final_reason.
			if event.Final != nil {
				snapshot := *event.Final
				final = &snapshot
			}
		}
	}

	if err := <-errorsCh; err != nil {
		s.logger.Error("chat stream abandoned", "error", err, "run_id", runID)
		writeSSE(w, flusher, streamError{Type: "error", Detail: err.Error()})
		return
	}

	if final == nil {
		return
	}

	if final.ExitReason.IsError() {
		writeSSE(w, flusher, streamError{Type: "error", Detail: final.ExitReason.String()})
	}
	writeSSE(w, flusher, streamFinalReason{Type: "final_reason", ExitReason: final.ExitReason.String()})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}
