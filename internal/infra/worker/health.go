package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"
)

// ProbeServer answers the worker's probe endpoints:
//
//	GET /health        liveness, 200 while the process serves
//	GET /health/ready  readiness, 200 once the schedule is armed, else 503
//
// Both bodies carry the time and outcome of the most recent content run once
// one has completed, so a glance tells whether the worker is not just alive
// but still producing.
type ProbeServer struct {
	logger     *slog.Logger
	listenAddr string
	ready      atomic.Bool
	lastRun    atomic.Pointer[runRecord]
	boundAddr  atomic.Pointer[string]
	srv        *http.Server
}

// runRecord is one completed content run.
type runRecord struct {
	At     time.Time
	Status string
}

// probeBody is what the endpoints render. The last run fields stay omitted
// until the first run completes.
type probeBody struct {
	Status        string `json:"status"`
	LastRunAt     string `json:"last_run_at,omitempty"`
	LastRunStatus string `json:"last_run_status,omitempty"`
}

// NewProbeServer prepares a probe server on addr. It starts in the
// not-ready state; call Start to serve and SetReady once the worker is
// armed.
func NewProbeServer(logger *slog.Logger, addr string) *ProbeServer {
	return &ProbeServer{logger: logger, listenAddr: addr}
}

// Start listens and serves until ctx is cancelled, then shuts down within
// five seconds. It returns http.ErrServerClosed after a clean shutdown and
// the underlying error otherwise.
func (p *ProbeServer) Start(ctx context.Context) error {
	m := http.NewServeMux()
	m.HandleFunc("/health", p.liveness)
	m.HandleFunc("/health/ready", p.readiness)

	ln, err := net.Listen("tcp", p.listenAddr)
	if err != nil {
		return err
	}
	bound := ln.Addr().String()
	p.boundAddr.Store(&bound)

	p.srv = &http.Server{
		Handler:           m,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		IdleTimeout:       time.Minute,
	}

	served := make(chan error, 1)
	go func() {
		p.logger.Info("health probes listening", slog.String("addr", bound))
		served <- p.srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := p.srv.Shutdown(drainCtx); err != nil {
			p.logger.Error("failed to stop health probe server", slog.Any("error", err))
			return err
		}
		p.logger.Info("health probe server stopped")
		return http.ErrServerClosed

	case err := <-served:
		if !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("health probe server failed", slog.Any("error", err))
		}
		return err
	}
}

// Addr reports the bound listen address once Start has opened the socket,
// empty before that. Needed when addr was configured with port 0.
func (p *ProbeServer) Addr() string {
	if b := p.boundAddr.Load(); b != nil {
		return *b
	}
	return ""
}

// SetReady flips the readiness probe. The worker arms it after wiring the
// scheduler and clears it on shutdown so the orchestrator drains first.
func (p *ProbeServer) SetReady(ready bool) {
	p.ready.Store(ready)
	p.logger.Info("readiness updated", slog.Bool("ready", ready))
}

// RecordRun stores the outcome of a completed content run for the probe
// bodies. Status is the run outcome, typically "success", "partial" or
// "failure".
func (p *ProbeServer) RecordRun(status string) {
	p.lastRun.Store(&runRecord{At: time.Now(), Status: status})
}

func (p *ProbeServer) liveness(w http.ResponseWriter, r *http.Request) {
	p.writeProbe(w, http.StatusOK, "ok")
}

func (p *ProbeServer) readiness(w http.ResponseWriter, r *http.Request) {
	if p.ready.Load() {
		p.writeProbe(w, http.StatusOK, "ok")
		return
	}
	p.writeProbe(w, http.StatusServiceUnavailable, "not ready")
}

// writeProbe renders the probe body, attaching last run details when a run
// has completed.
func (p *ProbeServer) writeProbe(w http.ResponseWriter, httpStatus int, status string) {
	body := probeBody{Status: status}
	if rec := p.lastRun.Load(); rec != nil {
		body.LastRunAt = rec.At.Format(time.RFC3339)
		body.LastRunStatus = rec.Status
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		p.logger.Error("encoding health response failed", slog.Any("error", err))
	}
}
