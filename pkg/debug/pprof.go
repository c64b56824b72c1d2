// Package debug provides instrumentation and profiling tools for pmaxcheck.
package debug

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server serves pprof profiles and, when a gatherer is given, the current
// gauges on /metrics. It is meant for long-running watch sessions.
type Server struct {
	server *http.Server
	addr   string
}

// StartServer starts the debug HTTP server at addr (":6060" when empty).
func StartServer(addr string, gatherer prometheus.Gatherer, logger *logrus.Logger) (*Server, error) {
	if addr == "" {
		addr = ":6060"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("debug server failed: %w", err)
	}

	s := &Server{
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		addr: ln.Addr().String(),
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Debug server stopped")
		}
	}()
	logger.WithField("addr", s.addr).Info("Debug server listening")

	return s, nil
}

// Addr returns the address the server is bound to.
func (s *Server) Addr() string {
	return s.addr
}

// Stop shuts the server down, waiting up to five seconds for open requests.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
