/*
Copyright 2024 The Paneflow Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package introspect runs the worker's operational HTTP endpoints:
// liveness, goroutine dumps and Prometheus metrics. It is fully
// independent of the execution loop and may be queried at any time,
// including while an executor is mid-run.
package introspect

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/paneflow/paneflow/pkg/shared/logging"
)

// stackBufSize bounds the goroutine dump; dumps larger than this are truncated.
const stackBufSize = 1 << 20

// Server serves the introspection endpoints.
type Server struct {
	port int
}

// Option customizes the server.
type Option func(*Server)

// WithPort sets the listen port.
func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// NewServer returns an introspection server.
func NewServer(opts ...Option) *Server {
	s := &Server{
		port: 8070,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Handler returns the request mux. Unknown paths get a 404.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealthz)
	mux.HandleFunc("/threadz", handleThreadz)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start starts the HTTP service, it returns a shutdown function and an
// error if any. Starting and stopping never block on the execution loop.
func (s *Server) Start(ctx context.Context) (func(ctx context.Context) error, error) {
	log := logging.FromContext(ctx)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infow("Starting introspection HTTP server", zap.Int("port", s.port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("Failed to listen-and-serve introspection server", zap.Error(err))
		}
		log.Info("Introspection server shutdown")
	}()
	return httpServer.Shutdown, nil
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleThreadz dumps every live goroutine with a header line per
// goroutine followed by its captured frames. The dump is taken at request
// time; nothing is cached.
func handleThreadz(w http.ResponseWriter, _ *http.Request) {
	buf := make([]byte, stackBufSize)
	n := runtime.Stack(buf, true)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	for _, dump := range strings.Split(string(buf[:n]), "\n\n") {
		header, frames, ok := strings.Cut(dump, "\n")
		if !ok {
			continue
		}
		// header looks like "goroutine 12 [running]:"
		_, _ = fmt.Fprintf(w, "--- Thread: %s ---\n", strings.TrimSuffix(header, ":"))
		_, _ = fmt.Fprintln(w, frames)
	}
}
