// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package devremote serves the remote customer and table documents locally
// for development and tests.
package devremote

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/toeirei/seatmaster/internal/logging"
)

//go:embed fixture.json
var defaultFixture []byte

// Customer is the wire shape of one customer-list.json entry.
type Customer struct {
	FirstName string `json:"customerFirstName"`
	LastName  string `json:"customerLastName"`
	ID        int    `json:"id"`
}

// Fixture is the data the server hands out.
type Fixture struct {
	Customers []Customer `json:"customers"`
	Tables    []bool     `json:"tables"`
}

// DefaultFixture returns the embedded fixture.
func DefaultFixture() (Fixture, error) {
	return parseFixture(defaultFixture)
}

// LoadFixture reads a fixture from a JSON file on disk.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("failed to read fixture: %w", err)
	}
	return parseFixture(data)
}

func parseFixture(data []byte) (Fixture, error) {
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("invalid fixture: %w", err)
	}
	return f, nil
}

// Server holds the fixture and an optional failure injection used by tests.
type Server struct {
	mu       sync.RWMutex
	fixture  Fixture
	failLeft int
	failCode int
}

// NewServer returns a server handing out f.
func NewServer(f Fixture) *Server {
	return &Server{fixture: f}
}

// SetFixture swaps the served data.
func (s *Server) SetFixture(f Fixture) {
	s.mu.Lock()
	s.fixture = f
	s.mu.Unlock()
}

// FailNext makes the next n document requests answer with status code.
func (s *Server) FailNext(n, code int) {
	s.mu.Lock()
	s.failLeft = n
	s.failCode = code
	s.mu.Unlock()
}

// injectedFailure consumes one injected failure, returning its status code
// or 0 when none is pending.
func (s *Server) injectedFailure() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLeft <= 0 {
		return 0
	}
	s.failLeft--
	return s.failCode
}

// NewRouter wires the document routes below the given paths.
func NewRouter(s *Server, customersPath, tablesPath string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)
	r.HandleFunc("/"+customersPath, s.handleCustomers).Methods(http.MethodGet)
	r.HandleFunc("/"+tablesPath, s.handleTables).Methods(http.MethodGet)
	r.Use(loggingMiddleware)
	return r
}

func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	if code := s.injectedFailure(); code != 0 {
		http.Error(w, http.StatusText(code), code)
		return
	}
	s.mu.RLock()
	customers := s.fixture.Customers
	s.mu.RUnlock()
	if customers == nil {
		customers = []Customer{}
	}
	writeJSON(w, customers)
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	if code := s.injectedFailure(); code != 0 {
		http.Error(w, http.StatusText(code), code)
		return
	}
	s.mu.RLock()
	tables := s.fixture.Tables
	s.mu.RUnlock()
	if tables == nil {
		tables = []bool{}
	}
	writeJSON(w, tables)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warnf("devremote: encode response: %v", err)
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.L.Debug("devremote request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logging.L.Info("devremote listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
