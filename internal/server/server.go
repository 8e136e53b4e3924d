// Package server exposes curve-fitting sessions over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cwbudde/curvefit/internal/config"
	"github.com/cwbudde/curvefit/internal/dataset"
	"github.com/cwbudde/curvefit/internal/fit"
	"github.com/cwbudde/curvefit/internal/session"
	"github.com/cwbudde/curvefit/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// errUndefined is returned when the model has no finite value at the
// requested x.
var errUndefined = errors.New("model is undefined at x")

// Options configures a Server.
type Options struct {
	Addr         string
	Sessions     *session.Manager
	Store        store.Store // nil disables the dataset endpoints
	CurveSamples int
}

// Server represents the HTTP server
type Server struct {
	sessions *session.Manager
	store    store.Store
	addr     string
	samples  int
	server   *http.Server
}

// NewServer creates a new HTTP server. A nil session manager gets one with
// default settings and no expiry.
func NewServer(opts Options) *Server {
	if opts.Sessions == nil {
		opts.Sessions = session.NewManager(0, fit.DefaultMethodConfig())
	}
	if opts.CurveSamples < 1 {
		opts.CurveSamples = fit.DefaultSamples
	}
	s := &Server{
		sessions: opts.Sessions,
		store:    opts.Store,
		addr:     opts.Addr,
		samples:  opts.CurveSamples,
	}
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/v1/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleDeleteSession)

	mux.HandleFunc("POST /api/v1/sessions/{id}/points", s.handleAddPoint)
	mux.HandleFunc("PUT /api/v1/sessions/{id}/points", s.handleReplacePoints)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}/points", s.handleClearPoints)
	mux.HandleFunc("GET /api/v1/sessions/{id}/points.csv", s.handleExportPoints)
	mux.HandleFunc("PATCH /api/v1/sessions/{id}/points/{index}", s.handleEditPoint)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}/points/{index}", s.handleDeletePoint)

	mux.HandleFunc("PUT /api/v1/sessions/{id}/method", s.handleSetMethod)
	mux.HandleFunc("GET /api/v1/sessions/{id}/evaluate", s.handleEvaluate)
	mux.HandleFunc("GET /api/v1/sessions/{id}/curve", s.handleCurve)
	mux.HandleFunc("GET /api/v1/sessions/{id}/events", s.handleSessionStream)

	mux.HandleFunc("POST /api/v1/sessions/{id}/save", s.handleSaveDataset)
	mux.HandleFunc("GET /api/v1/datasets", s.handleListDatasets)
	mux.HandleFunc("DELETE /api/v1/datasets/{name}", s.handleDeleteDataset)
	mux.HandleFunc("GET /api/v1/datasets/{name}/history", s.handleDatasetHistory)
	mux.HandleFunc("POST /api/v1/datasets/{name}/load", s.handleLoadDataset)

	mux.Handle("GET /metrics", promhttp.Handler())

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// handleCreateSession handles POST /api/v1/sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var cfg *fit.MethodConfig
	var req methodRequest
	switch err := decodeJSON(r, &req); {
	case errors.Is(err, io.EOF):
		// No body: use the server defaults.
	case err != nil:
		writeError(w, err)
		return
	default:
		c := req.apply(s.sessions.Defaults())
		cfg = &c
	}

	view, err := s.sessions.Create(cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// handleListSessions handles GET /api/v1/sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.List())
}

// handleGetSession handles GET /api/v1/sessions/{id}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleDeleteSession handles DELETE /api/v1/sessions/{id}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAddPoint handles POST /api/v1/sessions/{id}/points
func (s *Server) handleAddPoint(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.X == nil || req.Y == nil {
		writeError(w, badRequest("x and y are required"))
		return
	}

	s.mutate(w, r, func(sess *session.Session) error {
		return sess.Apply(session.Add{X: *req.X, Y: *req.Y})
	})
}

// handleReplacePoints handles PUT /api/v1/sessions/{id}/points. A text/csv
// body is imported row by row; anything else is read as {"points": [...]}.
func (s *Server) handleReplacePoints(w http.ResponseWriter, r *http.Request) {
	if isCSV(r) {
		var stats dataset.ImportStats
		view, err := s.sessions.Do(r.PathValue("id"), func(sess *session.Session) error {
			var err error
			stats, err = sess.Import(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			return err
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, importResponse{Session: view, Import: stats})
		return
	}

	var req replaceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.mutate(w, r, func(sess *session.Session) error {
		return sess.Apply(session.Replace{Points: req.Points})
	})
}

// handleClearPoints handles DELETE /api/v1/sessions/{id}/points
func (s *Server) handleClearPoints(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(sess *session.Session) error {
		return sess.Apply(session.Clear{})
	})
}

// handleExportPoints handles GET /api/v1/sessions/{id}/points.csv
func (s *Server) handleExportPoints(w http.ResponseWriter, r *http.Request) {
	var points []fit.Point
	err := s.sessions.Inspect(r.PathValue("id"), func(sess *session.Session) error {
		points = sess.Points()
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	if err := dataset.Export(w, points); err != nil {
		slog.Error("Failed to export points", "error", err)
	}
}

// handleEditPoint handles PATCH /api/v1/sessions/{id}/points/{index}
func (s *Server) handleEditPoint(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req editRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Value == nil {
		writeError(w, badRequest("value is required"))
		return
	}

	s.mutate(w, r, func(sess *session.Session) error {
		return sess.Apply(session.Edit{Index: index, Axis: req.Axis, Value: *req.Value})
	})
}

// handleDeletePoint handles DELETE /api/v1/sessions/{id}/points/{index}
func (s *Server) handleDeletePoint(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.mutate(w, r, func(sess *session.Session) error {
		return sess.Apply(session.Delete{Index: index})
	})
}

// handleSetMethod handles PUT /api/v1/sessions/{id}/method. An omitted
// degree keeps the session's current one.
func (s *Server) handleSetMethod(w http.ResponseWriter, r *http.Request) {
	var req methodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.mutate(w, r, func(sess *session.Session) error {
		return sess.SetMethod(req.apply(sess.Config()))
	})
}

// handleEvaluate handles GET /api/v1/sessions/{id}/evaluate?x=
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	x, err := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	if err != nil || !isFinite(x) {
		writeError(w, badRequest("x must be a finite number"))
		return
	}

	var y float64
	_, err = s.sessions.Do(r.PathValue("id"), func(sess *session.Session) error {
		var ok bool
		if y, ok = sess.Evaluate(x); !ok {
			return errUndefined
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fit.Point{X: x, Y: y})
}

// handleCurve handles GET /api/v1/sessions/{id}/curve?samples=
func (s *Server) handleCurve(w http.ResponseWriter, r *http.Request) {
	steps := s.samples
	if raw := r.URL.Query().Get("samples"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > config.MaxCurveSamples {
			writeError(w, badRequest(fmt.Sprintf("samples must be an integer in [1, %d]", config.MaxCurveSamples)))
			return
		}
		steps = n
	}

	var resp curveResponse
	err := s.sessions.Inspect(r.PathValue("id"), func(sess *session.Session) error {
		resp.Range, resp.Samples = sess.Curve(steps)
		if report, _ := sess.Report(); report != nil {
			resp.Equation = report.Model.Equation()
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if resp.Samples == nil {
		resp.Samples = []fit.Point{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// mutate runs fn on the session named in the path and writes the new state.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(*session.Session) error) {
	view, err := s.sessions.Do(r.PathValue("id"), fn)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}
