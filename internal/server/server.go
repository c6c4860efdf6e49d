// Package server exposes the transformation pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"nodectl/internal/api"
	"nodectl/internal/config"
	"nodectl/internal/pipeline"
	"nodectl/internal/rename"
)

// Server serves transform requests over HTTP.
type Server struct {
	cfg     config.Config
	log     *logrus.Logger
	flags   pipeline.FlagResolver
	version string
	metrics *metrics
	mux     *http.ServeMux
}

// New constructs a Server. flags may be nil to disable geo enrichment.
func New(cfg config.Config, logger *logrus.Logger, flags pipeline.FlagResolver, version string) *Server {
	s := &Server{
		cfg:     cfg,
		log:     logger,
		flags:   flags,
		version: version,
	}

	reg := prometheus.NewRegistry()
	s.metrics = newMetrics(reg)

	mux := http.NewServeMux()
	mux.HandleFunc("/transform", s.handleTransform)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	s.mux = mux
	return s
}

// Handler returns the root handler with request IDs and request logging
// wrapped around the routes.
func (s *Server) Handler() http.Handler {
	return s.withRequestID(s.mux)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.Serve == nil {
		return fmt.Errorf("serve config missing")
	}

	server := &http.Server{
		Addr:              s.cfg.Serve.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	s.log.WithField("listen", s.cfg.Serve.Listen).Info("server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req api.TransformRequest
	if err := decodeJSON(r, &req); err != nil {
		s.metrics.requestsTotal.WithLabelValues("error").Inc()
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	pattern := req.Pattern
	if pattern == "" {
		pattern = s.cfg.Pattern
	}
	threshold := req.LatencyThresholdMs
	if threshold == nil {
		threshold = s.cfg.LatencyThresholdMs
	}

	start := time.Now()
	records, err := pipeline.Transform(r.Context(), req.Nodes, pipeline.Options{
		Pattern:            pattern,
		LatencyThresholdMs: threshold,
		IncludeInactive:    req.IncludeInactive,
		Workers:            s.cfg.Workers,
		Flags:              s.flags,
	})
	s.metrics.duration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.requestsTotal.WithLabelValues("error").Inc()
		var terr *rename.TemplateError
		if errors.As(err, &terr) {
			writeJSONError(w, http.StatusBadRequest, terr.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	active := 0
	for _, rec := range records {
		if rec.Active {
			active++
		}
	}
	s.metrics.nodesProcessed.WithLabelValues("active").Add(float64(active))
	s.metrics.nodesProcessed.WithLabelValues("inactive").Add(float64(len(req.Nodes) - active))
	s.metrics.requestsTotal.WithLabelValues("ok").Inc()

	writeJSON(w, http.StatusOK, api.TransformResponse{Nodes: records})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:  "healthy",
		Service: "nodectl",
		Version: s.version,
	})
}

// withRequestID tags every request with an X-Request-ID, honoring an
// incoming header, and logs the request once served.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
		}).Info("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
