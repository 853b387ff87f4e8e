// Package server exposes a loaded snapshot collection over a read-only HTTP
// API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/zilean-lol/zilean/internal/features"
	"github.com/zilean-lol/zilean/internal/snapshots"
)

const csvContentType = "text/csv"

// Option configures the server.
type Option func(*Server)

// WithAllowedOrigins sets the CORS origins. Defaults to "*".
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithRegistry serves and records metrics in reg instead of a private
// registry. Pass the registry the crawler metrics live in to expose both.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// Server serves one immutable collection.
type Server struct {
	coll     *snapshots.Collection
	origins  []string
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	router   chi.Router
}

// New builds the router for c.
func New(c *snapshots.Collection, opts ...Option) *Server {
	s := &Server{
		coll:    c,
		origins: []string{"*"},
	}
	for _, o := range opts {
		o(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.requests = promauto.With(s.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "zilean",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "API requests by route and status code.",
	}, []string{"route", "code"})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.observe)

	r.Get("/health", s.health)
	r.Get("/schema", s.schema)
	r.Get("/summary", s.summary)
	r.Get("/subset", s.subset)
	r.Get("/agg", s.agg)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on port until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("server: listening", zap.Int("port", port), zap.Int("matches", s.coll.Len()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		s.requests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		zap.L().Debug("server: request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"matches": s.coll.Len(),
		"frames":  s.coll.Frames(),
	})
}

func (s *Server) schema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.coll.Schema())
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	s.writeCollection(w, r, s.coll)
}

func (s *Server) subset(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	frames, err := intList(q.Get("frames"))
	if err != nil {
		writeError(w, err)
		return
	}

	sub, err := s.coll.Subset(snapshots.Filter{
		Features: stringList(q.Get("features")),
		Lanes:    stringList(q.Get("lanes")),
		Frames:   frames,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeCollection(w, r, sub)
}

func (s *Server) agg(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind, err := snapshots.ParseAggKind(q.Get("type"))
	if err != nil {
		writeError(w, err)
		return
	}
	fn, err := snapshots.AggFuncByName(q.Get("func"))
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.coll.Agg(kind, fn)
	if err != nil {
		writeError(w, err)
		return
	}

	if wantsCSV(r) {
		w.Header().Set("Content-Type", csvContentType)
		if err := res.WriteCSV(w); err != nil {
			zap.L().Error("server: write csv", zap.Error(err))
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) writeCollection(w http.ResponseWriter, r *http.Request, c *snapshots.Collection) {
	perFrame, err := boolParam(r.URL.Query().Get("per_frame"))
	if err != nil {
		writeError(w, err)
		return
	}

	if wantsCSV(r) {
		w.Header().Set("Content-Type", csvContentType)
		if err := c.WriteCSV(w, perFrame); err != nil {
			zap.L().Error("server: write csv", zap.Error(err))
		}
		return
	}

	q := c.FrameQualified()
	records := c.Summary(perFrame)
	out := make([]map[string]any, len(records))
	for i, rec := range records {
		out[i] = rec.Flat(q)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"columns": c.Header(perFrame),
		"records": out,
	})
}

func wantsCSV(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), csvContentType)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if isBadRequest(err) {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

var errBadParam = eris.New("server: bad query parameter")

// badRequestKinds are caller mistakes rather than server faults.
var badRequestKinds = []error{
	snapshots.ErrUsage,
	errBadParam,
	features.ErrNoFrames,
	features.ErrDuplicateFrame,
	features.ErrFrameOutOfRange,
}

func isBadRequest(err error) bool {
	for _, kind := range badRequestKinds {
		if eris.Is(err, kind) {
			return true
		}
	}
	return false
}

func stringList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intList(v string) ([]int, error) {
	parts := stringList(v)
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, eris.Wrapf(errBadParam, "frames: %q is not an integer", p)
		}
		out = append(out, n)
	}
	return out, nil
}

func boolParam(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, eris.Wrapf(errBadParam, "per_frame: %q is not a boolean", v)
	}
	return b, nil
}
