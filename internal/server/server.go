// Package server exposes the map over HTTP: the slider page, the per-year
// SVG, and a small JSON API over the loaded collection.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/incident-map/internal/config"
	"github.com/sells-group/incident-map/internal/dataset"
	"github.com/sells-group/incident-map/internal/geo"
	"github.com/sells-group/incident-map/internal/layer"
	"github.com/sells-group/incident-map/internal/projection"
	"github.com/sells-group/incident-map/internal/render"
)

// Server wires the loaded datasets to the HTTP surface. The layer and its
// canvas are shared across requests and mutated only via SetYear, so the
// map handler serializes access with a mutex to keep the layer
// single-writer.
type Server struct {
	cfg    *config.Config
	reload *dataset.Loader

	mu        sync.Mutex
	incidents *dataset.Collection
	layer     *layer.Layer
	canvas    *render.SVGCanvas
	page      render.PageData

	log *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithReloader enables POST /api/reload backed by the given loader.
func WithReloader(l *dataset.Loader) Option {
	return func(s *Server) { s.reload = l }
}

// New builds the server: projection fitted to the configured canvas,
// basemap drawn once, layer initialized at the latest incident year.
func New(cfg *config.Config, incidents *dataset.Collection, boundary *geo.Boundary, opts ...Option) *Server {
	s := &Server{
		cfg: cfg,
		log: zap.L().With(zap.String("component", "server")),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rebuild(incidents, boundary)
	return s
}

// rebuild swaps in a fresh dataset: new canvas, basemap, and layer, reset
// to the latest incident year. Callers other than New must hold s.mu.
func (s *Server) rebuild(incidents *dataset.Collection, boundary *geo.Boundary) {
	proj := projection.NewAlbers(s.cfg.Canvas.Width, s.cfg.Canvas.Height)
	radius := projection.NewRadiusScale(s.cfg.Scale.DomainMax, s.cfg.Scale.RangeMax)

	canvas := render.NewSVGCanvas(s.cfg.Canvas.Width, s.cfg.Canvas.Height)
	canvas.DrawBasemap(boundary, proj)

	l := layer.New(incidents, proj, radius, canvas)
	l.SetYear(incidents.MaxYear())

	s.incidents = incidents
	s.layer = l
	s.canvas = canvas
	s.page = render.PageData{
		Width:     s.cfg.Canvas.Width,
		Height:    s.cfg.Canvas.Height,
		MinYear:   incidents.MinYear(),
		MaxYear:   incidents.MaxYear(),
		Year:      incidents.MaxYear(),
		SrcPrefix: "/map.svg?year=",
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}))
	r.Use(s.requestLogger)

	r.Get("/", s.handlePage)
	r.Get("/map.svg", s.handleMapSVG)
	r.Get("/api/incidents", s.handleIncidents)
	r.Get("/api/years", s.handleYears)
	r.Get("/health", s.handleHealth)
	if s.reload != nil {
		r.Post("/api/reload", s.handleReload)
	}

	return r
}

// requestLogger logs one line per request through the global zap logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
