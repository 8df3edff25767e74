package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/sells-group/incident-map/internal/dataset"
	"github.com/sells-group/incident-map/internal/render"
)

// handlePage serves the slider page.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.mu.Lock()
	data := s.page
	data.Year = s.layer.SelectedYear()
	s.mu.Unlock()
	if err := render.WritePage(w, data); err != nil {
		s.log.Error("render page", zap.Error(err))
	}
}

// handleMapSVG serves the map for one year. Each request runs a full
// SetYear against the shared layer under the mutex; with the same year
// already selected this settles in the identical document.
func (s *Server) handleMapSVG(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	year, ok := s.yearParam(w, r, s.layer.SelectedYear())
	if !ok {
		return
	}

	s.layer.SetYear(year)

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := s.canvas.WriteTo(w); err != nil {
		s.log.Error("write svg", zap.Error(err))
	}
}

// collection returns the current dataset under the lock; the pointer itself
// is immutable once taken, so handlers read it without further locking.
func (s *Server) collection() *dataset.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incidents
}

// handleIncidents returns the incidents visible for one year.
func (s *Server) handleIncidents(w http.ResponseWriter, r *http.Request) {
	incidents := s.collection()

	year, ok := s.yearParam(w, r, incidents.MaxYear())
	if !ok {
		return
	}

	visible := incidents.ByYear(year)
	s.writeJSON(w, map[string]any{
		"year":      year,
		"count":     len(visible),
		"incidents": visible,
	})
}

// handleYears returns the slider bounds and the distinct years present.
func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	incidents := s.collection()
	s.writeJSON(w, map[string]any{
		"min":   incidents.MinYear(),
		"max":   incidents.MaxYear(),
		"years": incidents.Years(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{
		"status":    "ok",
		"incidents": s.collection().Len(),
	})
}

// handleReload re-fetches the sources and swaps in the fresh dataset. When
// neither source changed (per ETag) nothing is rebuilt.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	incidents, boundary, changed, err := s.reload.Reload(r.Context())
	if err != nil {
		s.log.Error("reload failed", zap.Error(err))
		http.Error(w, "reload failed", http.StatusBadGateway)
		return
	}

	if changed {
		s.mu.Lock()
		s.rebuild(incidents, boundary)
		s.mu.Unlock()
	}

	s.writeJSON(w, map[string]any{
		"reloaded":  changed,
		"incidents": s.collection().Len(),
	})
}

// yearParam parses the optional year query parameter, falling back to def
// when absent. A malformed value is a 400.
func (s *Server) yearParam(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return def, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		http.Error(w, "invalid year", http.StatusBadRequest)
		return 0, false
	}
	return year, true
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", zap.Error(err))
	}
}
