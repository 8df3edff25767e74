package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/incident-map/internal/config"
	"github.com/sells-group/incident-map/internal/dataset"
	"github.com/sells-group/incident-map/internal/fetcher"
	"github.com/sells-group/incident-map/internal/geo"
)

const testStatesGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name": "Texas"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[-106.6, 31.9], [-93.5, 33.6], [-97.1, 25.8], [-106.6, 31.9]]]
      }
    }
  ]
}`

func testServer(t *testing.T) *Server {
	t.Helper()

	incidents, err := dataset.NewCollection([]dataset.Incident{
		{ID: "A", Location: "Killeen, Texas", Longitude: -97.73, Latitude: 31.12, Victims: 10, Year: 2015},
		{ID: "B", Location: "Reno, Nevada", Longitude: -119.81, Latitude: 39.53, Victims: 5, Year: 2016},
		{ID: "C", Location: "Orlando, Florida", Longitude: -81.38, Latitude: 28.54, Victims: 30, Year: 2016},
	})
	require.NoError(t, err)

	boundary := geo.NewBoundary([]geo.Feature{
		{
			Name: "Texas",
			Rings: []geo.Ring{
				{{-106.6, 31.9}, {-93.5, 33.6}, {-97.1, 25.8}, {-106.6, 31.9}},
			},
		},
	})

	cfg := config.Default()
	return New(&cfg, incidents, boundary)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestPageServesSliderBounds(t *testing.T) {
	h := testServer(t).Router()

	rec := get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	doc := rec.Body.String()
	assert.Contains(t, doc, `min="2015"`)
	assert.Contains(t, doc, `max="2016"`)
	assert.Contains(t, doc, `value="2016"`)
}

func TestMapSVGDefaultsToLatestYear(t *testing.T) {
	h := testServer(t).Router()

	rec := get(t, h, "/map.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "image/svg+xml")

	doc := rec.Body.String()
	assert.NotContains(t, doc, `data-id="A"`)
	assert.Contains(t, doc, `data-id="B"`)
	assert.Contains(t, doc, `data-id="C"`)
	assert.Contains(t, doc, `<title>Orlando, Florida</title>`)
}

func TestMapSVGSwitchesYears(t *testing.T) {
	h := testServer(t).Router()

	doc := get(t, h, "/map.svg?year=2015").Body.String()
	assert.Contains(t, doc, `data-id="A"`)
	assert.NotContains(t, doc, `data-id="B"`)

	// A year with no incidents still renders the basemap.
	doc = get(t, h, "/map.svg?year=1999").Body.String()
	assert.Contains(t, doc, `class="basemap"`)
	assert.NotContains(t, doc, "data-id=")
}

func TestMapSVGSameYearIsStable(t *testing.T) {
	h := testServer(t).Router()

	first := get(t, h, "/map.svg?year=2016").Body.String()
	second := get(t, h, "/map.svg?year=2016").Body.String()
	assert.Equal(t, first, second)
}

func TestMapSVGRejectsMalformedYear(t *testing.T) {
	h := testServer(t).Router()
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/map.svg?year=banana").Code)
}

func TestIncidentsAPI(t *testing.T) {
	h := testServer(t).Router()

	rec := get(t, h, "/api/incidents?year=2016")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Year      int                `json:"year"`
		Count     int                `json:"count"`
		Incidents []dataset.Incident `json:"incidents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, 2016, body.Year)
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Incidents, 2)
	assert.Equal(t, "B", body.Incidents[0].ID)
	assert.Equal(t, "C", body.Incidents[1].ID)
}

func TestYearsAPI(t *testing.T) {
	h := testServer(t).Router()

	rec := get(t, h, "/api/years")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Min   int   `json:"min"`
		Max   int   `json:"max"`
		Years []int `json:"years"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, 2015, body.Min)
	assert.Equal(t, 2016, body.Max)
	assert.Equal(t, []int{2015, 2016}, body.Years)
}

// etagSource serves mutable fixture files with ETag / If-None-Match
// semantics, like the static dataset hosts do.
type etagSource struct {
	mu    sync.Mutex
	files map[string]string
	etag  string
}

func (e *etagSource) set(etag string, files map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.etag, e.files = etag, files
}

func (e *etagSource) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()
	body, ok := e.files[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("ETag", e.etag)
	if r.Header.Get("If-None-Match") == e.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	_, _ = io.WriteString(w, body)
}

func TestReloadSkipsUnchangedSources(t *testing.T) {
	src := &etagSource{}
	src.set("v1", map[string]string{
		"/incidents.csv": "Case,Location,Date,Latitude,Longitude,Total Victims\n" +
			`a,"Killeen, Texas",10/16/1991,31.12,-97.73,43` + "\n",
		"/states.geojson": testStatesGeoJSON,
	})
	ts := httptest.NewServer(src)
	defer ts.Close()

	loader := dataset.NewLoader(fetcher.New(fetcher.Options{}), config.SourcesConfig{
		Incidents: ts.URL + "/incidents.csv",
		Boundary:  ts.URL + "/states.geojson",
	})
	incidents, boundary, err := loader.Load(context.Background())
	require.NoError(t, err)

	cfg := config.Default()
	h := New(&cfg, incidents, boundary, WithReloader(loader)).Router()

	post := func() map[string]any {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body
	}

	// Nothing changed since the initial load.
	body := post()
	assert.Equal(t, false, body["reloaded"])
	assert.EqualValues(t, 1, body["incidents"])

	// New dataset revision: reload swaps it in and the map follows.
	src.set("v2", map[string]string{
		"/incidents.csv": "Case,Location,Date,Latitude,Longitude,Total Victims\n" +
			`a,"Killeen, Texas",10/16/1991,31.12,-97.73,43` + "\n" +
			`b,"Orlando, Florida",6/12/2016,28.54,-81.38,49` + "\n",
		"/states.geojson": testStatesGeoJSON,
	})
	body = post()
	assert.Equal(t, true, body["reloaded"])
	assert.EqualValues(t, 2, body["incidents"])

	doc := get(t, h, "/map.svg").Body.String()
	assert.Contains(t, doc, `data-id="b"`)
}

func TestReloadNotRoutedWithoutLoader(t *testing.T) {
	h := testServer(t).Router()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	h := testServer(t).Router()

	rec := get(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
