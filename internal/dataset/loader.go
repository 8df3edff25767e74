package dataset

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/incident-map/internal/config"
	"github.com/sells-group/incident-map/internal/fetcher"
	"github.com/sells-group/incident-map/internal/geo"
)

// Loader fetches and parses the incident table and the boundary geometry.
type Loader struct {
	fetch fetcher.Fetcher
	src   config.SourcesConfig
	log   *zap.Logger
}

// NewLoader creates a Loader reading from the configured sources.
func NewLoader(f fetcher.Fetcher, src config.SourcesConfig) *Loader {
	return &Loader{
		fetch: f,
		src:   src,
		log:   zap.L().With(zap.String("component", "dataset.loader")),
	}
}

// Load fetches both sources jointly and returns the normalized incident
// collection and the boundary geometry. Either failure fails the whole
// load: the map cannot be drawn without geometry nor meaningfully without
// incidents, so partial results are not usable.
func (l *Loader) Load(ctx context.Context) (*Collection, *geo.Boundary, error) {
	var (
		collection *Collection
		boundary   *geo.Boundary
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c, err := l.loadIncidents(ctx)
		if err != nil {
			return eris.Wrap(err, "dataset: load incidents")
		}
		collection = c
		return nil
	})

	g.Go(func() error {
		b, err := l.loadBoundary(ctx)
		if err != nil {
			return eris.Wrap(err, "dataset: load boundary")
		}
		boundary = b
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	l.log.Info("load complete",
		zap.Int("incidents", collection.Len()),
		zap.Int("features", boundary.Len()),
		zap.Int("min_year", collection.MinYear()),
		zap.Int("max_year", collection.MaxYear()),
	)
	return collection, boundary, nil
}

// ChangeFetcher is the optional fetcher extension used by Reload: opening a
// source reports whether it changed since the previous open.
type ChangeFetcher interface {
	fetcher.Fetcher
	OpenIfChanged(ctx context.Context, source string) (io.ReadCloser, bool, error)
}

// Reload re-fetches the sources after an initial Load. When the fetcher
// supports change detection and neither source changed, it returns
// (nil, nil, false, nil) without parsing anything. Otherwise both datasets
// are rebuilt, re-opening the unchanged side plainly.
func (l *Loader) Reload(ctx context.Context) (*Collection, *geo.Boundary, bool, error) {
	cf, ok := l.fetch.(ChangeFetcher)
	if !ok {
		c, b, err := l.Load(ctx)
		return c, b, err == nil, err
	}

	incBody, incChanged, err := cf.OpenIfChanged(ctx, l.src.Incidents)
	if err != nil {
		return nil, nil, false, eris.Wrap(err, "dataset: reload incidents")
	}
	bndBody, bndChanged, err := cf.OpenIfChanged(ctx, l.src.Boundary)
	if err != nil {
		closeQuiet(incBody)
		return nil, nil, false, eris.Wrap(err, "dataset: reload boundary")
	}

	if !incChanged && !bndChanged {
		l.log.Debug("sources unchanged, skipping reload")
		return nil, nil, false, nil
	}

	if incBody == nil {
		if incBody, err = l.fetch.Open(ctx, l.src.Incidents); err != nil {
			closeQuiet(bndBody)
			return nil, nil, false, eris.Wrap(err, "dataset: reload incidents")
		}
	}
	if bndBody == nil {
		if bndBody, err = l.fetch.Open(ctx, l.src.Boundary); err != nil {
			closeQuiet(incBody)
			return nil, nil, false, eris.Wrap(err, "dataset: reload boundary")
		}
	}
	defer closeQuiet(incBody)
	defer closeQuiet(bndBody)

	collection, err := l.parseIncidents(ctx, incBody)
	if err != nil {
		return nil, nil, false, eris.Wrap(err, "dataset: reload incidents")
	}
	boundary, err := l.parseBoundary(bndBody)
	if err != nil {
		return nil, nil, false, eris.Wrap(err, "dataset: reload boundary")
	}

	l.log.Info("reload complete",
		zap.Int("incidents", collection.Len()),
		zap.Int("features", boundary.Len()),
	)
	return collection, boundary, true, nil
}

func closeQuiet(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}

func (l *Loader) loadIncidents(ctx context.Context) (*Collection, error) {
	body, err := l.fetch.Open(ctx, l.src.Incidents)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	return l.parseIncidents(ctx, body)
}

func (l *Loader) parseIncidents(ctx context.Context, body io.Reader) (*Collection, error) {
	var err error
	var header []string
	var rows [][]string

	if isSpreadsheet(l.src.Incidents) {
		header, rows, err = fetcher.ReadXLSX(body, fetcher.XLSXOptions{
			SheetName: l.src.IncidentsSheet,
			HasHeader: true,
		})
		if err != nil {
			return nil, err
		}
	} else {
		headerCh := make(chan []string, 1)
		rowCh, errCh := fetcher.StreamCSV(ctx, body, fetcher.CSVOptions{
			HasHeader: true,
			HeaderCh:  headerCh,
			TrimSpace: true,
		})
		for row := range rowCh {
			rows = append(rows, row)
		}
		for streamErr := range errCh {
			if streamErr != nil {
				return nil, streamErr
			}
		}
		select {
		case header = <-headerCh:
		default:
			return nil, eris.Errorf("dataset: %s has no header row", l.src.Incidents)
		}
	}

	return l.normalize(header, rows)
}

// normalize parses every row, applies the drop policy, and builds the
// collection. Rows with unparseable coordinates, dates, or victim counts
// are dropped here so no shape ever has an undefined position or radius;
// the dropped count is logged once per load.
func (l *Loader) normalize(header []string, rows [][]string) (*Collection, error) {
	cols := mapColumns(header)
	for _, required := range []string{colCase, colLocation, colDate, colLatitude, colLongitude, colVictims} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("dataset: missing required column %q", required)
		}
	}

	incidents := make([]Incident, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		in := parseRow(cols, row)
		if !in.Valid() {
			dropped++
			continue
		}
		incidents = append(incidents, in)
	}

	if dropped > 0 {
		l.log.Warn("dropped malformed incident rows",
			zap.Int("dropped", dropped),
			zap.Int("kept", len(incidents)),
		)
	}
	if len(incidents) == 0 {
		return nil, eris.New("dataset: no well-formed incident rows")
	}

	return NewCollection(incidents)
}

func (l *Loader) loadBoundary(ctx context.Context) (*geo.Boundary, error) {
	body, err := l.fetch.Open(ctx, l.src.Boundary)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	return l.parseBoundary(body)
}

func (l *Loader) parseBoundary(body io.Reader) (*geo.Boundary, error) {
	switch strings.ToLower(path.Ext(l.src.Boundary)) {
	case ".shp", ".zip":
		return geo.ReadShapefile(body)
	default:
		return geo.ReadGeoJSON(body)
	}
}

func isSpreadsheet(source string) bool {
	return strings.EqualFold(path.Ext(source), ".xlsx")
}
