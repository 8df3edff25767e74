package geo

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ReadShapefile decodes a state boundary shapefile, either a bare .shp
// stream or a Census-style ZIP carrying .shp/.shx/.dbf members. The stream
// is staged to a temp directory because the shapefile reader seeks.
func ReadShapefile(r io.Reader) (*Boundary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "geo: read shapefile source")
	}

	dir, err := os.MkdirTemp("", "incident-map-shp-*")
	if err != nil {
		return nil, eris.Wrap(err, "geo: create temp dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	var shpPath string
	if isZIP(data) {
		if err := extractZIP(data, dir); err != nil {
			return nil, err
		}
		shpPath, err = findFileByExt(dir, ".shp")
		if err != nil {
			return nil, err
		}
	} else {
		shpPath = filepath.Join(dir, "boundary.shp")
		if err := os.WriteFile(shpPath, data, 0o644); err != nil {
			return nil, eris.Wrap(err, "geo: stage shapefile")
		}
	}

	return readShapefilePath(shpPath)
}

func readShapefilePath(shpPath string) (*Boundary, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	nameIdx := fieldIndex(reader, "NAME")

	var features []Feature
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		poly, ok := shape.(*shp.Polygon)
		if !ok || poly.NumParts == 0 || len(poly.Points) == 0 {
			skipped++
			continue
		}

		name := ""
		if nameIdx >= 0 {
			name = strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
		}

		features = append(features, Feature{
			Name:  name,
			Rings: polygonParts(poly),
		})
	}

	if skipped > 0 {
		zap.L().Debug("geo: skipped non-polygon shapefile records", zap.Int("skipped", skipped))
	}
	if len(features) == 0 {
		return nil, eris.New("geo: shapefile has no polygon records")
	}

	return NewBoundary(features), nil
}

// polygonParts splits a shapefile polygon's flat point array into one ring
// per part.
func polygonParts(p *shp.Polygon) []Ring {
	rings := make([]Ring, 0, p.NumParts)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		ring := make(Ring, 0, end-start)
		for j := start; j < end; j++ {
			ring = append(ring, [2]float64{p.Points[j].X, p.Points[j].Y})
		}
		if len(ring) >= 3 {
			rings = append(rings, ring)
		}
	}
	return rings
}

// fieldIndex returns the index of a named field in the shapefile, or -1.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

func isZIP(data []byte) bool {
	return len(data) >= 4 && bytes.HasPrefix(data, []byte("PK\x03\x04"))
}

// extractZIP writes every regular member of an in-memory ZIP to destDir.
func extractZIP(data []byte, destDir string) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return eris.Wrap(err, "geo: open zip")
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		destPath := filepath.Join(destDir, filepath.Base(f.Name))

		rc, err := f.Open()
		if err != nil {
			return eris.Wrapf(err, "geo: open zip entry %s", f.Name)
		}

		out, err := os.Create(destPath)
		if err != nil {
			_ = rc.Close()
			return eris.Wrapf(err, "geo: create %s", destPath)
		}

		if _, err := io.Copy(out, rc); err != nil {
			_ = out.Close()
			_ = rc.Close()
			return eris.Wrapf(err, "geo: extract %s", f.Name)
		}
		_ = out.Close()
		_ = rc.Close()
	}

	return nil
}

// findFileByExt finds the first file with the given extension in a directory.
func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "geo: read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("geo: no %s file found in %s", ext, dir)
}
