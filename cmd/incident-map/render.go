package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/incident-map/internal/layer"
	"github.com/sells-group/incident-map/internal/projection"
	"github.com/sells-group/incident-map/internal/render"
)

var (
	renderOut  string
	renderYear int
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the map as static SVG files",
	Long:  "Writes one SVG per incident year plus an index.html hosting the slider, for serving from static storage. With --year, writes only that year's SVG.",
	RunE: func(cmd *cobra.Command, args []string) error {
		incidents, boundary, err := loadData(cmd.Context())
		if err != nil {
			return err
		}

		if err := os.MkdirAll(renderOut, 0o755); err != nil {
			return eris.Wrapf(err, "create output dir %s", renderOut)
		}

		proj := projection.NewAlbers(cfg.Canvas.Width, cfg.Canvas.Height)
		radius := projection.NewRadiusScale(cfg.Scale.DomainMax, cfg.Scale.RangeMax)

		canvas := render.NewSVGCanvas(cfg.Canvas.Width, cfg.Canvas.Height)
		canvas.DrawBasemap(boundary, proj)
		l := layer.New(incidents, proj, radius, canvas)

		years := make([]int, 0)
		if renderYear != 0 {
			years = append(years, renderYear)
		} else {
			for y := incidents.MinYear(); y <= incidents.MaxYear(); y++ {
				years = append(years, y)
			}
		}

		for _, year := range years {
			l.SetYear(year)
			if err := writeFile(filepath.Join(renderOut, fmt.Sprintf("map-%d.svg", year)), canvas.Snapshot()); err != nil {
				return err
			}
		}

		if renderYear == 0 {
			if err := writeIndex(incidents.MinYear(), incidents.MaxYear()); err != nil {
				return err
			}
		}

		zap.L().Info("render complete",
			zap.String("out", renderOut),
			zap.Int("years", len(years)),
		)
		return nil
	},
}

func writeIndex(minYear, maxYear int) error {
	f, err := os.Create(filepath.Join(renderOut, "index.html"))
	if err != nil {
		return eris.Wrap(err, "create index.html")
	}
	defer f.Close() //nolint:errcheck

	return render.WritePage(f, render.PageData{
		Width:     cfg.Canvas.Width,
		Height:    cfg.Canvas.Height,
		MinYear:   minYear,
		MaxYear:   maxYear,
		Year:      maxYear,
		SrcPrefix: "map-",
		SrcSuffix: ".svg",
	})
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	return nil
}

func init() {
	renderCmd.Flags().StringVar(&renderOut, "out", "dist", "output directory")
	renderCmd.Flags().IntVar(&renderYear, "year", 0, "render a single year (default all years)")
	rootCmd.AddCommand(renderCmd)
}
