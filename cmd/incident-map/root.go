package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/incident-map/internal/config"
	"github.com/sells-group/incident-map/internal/dataset"
	"github.com/sells-group/incident-map/internal/fetcher"
	"github.com/sells-group/incident-map/internal/geo"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "incident-map",
	Short: "Interactive map of US mass-shooting incidents",
	Long:  "Loads the incident table and state boundary geometry, projects them onto an SVG map with circles sized by victim count, and serves or renders the year-by-year view.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// newLoader builds the dataset loader over the configured fetcher.
func newLoader() *dataset.Loader {
	f := fetcher.New(fetcher.Options{
		Timeout:    cfg.Fetch.Timeout(),
		MaxRetries: cfg.Fetch.MaxRetries,
		UserAgent:  cfg.Fetch.UserAgent,
	})
	return dataset.NewLoader(f, cfg.Sources)
}

// loadData fetches and normalizes both sources.
func loadData(ctx context.Context) (*dataset.Collection, *geo.Boundary, error) {
	return newLoader().Load(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
