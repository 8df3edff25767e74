package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Canvas  CanvasConfig  `yaml:"canvas" mapstructure:"canvas"`
	Scale   ScaleConfig   `yaml:"scale" mapstructure:"scale"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SourcesConfig points at the two static datasets. Either value may be a
// local path, a file:// / http(s):// URL, or an ftp:// URL.
type SourcesConfig struct {
	Incidents string `yaml:"incidents" mapstructure:"incidents"`
	// IncidentsSheet selects the XLSX sheet when the incident source is a
	// spreadsheet; ignored for CSV sources.
	IncidentsSheet string `yaml:"incidents_sheet" mapstructure:"incidents_sheet"`
	Boundary       string `yaml:"boundary" mapstructure:"boundary"`
}

// CanvasConfig fixes the drawing surface dimensions. Read once at startup;
// the rendered map does not respond to later resizes.
type CanvasConfig struct {
	Width  int `yaml:"width" mapstructure:"width"`
	Height int `yaml:"height" mapstructure:"height"`
}

// ScaleConfig configures the victim-count → circle-radius scale.
type ScaleConfig struct {
	DomainMax float64 `yaml:"domain_max" mapstructure:"domain_max"`
	RangeMax  float64 `yaml:"range_max" mapstructure:"range_max"`
}

// FetchConfig configures dataset downloads.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// Timeout returns the fetch timeout as a duration.
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// ServerConfig configures the map server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("INCIDENTMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("sources.incidents", "data/mass-shootings.csv")
	v.SetDefault("sources.boundary", "data/us-states.json")
	v.SetDefault("canvas.width", 960)
	v.SetDefault("canvas.height", 600)
	v.SetDefault("scale.domain_max", 50.0)
	v.SetDefault("scale.range_max", 25.0)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.user_agent", "incident-map/1.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Default returns a Config populated with the built-in defaults, without
// consulting the config file or environment. Used by `config init` to write
// a starter file.
func Default() Config {
	return Config{
		Sources: SourcesConfig{
			Incidents: "data/mass-shootings.csv",
			Boundary:  "data/us-states.json",
		},
		Canvas: CanvasConfig{Width: 960, Height: 600},
		Scale:  ScaleConfig{DomainMax: 50, RangeMax: 25},
		Fetch: FetchConfig{
			TimeoutSecs: 30,
			MaxRetries:  3,
			UserAgent:   "incident-map/1.0",
		},
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
