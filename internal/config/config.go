package config

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Dedup    DedupConfig    `yaml:"dedup" mapstructure:"dedup"`
	Filter   FilterConfig   `yaml:"filter" mapstructure:"filter"`
	Overpass OverpassConfig `yaml:"overpass" mapstructure:"overpass"`
	Geocode  GeocodeConfig  `yaml:"geocode" mapstructure:"geocode"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the SQLite run history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// DedupConfig holds the distance and similarity thresholds for each pass.
type DedupConfig struct {
	OutdoorSameNameMeters  float64 `yaml:"outdoor_same_name_meters" mapstructure:"outdoor_same_name_meters"`
	IndoorSameNameMeters   float64 `yaml:"indoor_same_name_meters" mapstructure:"indoor_same_name_meters"`
	PriorityMeters         float64 `yaml:"priority_meters" mapstructure:"priority_meters"`
	CrossSourceMeters      float64 `yaml:"cross_source_meters" mapstructure:"cross_source_meters"`
	CrossCategoryThreshold float64 `yaml:"cross_category_threshold" mapstructure:"cross_category_threshold"`
	Policy                 string  `yaml:"policy" mapstructure:"policy"`
	Workers                int     `yaml:"workers" mapstructure:"workers"`
	CrossSource            bool    `yaml:"cross_source" mapstructure:"cross_source"`
	AuditLimit             int     `yaml:"audit_limit" mapstructure:"audit_limit"`
}

// FilterConfig toggles the category filter.
type FilterConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// OverpassConfig configures the OpenStreetMap Overpass client.
type OverpassConfig struct {
	URL         string  `yaml:"url" mapstructure:"url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Limit       int     `yaml:"limit" mapstructure:"limit"`
	DelaySecs   float64 `yaml:"delay_secs" mapstructure:"delay_secs"`
}

// GeocodeConfig configures the Nominatim reverse geocoder.
type GeocodeConfig struct {
	URL           string  `yaml:"url" mapstructure:"url"`
	UserAgent     string  `yaml:"user_agent" mapstructure:"user_agent"`
	RateLimitSecs float64 `yaml:"rate_limit_secs" mapstructure:"rate_limit_secs"`
}

// MetricsConfig configures Prometheus output.
type MetricsConfig struct {
	// Textfile, when set, receives the text exposition after each run.
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
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
	v.SetEnvPrefix("COURTSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.path", "courtsync.db")
	v.SetDefault("dedup.outdoor_same_name_meters", 500.0)
	v.SetDefault("dedup.indoor_same_name_meters", 100.0)
	v.SetDefault("dedup.priority_meters", 300.0)
	v.SetDefault("dedup.cross_source_meters", 200.0)
	v.SetDefault("dedup.cross_category_threshold", 0.5)
	v.SetDefault("dedup.policy", "first")
	v.SetDefault("dedup.workers", 1)
	v.SetDefault("dedup.cross_source", false)
	v.SetDefault("dedup.audit_limit", 20)
	v.SetDefault("filter.enabled", true)
	v.SetDefault("overpass.url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.timeout_secs", 600)
	v.SetDefault("overpass.limit", 10000)
	v.SetDefault("overpass.delay_secs", 2.0)
	v.SetDefault("geocode.url", "https://nominatim.openstreetmap.org/reverse")
	v.SetDefault("geocode.user_agent", "courtsync/1.0")
	v.SetDefault("geocode.rate_limit_secs", 1.1)
	v.SetDefault("metrics.textfile", "")

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

// Validate checks the thresholds a dedup run depends on. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []string

	for _, m := range []struct {
		key   string
		value float64
	}{
		{"dedup.outdoor_same_name_meters", c.Dedup.OutdoorSameNameMeters},
		{"dedup.indoor_same_name_meters", c.Dedup.IndoorSameNameMeters},
		{"dedup.priority_meters", c.Dedup.PriorityMeters},
		{"dedup.cross_source_meters", c.Dedup.CrossSourceMeters},
	} {
		if math.IsNaN(m.value) || m.value < 0 {
			errs = append(errs, m.key+" must be >= 0")
		}
	}

	if t := c.Dedup.CrossCategoryThreshold; math.IsNaN(t) || t <= 0 || t > 1 {
		errs = append(errs, "dedup.cross_category_threshold must be in (0, 1]")
	}

	switch strings.ToLower(strings.TrimSpace(c.Dedup.Policy)) {
	case "", "first", "best":
	default:
		errs = append(errs, "dedup.policy must be first or best")
	}

	if c.Dedup.Workers < 0 {
		errs = append(errs, "dedup.workers must be >= 0")
	}
	if c.Dedup.AuditLimit < 0 {
		errs = append(errs, "dedup.audit_limit must be >= 0")
	}
	if c.Geocode.RateLimitSecs < 0 {
		errs = append(errs, "geocode.rate_limit_secs must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
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
