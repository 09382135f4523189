package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/leadscan/internal/netcheck"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig     `yaml:"store" mapstructure:"store"`
	Google   GoogleConfig    `yaml:"google" mapstructure:"google"`
	Yelp     YelpConfig      `yaml:"yelp" mapstructure:"yelp"`
	Fetch    FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Netcheck netcheck.Config `yaml:"netcheck" mapstructure:"netcheck"`
	Export   ExportConfig    `yaml:"export" mapstructure:"export"`
	Server   ServerConfig    `yaml:"server" mapstructure:"server"`
	Log      LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the embedded database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// GoogleConfig holds Google Places API settings.
type GoogleConfig struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	MaxPages      int     `yaml:"max_pages" mapstructure:"max_pages"`
	PageSleepSecs int     `yaml:"page_sleep_secs" mapstructure:"page_sleep_secs"`
	Workers       int     `yaml:"workers" mapstructure:"workers"`
	RateLimit     float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// YelpConfig holds Yelp Fusion API settings.
type YelpConfig struct {
	Key            string `yaml:"key" mapstructure:"key"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	MatchThreshold int    `yaml:"match_threshold" mapstructure:"match_threshold"`
	MaxCandidates  int    `yaml:"max_candidates" mapstructure:"max_candidates"`
}

// FetchConfig configures the fetch stage: target geography, blocklist, and
// the reference point distances are computed against.
type FetchConfig struct {
	Zips          []string `yaml:"zips" mapstructure:"zips"`
	State         string   `yaml:"state" mapstructure:"state"`
	BlocklistPath string   `yaml:"blocklist_path" mapstructure:"blocklist_path"`
	RefLat        float64  `yaml:"ref_lat" mapstructure:"ref_lat"`
	RefLon        float64  `yaml:"ref_lon" mapstructure:"ref_lon"`
	GPVCSVPath    string   `yaml:"gpv_csv_path" mapstructure:"gpv_csv_path"`
}

// ExportConfig configures output writers.
type ExportConfig struct {
	XLSXPath    string `yaml:"xlsx_path" mapstructure:"xlsx_path"`
	GeoJSONPath string `yaml:"geojson_path" mapstructure:"geojson_path"`
}

// ServerConfig configures the JSON API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file, and environment.
func Load() (*Config, error) {
	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Empty defaults register keys so AutomaticEnv can fill them.
	v.SetDefault("store.path", "leads.sqlite")
	v.SetDefault("google.key", "")
	v.SetDefault("yelp.key", "")
	v.SetDefault("google.base_url", "https://maps.googleapis.com/maps/api/place")
	v.SetDefault("google.max_pages", 15)
	v.SetDefault("google.page_sleep_secs", 2)
	v.SetDefault("google.workers", 8)
	v.SetDefault("google.rate_limit", 10)
	v.SetDefault("yelp.base_url", "https://api.yelp.com/v3")
	v.SetDefault("yelp.match_threshold", 70)
	v.SetDefault("yelp.max_candidates", 5)
	v.SetDefault("fetch.state", "WA")
	v.SetDefault("fetch.zips", []string{"98501", "98502"})
	v.SetDefault("fetch.blocklist_path", "chain_blocklist.yaml")
	// Olympia, WA
	v.SetDefault("fetch.ref_lat", 47.0379)
	v.SetDefault("fetch.ref_lon", -122.9007)
	v.SetDefault("fetch.gpv_csv_path", "")
	v.SetDefault("export.xlsx_path", "restaurants.xlsx")
	v.SetDefault("export.geojson_path", "restaurants.geojson")
	v.SetDefault("netcheck.url", "https://www.google.com")
	v.SetDefault("netcheck.method", "GET")
	v.SetDefault("netcheck.timeout_secs", 5)
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
