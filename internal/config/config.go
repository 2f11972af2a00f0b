// Package config loads layered settings the way the teacher's search
// service did (environment-first), generalized to viper's layered
// defaults → file → environment → CLI-flag precedence and to the full
// key set ingestion and serving binaries need.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Service is the HTTP server's own address/limits.
type Service struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	ContentLengthLimit int64  `mapstructure:"content_length_limit"`
}

// Backend is the search-backend connection: Typesense in this build,
// named "elasticsearch" in config to keep the documented key names
// stable across a backend swap.
type Backend struct {
	URL                 string `mapstructure:"url"`
	APIKey              string `mapstructure:"api_key"`
	VersionReq          string `mapstructure:"version_req"`
	Timeout             int    `mapstructure:"timeout"`
	ForceMerge          bool   `mapstructure:"force_merge"`
	WaitForActiveShards int    `mapstructure:"wait_for_active_shards"`
}

// Container describes one ingestion run's target index.
type Container struct {
	Name               string `mapstructure:"name"`
	Dataset            string `mapstructure:"dataset"`
	Visibility         string `mapstructure:"visibility"`
	NumberOfShards     int    `mapstructure:"number_of_shards"`
	NumberOfReplicas   int    `mapstructure:"number_of_replicas"`
}

// Logging holds the log-file path; level and format follow the
// teacher's logrus conventions and aren't file-configurable.
type Logging struct {
	Path string `mapstructure:"path"`
}

// Redis configures the optional shared response-cache tier (§6
// http_cache_duration backs the TTL, this backs cross-instance sharing).
// An empty URL disables Redis and falls back to the in-memory cache.
type Redis struct {
	URL string `mapstructure:"url"`
}

// Config is the full settings tree, covering every documented key.
type Config struct {
	Service             Service   `mapstructure:"service"`
	Elasticsearch       Backend   `mapstructure:"elasticsearch"`
	QueryTOML           string    `mapstructure:"query_settings_path"`
	Container           Container `mapstructure:"container"`
	Logging             Logging   `mapstructure:"logging"`
	Redis               Redis     `mapstructure:"redis"`
	NbThreads           int       `mapstructure:"nb_threads"`
	AutocompleteTimeout int       `mapstructure:"autocomplete_timeout"`
	ReverseTimeout      int       `mapstructure:"reverse_timeout"`
	FeaturesTimeout     int       `mapstructure:"features_timeout"`
	HTTPCacheDuration   int       `mapstructure:"http_cache_duration"`
	UpdateTemplates     bool      `mapstructure:"update_templates"`
	TemplatesDir        string    `mapstructure:"templates_dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.host", "0.0.0.0")
	v.SetDefault("service.port", 4000)
	v.SetDefault("service.content_length_limit", 1<<20)

	v.SetDefault("elasticsearch.url", "http://localhost:8108")
	v.SetDefault("elasticsearch.version_req", "*")
	v.SetDefault("elasticsearch.timeout", 10)
	v.SetDefault("elasticsearch.force_merge", false)
	v.SetDefault("elasticsearch.wait_for_active_shards", 1)

	v.SetDefault("query_settings_path", "config/query.toml")

	v.SetDefault("container.visibility", "public")
	v.SetDefault("container.number_of_shards", 1)
	v.SetDefault("container.number_of_replicas", 0)

	v.SetDefault("logging.path", "")
	v.SetDefault("redis.url", "")

	v.SetDefault("nb_threads", 4)
	v.SetDefault("autocomplete_timeout", 2000)
	v.SetDefault("reverse_timeout", 2000)
	v.SetDefault("features_timeout", 2000)
	v.SetDefault("http_cache_duration", 60)
	v.SetDefault("update_templates", true)
	v.SetDefault("templates_dir", "config/templates")
}

// Load builds a Config from defaults, an optional mode-specific file
// under configDir/<RUN_MODE>.toml, an optional configDir/local.toml
// overlay, a .env file if present, environment variables prefixed by
// envPrefix (e.g. "BRAGI", "MIMIR"), and finally CLI flags, in that
// precedence order (later sources win), mirroring the source's layered
// config-rs setup.
func Load(envPrefix, configDir string, flags *pflag.FlagSet) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	if configDir != "" {
		v.SetConfigName("default")
		v.AddConfigPath(configDir)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("config: reading default overlay: %w", err)
			}
		}

		mode := os.Getenv("RUN_MODE")
		if mode == "" {
			mode = "development"
		}
		modeV := viper.New()
		modeV.SetConfigType("toml")
		modeV.SetConfigName(mode)
		modeV.AddConfigPath(configDir)
		if err := modeV.ReadInConfig(); err == nil {
			_ = v.MergeConfigMap(modeV.AllSettings())
		}

		localV := viper.New()
		localV.SetConfigType("toml")
		localV.SetConfigName("local")
		localV.AddConfigPath(configDir)
		if err := localV.ReadInConfig(); err == nil {
			_ = v.MergeConfigMap(localV.AllSettings())
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if u := os.Getenv("ELASTICSEARCH_URL"); u != "" {
		v.Set("elasticsearch.url", u)
	} else if u := os.Getenv("ELASTICSEARCH_TEST_URL"); u != "" {
		v.Set("elasticsearch.url", u)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("config: binding flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.Service.Port <= 0 {
		return Config{}, fmt.Errorf("config: service.port must be positive, got %d", cfg.Service.Port)
	}
	return cfg, nil
}
