package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/mifi/commonify/pkg/commonify"
	"github.com/mifi/commonify/pkg/integrations/npm"
	"github.com/mifi/commonify/pkg/transform"
)

// registryEnv overrides the configured registry URL.
const registryEnv = "COMMONIFY_REGISTRY"

const defaultCacheTTL = 10 * time.Minute

// Config is the on-disk configuration, config.toml in the config directory.
type Config struct {
	Registry         string   `toml:"registry"`
	MaxDepth         int      `toml:"max_depth"`
	WorkDir          string   `toml:"work_dir"`
	Access           string   `toml:"access"`
	TransformCommand []string `toml:"transform_command"`

	Cache   CacheConfig   `toml:"cache"`
	History HistoryConfig `toml:"history"`
}

// CacheConfig configures the registry response cache.
type CacheConfig struct {
	// TTL is a duration string such as "10m".
	TTL string `toml:"ttl"`
	// RedisURL selects a Redis cache instead of the file cache.
	RedisURL string `toml:"redis_url"`
}

// HistoryConfig configures where successful runs are recorded.
type HistoryConfig struct {
	Disabled bool   `toml:"disabled"`
	Dir      string `toml:"dir"`
	// MongoURI selects a MongoDB store instead of JSON files.
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.Registry == "" {
		c.Registry = npm.DefaultRegistry
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = commonify.DefaultMaxDepth
	}
	if c.WorkDir == "" {
		c.WorkDir = "."
	}
	if c.Access == "" {
		c.Access = commonify.DefaultAccess
	}
	if len(c.TransformCommand) == 0 {
		c.TransformCommand = transform.DefaultCommand
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = defaultCacheTTL.String()
	}
	return c
}

// CacheTTL parses Cache.TTL.
func (c Config) CacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return defaultCacheTTL, nil
	}
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0, fmt.Errorf("cache.ttl: %w", err)
	}
	return d, nil
}

// loadConfig reads the config file at path, or the default location when
// path is empty. A missing default file is not an error. The registry
// environment variable is applied on top, then defaults.
func loadConfig(path string) (Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err == nil {
			path = filepath.Join(dir, "config.toml")
		}
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !explicit && errors.Is(err, fs.ErrNotExist) {
				cfg = Config{}
			} else {
				return Config{}, fmt.Errorf("load config %s: %w", path, err)
			}
		}
	}

	if reg := os.Getenv(registryEnv); reg != "" {
		cfg.Registry = reg
	}
	return cfg.WithDefaults(), nil
}
