// Package config loads atlas configuration from file, environment and
// defaults, and assembles the build options from it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/everstacklabs/atlas/internal/policy"
)

// Config holds all configuration for atlas.
type Config struct {
	CatalogPath string         `mapstructure:"catalog_path"` // packaged-defaults catalog tree
	Overrides   []string       `mapstructure:"overrides"`    // override documents, lowest precedence first
	Remotes     []RemoteConfig `mapstructure:"remotes"`
	GitHub      GitHubConfig   `mapstructure:"github"`
	CacheDir    string         `mapstructure:"cache_dir"`
	CacheTTL    string         `mapstructure:"cache_ttl"`
	Allow       map[string]any `mapstructure:"allow"` // provider -> "all" or pattern list
	Deny        map[string]any `mapstructure:"deny"`  // provider -> pattern list
	Prefer      []string       `mapstructure:"prefer"`
	ExportPath  string         `mapstructure:"export_path"`
	GitCommit   bool           `mapstructure:"git_commit"`
	GitPush     bool           `mapstructure:"git_push"`
	LogLevel    string         `mapstructure:"log_level"`
}

// RemoteConfig describes one remote catalog document.
type RemoteConfig struct {
	Name string  `mapstructure:"name"`
	URL  string  `mapstructure:"url"`
	RPS  float64 `mapstructure:"rps"`
}

// GitHubConfig describes a GitHub-hosted catalog source and push auth.
type GitHubConfig struct {
	Token string `mapstructure:"token"`
	Owner string `mapstructure:"owner"`
	Repo  string `mapstructure:"repo"`
	Ref   string `mapstructure:"ref"`
	Path  string `mapstructure:"path"`
}

// Load reads configuration from file, environment, and defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("catalog_path", "")
	v.SetDefault("cache_dir", defaultCacheDir())
	v.SetDefault("cache_ttl", "1h")
	v.SetDefault("export_path", "./catalog")
	v.SetDefault("git_commit", false)
	v.SetDefault("git_push", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("github.ref", "main")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/atlas")
	}

	v.SetEnvPrefix("ATLAS")
	v.AutomaticEnv()
	_ = v.BindEnv("github.token", "GITHUB_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.CatalogPath != "" && !filepath.IsAbs(cfg.CatalogPath) {
		abs, err := filepath.Abs(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("resolving catalog path: %w", err)
		}
		cfg.CatalogPath = abs
	}
	return &cfg, nil
}

// PolicySpec translates the loosely typed allow/deny config into a policy
// spec.
func (c *Config) PolicySpec() (policy.Spec, error) {
	spec := policy.Spec{}
	if len(c.Allow) > 0 {
		spec.Allow = make(map[string]policy.AllowSpec, len(c.Allow))
		for provider, raw := range c.Allow {
			entry, err := policy.ParseAllowValue(raw)
			if err != nil {
				return policy.Spec{}, fmt.Errorf("allow.%s: %w", provider, err)
			}
			spec.Allow[provider] = entry
		}
	}
	if len(c.Deny) > 0 {
		spec.Deny = make(map[string][]string, len(c.Deny))
		for provider, raw := range c.Deny {
			entry, err := policy.ParseAllowValue(raw)
			if err != nil {
				return policy.Spec{}, fmt.Errorf("deny.%s: %w", provider, err)
			}
			if entry.All {
				return policy.Spec{}, fmt.Errorf("deny.%s: \"all\" is not a valid deny entry", provider)
			}
			spec.Deny[provider] = entry.Patterns
		}
	}
	return spec, nil
}

// ParsedCacheTTL returns the cache TTL duration.
func (c *Config) ParsedCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return time.Hour
	}
	return d
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/atlas-cache"
	}
	return filepath.Join(home, ".cache", "atlas")
}
