// Package config loads the layered vibe-guidescan configuration: built-in
// defaults, a YAML file, a .env file and GUIDESCAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-guidescan/internal/guide"
)

// EnvPrefix prefixes environment overrides, e.g. GUIDESCAN_DATABASE_PATH.
const EnvPrefix = "GUIDESCAN"

// FileName is the default config file name in the home directory.
const FileName = ".vibe-guidescan.yaml"

// Config is the typed application configuration. Map keys (organisms,
// enzymes) are lower-cased by viper; lookups go through the accessor methods.
type Config struct {
	Database      DatabaseConfig              `mapstructure:"database"`
	Guides        GuidesConfig                `mapstructure:"guides"`
	Enzymes       map[string]EnzymeConfig     `mapstructure:"enzymes"`
	LegacyOffsets map[string]map[string]int64 `mapstructure:"legacy_offsets"`
	Query         QueryConfig                 `mapstructure:"query"`
	Log           LogConfig                   `mapstructure:"log"`
}

// DatabaseConfig locates the DuckDB metadata database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// GuidesConfig locates guide databases.
type GuidesConfig struct {
	Backend    string                       `mapstructure:"backend"` // "bam" or "duckdb"
	PathPrefix string                       `mapstructure:"path_prefix"`
	Paths      map[string]map[string]string `mapstructure:"paths"` // organism -> enzyme -> file
}

// EnzymeConfig describes one nuclease.
type EnzymeConfig struct {
	PAM         string `mapstructure:"pam"`
	PAMPosition string `mapstructure:"pam_position"`
	GuideLength int    `mapstructure:"guide_length"`
	Scored      bool   `mapstructure:"scored"`
}

// QueryConfig tunes the query engine.
type QueryConfig struct {
	SummaryDistances []int  `mapstructure:"summary_distances"`
	MaxMismatches    int    `mapstructure:"max_mismatches"`
	Workers          int    `mapstructure:"workers"`
	CacheSize        int    `mapstructure:"cache_size"`
	Annotation       string `mapstructure:"annotation"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SetDefaults registers built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	v.SetDefault("database.path", filepath.Join(home, ".vibe-guidescan", "guidescan.duckdb"))
	v.SetDefault("guides.backend", "bam")
	v.SetDefault("guides.path_prefix", filepath.Join(home, ".vibe-guidescan", "databases"))
	v.SetDefault("enzymes", map[string]any{
		"cas9": map[string]any{
			"pam": "NGG", "pam_position": string(guide.PAM3Prime), "guide_length": 23, "scored": true,
		},
		"cas12a": map[string]any{
			"pam": "TTTV", "pam_position": string(guide.PAM5Prime), "guide_length": 24, "scored": false,
		},
	})
	v.SetDefault("query.summary_distances", []int{2, 3})
	v.SetDefault("query.max_mismatches", 3)
	v.SetDefault("query.workers", 0)
	v.SetDefault("query.cache_size", 8)
	v.SetDefault("query.annotation", "cut-site")
	v.SetDefault("log.level", "info")
}

// Load reads configuration into v and returns the typed result. cfgFile
// overrides the default ~/.vibe-guidescan.yaml; a missing default file is
// not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	// .env values become environment variables unless already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.SetConfigFile(filepath.Join(home, FileName))
	}
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated options and enzyme definitions.
func (c *Config) Validate() error {
	switch c.Guides.Backend {
	case "bam", "duckdb":
	default:
		return fmt.Errorf("guides.backend: unknown backend %q", c.Guides.Backend)
	}
	for name, e := range c.Enzymes {
		switch guide.PAMPosition(e.PAMPosition) {
		case guide.PAM3Prime, guide.PAM5Prime:
		default:
			return fmt.Errorf("enzymes.%s.pam_position: unknown position %q", name, e.PAMPosition)
		}
		if e.GuideLength <= len(e.PAM) {
			return fmt.Errorf("enzymes.%s.guide_length: %d must exceed PAM length", name, e.GuideLength)
		}
	}
	for _, d := range c.Query.SummaryDistances {
		if d < 0 {
			return fmt.Errorf("query.summary_distances: negative distance %d", d)
		}
	}
	return nil
}

// OffsetFor returns the legacy coordinate offset for an organism/enzyme
// pair, 0 when none is configured.
func (c *Config) OffsetFor(organism, enzyme string) int64 {
	return c.LegacyOffsets[strings.ToLower(organism)][strings.ToLower(enzyme)]
}

// GuidePath returns the guide database file for an organism/enzyme pair.
// Relative paths are resolved against guides.path_prefix.
func (c *Config) GuidePath(organism, enzyme string) (string, error) {
	p, ok := c.Guides.Paths[strings.ToLower(organism)][strings.ToLower(enzyme)]
	if !ok || p == "" {
		return "", fmt.Errorf("no guide database configured for %s/%s", organism, enzyme)
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.Guides.PathPrefix, p)
	}
	return p, nil
}

// Enzyme returns the named enzyme definition.
func (c *Config) Enzyme(name string) (guide.Enzyme, error) {
	key := strings.ToLower(name)
	e, ok := c.Enzymes[key]
	if !ok {
		return guide.Enzyme{}, fmt.Errorf("unknown enzyme %q", name)
	}
	return guide.Enzyme{
		Name:        key,
		PAM:         strings.ToUpper(e.PAM),
		PAMPosition: guide.PAMPosition(e.PAMPosition),
		GuideLength: e.GuideLength,
		HasScores:   e.Scored,
	}, nil
}

// EnzymeSet returns every configured enzyme keyed by lower-cased name.
func (c *Config) EnzymeSet() map[string]guide.Enzyme {
	out := make(map[string]guide.Enzyme, len(c.Enzymes))
	for name := range c.Enzymes {
		e, _ := c.Enzyme(name)
		out[e.Name] = e
	}
	return out
}

// Databases lists configured organism/enzyme guide databases, sorted.
func (c *Config) Databases() [][2]string {
	var out [][2]string
	for org, enzymes := range c.Guides.Paths {
		for enz := range enzymes {
			out = append(out, [2]string{org, enz})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}
