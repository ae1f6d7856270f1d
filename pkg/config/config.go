// Package config loads texfig configuration: an optional TOML file
// (texfig.toml) with environment variable overrides on top. Every field
// has a working default, so running without any config file is the normal
// case.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/texfig/texfig/pkg/diagram"
	"github.com/texfig/texfig/pkg/errors"
	"github.com/texfig/texfig/pkg/markdown"
)

// DefaultFile is the config file looked up in the working directory when
// no explicit path is given.
const DefaultFile = "texfig.toml"

// Config is the full texfig configuration.
type Config struct {
	// CacheDir is where rendered SVG assets are persisted.
	CacheDir string `toml:"cache_dir"`

	// Dialects restricts the recognized language tags. Empty means the
	// built-in default set.
	Dialects []string `toml:"dialects"`

	// Embed selects the replacement construct format: "myst" or "html".
	Embed string `toml:"embed"`

	// Jobs bounds concurrent block renders. Zero picks a default.
	Jobs int `toml:"jobs"`

	LaTeX  LaTeXConfig  `toml:"latex"`
	Server ServerConfig `toml:"server"`
}

// LaTeXConfig configures the LaTeX toolchain.
type LaTeXConfig struct {
	// Engine is the typesetter binary. Default: lualatex.
	Engine string `toml:"engine"`

	// Preamble is extra LaTeX inserted before \begin{document}, for
	// site-specific packages and macros.
	Preamble string `toml:"preamble"`

	// TimeoutSeconds bounds one typeset run. Zero picks a default.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// ServerConfig configures the preview server.
type ServerConfig struct {
	// Addr is the listen address. Default: :8377.
	Addr string `toml:"addr"`

	// Cache selects the server-side render cache backend:
	// "file", "redis", "mongo" or "none". Default: file.
	Cache string `toml:"cache"`

	// RedisURL is the redis connection string for the redis backend.
	RedisURL string `toml:"redis_url"`

	// MongoURI and MongoDB configure the mongo backend.
	MongoURI string `toml:"mongo_uri"`
	MongoDB  string `toml:"mongo_db"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		CacheDir: "media",
		Embed:    string(markdown.EmbedMyST),
		LaTeX: LaTeXConfig{
			Engine: "lualatex",
		},
		Server: ServerConfig{
			Addr:    ":8377",
			Cache:   "file",
			MongoDB: "texfig",
		},
	}
}

// Load reads the config file at path (or DefaultFile when path is empty),
// applies environment overrides and validates the result. A missing
// default file is not an error; a missing explicit file is.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parsing %s", path)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file is fine.
	default:
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "reading %s", path)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv layers TEXFIG_* environment variables over the file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("TEXFIG_CACHE_DIR"); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv("TEXFIG_EMBED"); v != "" {
		c.Embed = v
	}
	if v := os.Getenv("TEXFIG_LATEX_ENGINE"); v != "" {
		c.LaTeX.Engine = v
	}
	if v := os.Getenv("TEXFIG_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TEXFIG_SERVER_CACHE"); v != "" {
		c.Server.Cache = v
	}
	if v := os.Getenv("TEXFIG_REDIS_URL"); v != "" {
		c.Server.RedisURL = v
	}
	if v := os.Getenv("TEXFIG_MONGO_URI"); v != "" {
		c.Server.MongoURI = v
	}
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if c.CacheDir == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache_dir must not be empty")
	}
	if !markdown.ValidEmbedFormat(markdown.EmbedFormat(c.Embed)) {
		return errors.New(errors.ErrCodeInvalidConfig, "embed must be myst or html, got %q", c.Embed)
	}
	if c.Jobs < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "jobs must not be negative")
	}
	if _, err := c.DialectSet(); err != nil {
		return err
	}
	switch c.Server.Cache {
	case "file", "none":
	case "redis":
		if c.Server.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "server.redis_url required for the redis cache")
		}
	case "mongo":
		if c.Server.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "server.mongo_uri required for the mongo cache")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "server.cache must be file, redis, mongo or none, got %q", c.Server.Cache)
	}
	return nil
}

// DialectSet resolves the configured dialect names, or the default set
// when none are configured.
func (c *Config) DialectSet() ([]diagram.Dialect, error) {
	if len(c.Dialects) == 0 {
		return diagram.DefaultDialects, nil
	}
	out := make([]diagram.Dialect, 0, len(c.Dialects))
	for _, name := range c.Dialects {
		d, ok := diagram.Recognize(name, diagram.DefaultDialects)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidDialect, "unknown dialect %q", name)
		}
		out = append(out, d)
	}
	return out, nil
}

// LaTeXTimeout returns the configured typeset timeout as a duration.
// Zero means the renderer default applies.
func (c *Config) LaTeXTimeout() time.Duration {
	return time.Duration(c.LaTeX.TimeoutSeconds) * time.Second
}
