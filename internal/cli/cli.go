// Package cli implements the texfig command-line interface.
package cli

import (
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/texfig/texfig/pkg/assets"
	"github.com/texfig/texfig/pkg/buildinfo"
	"github.com/texfig/texfig/pkg/cache"
	"github.com/texfig/texfig/pkg/config"
	"github.com/texfig/texfig/pkg/filter"
	"github.com/texfig/texfig/pkg/markdown"
	"github.com/texfig/texfig/pkg/render"
)

// appName is the application name used for directories and display.
const appName = "texfig"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is the --config flag value; empty means texfig.toml in
	// the working directory, falling back to defaults.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Texfig renders diagram code blocks in markdown to themed SVG pairs",
		Long:         `Texfig is a markdown filter that finds TikZ, CircuiTikZ and Graphviz code blocks, renders each into a light and a dark SVG, and splices theme-aware image embeds into the document. Assets are content-addressed: unchanged diagrams are never re-rendered.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default texfig.toml)")

	root.AddCommand(c.filterCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig loads the configuration honoring the --config flag.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.configPath)
}

// newPipeline builds a render pipeline for the configured cache directory.
func (c *CLI) newPipeline(cfg config.Config, cacheDir string, refresh bool) (*render.Pipeline, error) {
	if cacheDir == "" {
		cacheDir = cfg.CacheDir
	}
	store, err := assets.Open(cacheDir)
	if err != nil {
		return nil, err
	}
	latex := &render.LaTeXRenderer{
		Typesetter: &render.LuaLaTeX{Engine: cfg.LaTeX.Engine, Timeout: cfg.LaTeXTimeout()},
		Vectorizer: &render.PDFToCairo{},
		Preamble:   cfg.LaTeX.Preamble,
	}
	return render.NewPipeline(store, c.Logger,
		render.WithRefresh(refresh),
		render.WithLaTeXRenderer(latex),
	), nil
}

// newRunner builds a document filter runner on top of a pipeline.
func (c *CLI) newRunner(cfg config.Config, p *render.Pipeline, embed string, jobs int, baseDir string) (*filter.Runner, error) {
	if embed == "" {
		embed = cfg.Embed
	}
	if jobs == 0 {
		jobs = cfg.Jobs
	}
	dialects, err := cfg.DialectSet()
	if err != nil {
		return nil, err
	}
	return filter.NewRunner(p, filter.Options{
		Dialects: dialects,
		Embed:    markdown.EmbedFormat(embed),
		Jobs:     jobs,
		BaseDir:  baseDir,
		Logger:   c.Logger,
	})
}

// newServerCache builds the preview server's render cache from config.
func newServerCache(cmd *cobra.Command, cfg config.Config) (cache.Cache, error) {
	ctx := cmd.Context()
	switch cfg.Server.Cache {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(ctx, cfg.Server.RedisURL)
	case "mongo":
		return cache.NewMongoCache(ctx, cfg.Server.MongoURI, cfg.Server.MongoDB, "renders")
	default:
		return cache.NewFileCache(filepath.Join(cfg.CacheDir, ".server"))
	}
}
