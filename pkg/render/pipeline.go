package render

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/texfig/texfig/pkg/assets"
	"github.com/texfig/texfig/pkg/diagram"
	"github.com/texfig/texfig/pkg/errors"
	"github.com/texfig/texfig/pkg/observability"
)

// Asset is the outcome of one successful pipeline run: a persisted SVG
// addressed by its key. Assets are never mutated after creation and may be
// reused across filter invocations.
type Asset struct {
	Key      diagram.Key
	Path     string
	CacheHit bool
}

// Pipeline turns render requests into persisted SVG assets.
//
// Per request it runs: cache check → render (dialect family toolchain) →
// atomic persist. The cache check is the dominant optimization: repeated
// conversions of an unchanged document invoke no external tool at all.
//
// A Pipeline is safe for concurrent use; renders for independent requests
// may run in parallel.
type Pipeline struct {
	store    *assets.Dir
	logger   *log.Logger
	latex    Renderer
	graphviz Renderer

	// refresh forces re-rendering even when a cached asset exists.
	refresh bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRefresh forces re-rendering, ignoring existing cache entries.
func WithRefresh(refresh bool) Option {
	return func(p *Pipeline) { p.refresh = refresh }
}

// WithLaTeXRenderer replaces the LaTeX family renderer (used in tests and
// by configs selecting a different engine).
func WithLaTeXRenderer(r Renderer) Option {
	return func(p *Pipeline) { p.latex = r }
}

// WithGraphvizRenderer replaces the Graphviz family renderer.
func WithGraphvizRenderer(r Renderer) Option {
	return func(p *Pipeline) { p.graphviz = r }
}

// NewPipeline creates a pipeline persisting into store.
// Defaults: lualatex + pdftocairo for the LaTeX family, in-process Graphviz
// for the DOT family, no refresh.
func NewPipeline(store *assets.Dir, logger *log.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:    store,
		logger:   logger,
		latex:    NewLaTeXRenderer("", 0),
		graphviz: &GraphvizRenderer{},
	}
	if p.logger == nil {
		p.logger = log.Default()
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Store returns the asset directory the pipeline persists into.
func (p *Pipeline) Store() *assets.Dir {
	return p.store
}

// Render produces the asset for one request, reusing the cache when
// possible. On failure the returned error carries the failing stage's code
// and a truncated diagnostic; nothing is persisted for failed renders, so
// the next invocation retries them.
func (p *Pipeline) Render(ctx context.Context, req diagram.Request) (Asset, error) {
	key := diagram.DeriveKey(req.Source, req.Dialect, req.Scheme)

	if !p.refresh && p.store.Exists(key) {
		observability.Cache().OnCacheHit(key.Stem())
		p.logger.Debug("cache hit", "dialect", req.Dialect, "scheme", req.Scheme, "key", key.Hash[:12])
		return Asset{Key: key, Path: p.store.Path(key), CacheHit: true}, nil
	}
	observability.Cache().OnCacheMiss(key.Stem())

	start := time.Now()
	observability.Render().OnRenderStart(ctx, string(req.Dialect), string(req.Scheme))

	svg, err := p.renderer(req.Dialect).Render(ctx, req)
	if err == nil {
		persistStart := time.Now()
		err = p.store.Write(key, svg)
		observability.Render().OnStageComplete(ctx, "persist", time.Since(persistStart), err)
	}

	observability.Render().OnRenderComplete(ctx, string(req.Dialect), string(req.Scheme), time.Since(start), err)
	if err != nil {
		p.logger.Warn("render failed",
			"dialect", req.Dialect,
			"scheme", req.Scheme,
			"stage", FailureStage(err),
			"err", errors.UserMessage(err))
		return Asset{}, err
	}

	p.logger.Debug("rendered",
		"dialect", req.Dialect,
		"scheme", req.Scheme,
		"key", key.Hash[:12],
		"bytes", len(svg),
		"duration", time.Since(start).Round(time.Millisecond))
	return Asset{Key: key, Path: p.store.Path(key)}, nil
}

// renderer selects the toolchain for a dialect.
func (p *Pipeline) renderer(d diagram.Dialect) Renderer {
	if d.Family() == diagram.FamilyGraphviz {
		return p.graphviz
	}
	return p.latex
}

// FailureStage returns the pipeline stage a render error failed in, or
// "render" when the stage cannot be determined.
func FailureStage(err error) string {
	switch errors.GetCode(err) {
	case errors.ErrCodeTypeset:
		return "typeset"
	case errors.ErrCodeVectorize:
		return "vectorize"
	case errors.ErrCodePersist:
		return "persist"
	default:
		return "render"
	}
}
