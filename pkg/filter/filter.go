// Package filter implements the document transform: it walks a markdown
// document, renders every recognized diagram block into a light/dark SVG
// pair, and splices a theme-aware embed construct in place of each block.
//
// The transform fails open. A block whose rendering fails keeps its
// original content, gains a visible error annotation, and the rest of the
// document still converts; per-block failures never abort the run. Only
// cache-infrastructure failures at startup are fatal.
//
// # Usage
//
//	store, err := assets.Open("media")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	runner, err := filter.NewRunner(render.NewPipeline(store, logger), filter.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := runner.Execute(ctx, input)
package filter

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/texfig/texfig/pkg/diagram"
	"github.com/texfig/texfig/pkg/errors"
	"github.com/texfig/texfig/pkg/markdown"
	"github.com/texfig/texfig/pkg/render"
)

// DefaultJobs bounds block-level render parallelism. External process
// latency dominates wall-clock time, so a small pool is enough.
const DefaultJobs = 4

// Options configures a document transform run.
type Options struct {
	// Dialects is the recognized dialect set. Empty means the default set.
	Dialects []diagram.Dialect

	// Embed selects the replacement construct format. Empty means MyST.
	Embed markdown.EmbedFormat

	// Jobs bounds concurrent block renders. Zero means DefaultJobs capped
	// at GOMAXPROCS.
	Jobs int

	// BaseDir is the directory the output document lives in; asset
	// references are emitted relative to it. Empty means the current
	// directory.
	BaseDir string

	// Logger receives progress and failure logs. Nil means the default.
	Logger *log.Logger

	validated bool
}

// ValidateAndSetDefaults checks the options and applies defaults.
// The method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Dialects) == 0 {
		o.Dialects = diagram.DefaultDialects
	}
	if o.Embed == "" {
		o.Embed = markdown.EmbedMyST
	}
	if !markdown.ValidEmbedFormat(o.Embed) {
		return errors.New(errors.ErrCodeInvalidInput, "invalid embed format: %q (must be myst or html)", o.Embed)
	}
	if o.Jobs <= 0 {
		o.Jobs = min(DefaultJobs, runtime.GOMAXPROCS(0))
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	o.validated = true
	return nil
}

// BlockStatus is the terminal state of one matched block.
type BlockStatus string

const (
	// StatusConverted means both variants rendered and the block was
	// replaced with an embed construct.
	StatusConverted BlockStatus = "converted"

	// StatusFailed means rendering failed and the original block was
	// retained with an error annotation (fail open).
	StatusFailed BlockStatus = "failed"
)

// BlockResult reports the outcome for one matched block, in document order.
type BlockResult struct {
	Dialect diagram.Dialect
	Status  BlockStatus

	// Pair holds the rendered assets for converted blocks.
	Pair render.Pair

	// Stage and Message describe the failure for failed blocks.
	Stage   string
	Message string
}

// Stats summarizes a transform run.
type Stats struct {
	Matched   int
	Converted int
	Failed    int
	CacheHits int // variants served from the asset cache
	Duration  time.Duration
}

// Result is the outcome of one document transform.
type Result struct {
	// Output is the transformed document. Content outside replaced blocks
	// is byte-identical to the input.
	Output []byte

	// Blocks holds per-block outcomes in document order.
	Blocks []BlockResult

	Stats Stats
}

// Runner executes document transforms against one render pipeline.
// A Runner is stateless apart from the pipeline and may be reused.
type Runner struct {
	pipeline *render.Pipeline
	opts     Options
}

// NewRunner creates a runner. The options are validated once here.
func NewRunner(p *render.Pipeline, opts Options) (*Runner, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Runner{pipeline: p, opts: opts}, nil
}

// Execute transforms one document. Blocks are rendered by a bounded worker
// pool; the output preserves document order regardless of completion
// order. The returned error is non-nil only for cancellation - rendering
// failures are reported per block in the result.
func (r *Runner) Execute(ctx context.Context, source []byte) (*Result, error) {
	start := time.Now()
	logger := r.opts.Logger

	matches := markdown.Scan(source, r.opts.Dialects)
	logger.Debug("scanned document", "bytes", len(source), "diagram blocks", len(matches))

	outcomes := make([]BlockResult, len(matches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Jobs)

	for i, m := range matches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pair, err := r.pipeline.RenderPair(gctx, m.Block)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				outcomes[i] = BlockResult{
					Dialect: m.Block.Dialect,
					Status:  StatusFailed,
					Stage:   render.FailureStage(err),
					Message: errors.UserMessage(err),
				}
				return nil
			}
			outcomes[i] = BlockResult{
				Dialect: m.Block.Dialect,
				Status:  StatusConverted,
				Pair:    pair,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Blocks: outcomes}
	repls := make([]markdown.Replacement, 0, len(matches))
	for i, m := range matches {
		out := outcomes[i]
		switch out.Status {
		case StatusConverted:
			repls = append(repls, markdown.Replacement{
				Start: m.Start,
				End:   m.End,
				Text: []byte(markdown.Embed(r.opts.Embed, m.Block.Dialect,
					r.assetRef(out.Pair.Light), r.assetRef(out.Pair.Dark))),
			})
			result.Stats.Converted++
			if out.Pair.Light.CacheHit {
				result.Stats.CacheHits++
			}
			if out.Pair.Dark.CacheHit {
				result.Stats.CacheHits++
			}
		case StatusFailed:
			annotated := append([]byte(markdown.Annotate(m.Block.Dialect, out.Stage, out.Message)),
				source[m.Start:m.End]...)
			repls = append(repls, markdown.Replacement{Start: m.Start, End: m.End, Text: annotated})
			result.Stats.Failed++
		}
	}

	result.Output = markdown.Splice(source, repls)
	result.Stats.Matched = len(matches)
	result.Stats.Duration = time.Since(start)

	logger.Info("transformed document",
		"blocks", result.Stats.Matched,
		"converted", result.Stats.Converted,
		"failed", result.Stats.Failed,
		"cache hits", result.Stats.CacheHits,
		"duration", result.Stats.Duration.Round(time.Millisecond))
	return result, nil
}

// assetRef builds the reference emitted into the embed construct: the
// asset path relative to the output document's directory.
func (r *Runner) assetRef(a render.Asset) string {
	base := r.opts.BaseDir
	if base == "" {
		base = "."
	}
	rel, err := filepath.Rel(base, a.Path)
	if err != nil {
		return filepath.ToSlash(a.Path)
	}
	return filepath.ToSlash(rel)
}

// Describe returns a one-line human summary of the run for CLI output.
func (s Stats) Describe() string {
	return fmt.Sprintf("%d diagram block(s): %d converted, %d failed, %d cached variant(s)",
		s.Matched, s.Converted, s.Failed, s.CacheHits)
}
