package render

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/texfig/texfig/pkg/diagram"
)

// Pair holds the two color variants of one rendered block.
// A Pair is only ever produced complete: partial pairs (light-only) would
// leave the theme-switch embed with a dangling reference.
type Pair struct {
	Light Asset
	Dark  Asset
}

// CacheHit reports whether both variants came from the cache.
func (p Pair) CacheHit() bool {
	return p.Light.CacheHit && p.Dark.CacheHit
}

// RenderPair renders the light and dark variants of a block concurrently.
// Both must succeed; if either fails the whole pair is failed and the first
// error is returned. The two renders share only the read-only source text,
// and their relative order is not observable to callers.
func (p *Pipeline) RenderPair(ctx context.Context, block diagram.Block) (Pair, error) {
	reqs := block.Requests()
	var results [2]Asset

	g, ctx := errgroup.WithContext(ctx)
	for i := range reqs {
		g.Go(func() error {
			asset, err := p.Render(ctx, reqs[i])
			if err != nil {
				return err
			}
			results[i] = asset
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Pair{}, err
	}

	return Pair{Light: results[0], Dark: results[1]}, nil
}
