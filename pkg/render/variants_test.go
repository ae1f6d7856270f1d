package render

import (
	"context"
	"testing"

	"github.com/texfig/texfig/pkg/diagram"
)

func TestRenderPairBothVariants(t *testing.T) {
	p := newTestPipeline(t, &fakeTypesetter{}, &fakeVectorizer{})

	block := diagram.Block{Dialect: diagram.DialectTikZ, Source: `\node {hi};`}
	pair, err := p.RenderPair(context.Background(), block)
	if err != nil {
		t.Fatalf("RenderPair error: %v", err)
	}

	if pair.Light.Key.Scheme != diagram.SchemeLight {
		t.Errorf("light asset scheme = %q", pair.Light.Key.Scheme)
	}
	if pair.Dark.Key.Scheme != diagram.SchemeDark {
		t.Errorf("dark asset scheme = %q", pair.Dark.Key.Scheme)
	}
	if pair.Light.Path == pair.Dark.Path {
		t.Error("variants must have distinct paths")
	}
	if !p.Store().Exists(pair.Light.Key) || !p.Store().Exists(pair.Dark.Key) {
		t.Error("both variant files must exist")
	}
}

func TestRenderPairFailsWhenOneVariantFails(t *testing.T) {
	// Fail only the dark variant (its wrapped document forces white text).
	ts := &fakeTypesetter{failWhen: "text=white"}
	p := newTestPipeline(t, ts, &fakeVectorizer{})

	block := diagram.Block{Dialect: diagram.DialectTikZ, Source: `\node {hi};`}
	pair, err := p.RenderPair(context.Background(), block)
	if err == nil {
		t.Fatal("pair with one failing variant must fail as a whole")
	}
	if pair != (Pair{}) {
		t.Error("failed pair must not expose a partial result")
	}
}

func TestRenderPairCacheHit(t *testing.T) {
	p := newTestPipeline(t, &fakeTypesetter{}, &fakeVectorizer{})
	ctx := context.Background()
	block := diagram.Block{Dialect: diagram.DialectTikZ, Source: `\node {hi};`}

	if _, err := p.RenderPair(ctx, block); err != nil {
		t.Fatal(err)
	}
	pair, err := p.RenderPair(ctx, block)
	if err != nil {
		t.Fatal(err)
	}
	if !pair.CacheHit() {
		t.Error("second pair render should be a full cache hit")
	}
}

func TestRenderPairCancelled(t *testing.T) {
	p := newTestPipeline(t, &fakeTypesetter{}, &fakeVectorizer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled context may still succeed via the cache path; with an
	// empty cache the fakes ignore ctx, so just ensure no panic and a
	// consistent pair-or-error outcome.
	pair, err := p.RenderPair(ctx, diagram.Block{Dialect: diagram.DialectTikZ, Source: `\node {x};`})
	if err == nil {
		if pair.Light.Path == "" || pair.Dark.Path == "" {
			t.Error("successful pair must reference both assets")
		}
	}
}
