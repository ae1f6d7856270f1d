package filter

import (
	"context"
	"strings"
	"testing"

	"github.com/texfig/texfig/pkg/assets"
	"github.com/texfig/texfig/pkg/diagram"
	"github.com/texfig/texfig/pkg/errors"
	"github.com/texfig/texfig/pkg/markdown"
	"github.com/texfig/texfig/pkg/render"
)

// fakeTypesetter fails for documents containing failWhen, succeeds otherwise.
type fakeTypesetter struct {
	failWhen string
}

func (f *fakeTypesetter) Typeset(ctx context.Context, document string) ([]byte, error) {
	if f.failWhen != "" && strings.Contains(document, f.failWhen) {
		return nil, errors.New(errors.ErrCodeTypeset, "! Undefined control sequence")
	}
	return []byte("%PDF-fake"), nil
}

type fakeVectorizer struct{}

func (fakeVectorizer) Vectorize(ctx context.Context, pdf []byte) ([]byte, error) {
	return []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"/>`), nil
}

func newTestRunner(t *testing.T, ts render.Typesetter, opts Options) (*Runner, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := assets.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if ts == nil {
		ts = &fakeTypesetter{}
	}
	p := render.NewPipeline(store, nil,
		render.WithLaTeXRenderer(&render.LaTeXRenderer{Typesetter: ts, Vectorizer: fakeVectorizer{}}))
	if opts.BaseDir == "" {
		opts.BaseDir = dir
	}
	r, err := NewRunner(p, opts)
	if err != nil {
		t.Fatal(err)
	}
	return r, dir
}

const singleBlockDoc = "# Doc\n\nIntro prose.\n\n```tikz\n\\draw (0,0) -- (1,1);\n```\n\nOutro prose.\n"

func TestExecuteConvertsBlock(t *testing.T) {
	r, _ := newTestRunner(t, nil, Options{})

	res, err := r.Execute(context.Background(), []byte(singleBlockDoc))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	out := string(res.Output)
	if strings.Contains(out, "```tikz") {
		t.Error("converted block should be replaced, not retained")
	}
	if !strings.Contains(out, ":class: dark:hidden") || !strings.Contains(out, ":class: hidden dark:block") {
		t.Error("output should contain both theme variants")
	}
	if !strings.Contains(out, "Intro prose.") || !strings.Contains(out, "Outro prose.") {
		t.Error("surrounding prose must pass through")
	}
	if res.Stats.Converted != 1 || res.Stats.Failed != 0 {
		t.Errorf("stats = %+v", res.Stats)
	}
}

func TestExecutePersistsBothVariants(t *testing.T) {
	r, _ := newTestRunner(t, nil, Options{})

	res, err := r.Execute(context.Background(), []byte(singleBlockDoc))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Blocks) != 1 {
		t.Fatalf("got %d block results, want 1", len(res.Blocks))
	}

	pair := res.Blocks[0].Pair
	for _, a := range []render.Asset{pair.Light, pair.Dark} {
		if _, err := r.pipeline.Store().Read(a.Key); err != nil {
			t.Errorf("variant %s not persisted: %v", a.Key.Stem(), err)
		}
	}
	if pair.Light.Path == pair.Dark.Path {
		t.Error("variants must be distinct files")
	}
}

func TestExecuteNoBlocksPassThrough(t *testing.T) {
	doc := []byte("# Plain\n\n```python\nx = 1\n```\n\ntext\n")
	r, _ := newTestRunner(t, nil, Options{})

	res, err := r.Execute(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Output) != string(doc) {
		t.Error("document without diagram blocks must be byte-identical")
	}
	if res.Stats.Matched != 0 {
		t.Errorf("matched = %d, want 0", res.Stats.Matched)
	}
}

func TestExecuteFailOpen(t *testing.T) {
	doc := "```tikz\n\\drow (0,0);\n```\n\n```tikz\n\\draw (0,0);\n```\n"
	r, _ := newTestRunner(t, &fakeTypesetter{failWhen: `\drow`}, Options{})

	res, err := r.Execute(context.Background(), []byte(doc))
	if err != nil {
		t.Fatalf("per-block failures must not fail the run: %v", err)
	}

	out := string(res.Output)
	if !strings.Contains(out, "> **diagram failed to render**") {
		t.Error("failed block needs a visible annotation")
	}
	if !strings.Contains(out, "```tikz\n\\drow (0,0);\n```") {
		t.Error("failed block must retain its original content")
	}
	if strings.Contains(out, "\\draw (0,0);") {
		t.Error("healthy block should still convert")
	}
	if res.Stats.Converted != 1 || res.Stats.Failed != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.Blocks[0].Status != StatusFailed || res.Blocks[0].Stage != "typeset" {
		t.Errorf("first block result = %+v", res.Blocks[0])
	}
}

func TestExecuteFailedBlockNoPartialEmbed(t *testing.T) {
	// The dark variant typesets a white-stroke document; failing only that
	// variant must still fail the whole block - never a one-variant embed.
	doc := "```tikz\n\\draw (0,0);\n```\n"
	r, _ := newTestRunner(t, &fakeTypesetter{failWhen: "text=white"}, Options{})

	res, err := r.Execute(context.Background(), []byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Failed != 1 {
		t.Fatalf("stats = %+v", res.Stats)
	}
	if strings.Contains(string(res.Output), "![](") {
		t.Error("no embed may be emitted for a half-failed block")
	}
}

func TestExecuteCacheHitsOnRerun(t *testing.T) {
	r, _ := newTestRunner(t, nil, Options{})
	ctx := context.Background()

	first, err := r.Execute(ctx, []byte(singleBlockDoc))
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Execute(ctx, []byte(singleBlockDoc))
	if err != nil {
		t.Fatal(err)
	}

	if first.Stats.CacheHits != 0 {
		t.Errorf("first run cache hits = %d, want 0", first.Stats.CacheHits)
	}
	if second.Stats.CacheHits != 2 {
		t.Errorf("second run cache hits = %d, want 2 (both variants)", second.Stats.CacheHits)
	}
	if string(first.Output) != string(second.Output) {
		t.Error("reruns over an unchanged document must produce identical output")
	}
}

func TestExecuteHTMLEmbed(t *testing.T) {
	r, _ := newTestRunner(t, nil, Options{Embed: markdown.EmbedHTML})

	res, err := r.Execute(context.Background(), []byte(singleBlockDoc))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(res.Output), `<div class="diagram diagram-tikz"`) {
		t.Errorf("output missing HTML embed:\n%s", res.Output)
	}
}

func TestExecuteRelativeRefs(t *testing.T) {
	r, _ := newTestRunner(t, nil, Options{})

	res, err := r.Execute(context.Background(), []byte(singleBlockDoc))
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range strings.Split(string(res.Output), "\n") {
		if strings.HasPrefix(line, "![](") {
			ref := strings.TrimSuffix(strings.TrimPrefix(line, "![]("), ")")
			if strings.HasPrefix(ref, "/") {
				t.Errorf("reference should be relative to the output dir: %q", ref)
			}
			if !strings.HasSuffix(ref, ".svg") {
				t.Errorf("reference should point at an SVG: %q", ref)
			}
		}
	}
}

func TestExecuteCancellation(t *testing.T) {
	r, _ := newTestRunner(t, nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Execute(ctx, []byte(singleBlockDoc)); err == nil {
		t.Error("cancelled context must abort the run")
	}
}

func TestOptionsValidation(t *testing.T) {
	opts := Options{Embed: "pdf"}
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Error("unknown embed format must be rejected")
	}
	if errors.GetCode(opts.ValidateAndSetDefaults()) != errors.ErrCodeInvalidInput {
		t.Error("validation errors carry the invalid-input code")
	}

	opts = Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Jobs <= 0 || len(opts.Dialects) == 0 || opts.Embed != markdown.EmbedMyST {
		t.Errorf("defaults not applied: %+v", opts)
	}
}

func TestRunnerDialectSubset(t *testing.T) {
	doc := "```dot\ndigraph G { a -> b; }\n```\n\n```tikz\n\\draw (0,0);\n```\n"
	r, _ := newTestRunner(t, nil, Options{Dialects: []diagram.Dialect{diagram.DialectTikZ}})

	res, err := r.Execute(context.Background(), []byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Matched != 1 {
		t.Fatalf("matched = %d, want 1 (dot excluded)", res.Stats.Matched)
	}
	if !strings.Contains(string(res.Output), "```dot") {
		t.Error("excluded dialect block must pass through unchanged")
	}
}
