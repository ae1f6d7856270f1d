package render

import (
	"context"
	"time"

	"github.com/texfig/texfig/pkg/diagram"
	"github.com/texfig/texfig/pkg/observability"
)

// LaTeXRenderer renders the LaTeX dialect family: the request source is
// wrapped into a standalone document for the requested scheme, typeset to a
// PDF, and vectorized to SVG.
type LaTeXRenderer struct {
	Typesetter Typesetter
	Vectorizer Vectorizer

	// Preamble is extra LaTeX inserted after the built-in preamble,
	// e.g. additional \usetikzlibrary lines from the config file.
	Preamble string
}

// NewLaTeXRenderer builds the default toolchain: lualatex + pdftocairo.
func NewLaTeXRenderer(preamble string, timeout time.Duration) *LaTeXRenderer {
	return &LaTeXRenderer{
		Typesetter: &LuaLaTeX{Timeout: timeout},
		Vectorizer: &PDFToCairo{},
		Preamble:   preamble,
	}
}

// Render runs wrap → typeset → vectorize for one request. Stage failures
// short-circuit and carry their stage code; the wrap stage is pure and
// cannot fail.
func (r *LaTeXRenderer) Render(ctx context.Context, req diagram.Request) ([]byte, error) {
	document := diagram.WrapLaTeX(req, r.Preamble)

	start := time.Now()
	pdf, err := r.Typesetter.Typeset(ctx, document)
	observability.Render().OnStageComplete(ctx, "typeset", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	svg, err := r.Vectorizer.Vectorize(ctx, pdf)
	observability.Render().OnStageComplete(ctx, "vectorize", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return svg, nil
}

// Ensure LaTeXRenderer implements Renderer.
var _ Renderer = (*LaTeXRenderer)(nil)
