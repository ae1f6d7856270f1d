// Package render drives the multi-stage conversion of diagram source text
// into cached SVG assets.
//
// External rendering capabilities (typesetting, vectorization) are modeled
// as interfaces, never as direct in-process calls, so the pipeline logic is
// testable by substituting fakes. The concrete implementations shell out to
// lualatex and pdftocairo; the Graphviz family renders in-process through
// goccy/go-graphviz behind the same Renderer boundary.
//
// Every stage invocation is fallible and non-retried: transient
// infrastructure failures are not distinguished from permanent syntax
// errors, and failures are never cached, so the next run retries them.
package render

import (
	"context"

	"github.com/texfig/texfig/pkg/diagram"
)

// Typesetter produces a page-description (PDF) intermediate from a
// standalone typesettable document.
type Typesetter interface {
	Typeset(ctx context.Context, document string) ([]byte, error)
}

// Vectorizer converts a page-description intermediate into an SVG cropped
// to content bounds.
type Vectorizer interface {
	Vectorize(ctx context.Context, pdf []byte) ([]byte, error)
}

// Renderer turns one render request into final SVG bytes.
// Implementations classify their failures with the stage error codes from
// pkg/errors so callers can report which stage failed.
type Renderer interface {
	Render(ctx context.Context, req diagram.Request) ([]byte, error)
}

// maxDiagnostic bounds the diagnostic text captured from a failing external
// tool. The tail is kept: LaTeX puts the actionable error last.
const maxDiagnostic = 400

// truncateDiagnostic keeps the last maxDiagnostic bytes of tool output.
func truncateDiagnostic(s string) string {
	if len(s) <= maxDiagnostic {
		return s
	}
	return s[len(s)-maxDiagnostic:]
}
