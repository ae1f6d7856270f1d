package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/texfig/texfig/pkg/diagram"
	"github.com/texfig/texfig/pkg/errors"
)

// GraphvizRenderer renders the Graphviz dialect family in-process.
// Typeset and vectorize collapse into a single stage here; failures are
// reported with the typeset code since they indicate bad diagram source.
type GraphvizRenderer struct{}

// Render applies the scheme's colors to the DOT source and renders SVG.
func (g *GraphvizRenderer) Render(ctx context.Context, req diagram.Request) ([]byte, error) {
	dot := injectScheme(req.Source, req.Scheme)

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "init graphviz")
	}
	defer gv.Close()

	parsed, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTypeset, err, "parse DOT: %s", truncateDiagnostic(err.Error()))
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, parsed, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTypeset, err, "render DOT: %s", truncateDiagnostic(err.Error()))
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// schemeColor returns the stroke/text color for a scheme.
func schemeColor(scheme diagram.Scheme) string {
	if scheme == diagram.SchemeDark {
		return "white"
	}
	return "black"
}

// injectScheme inserts color attributes after the opening brace of the
// graph so the two variants are visually distinct but structurally
// identical. Explicit colors in the source still win: Graphviz applies the
// last attribute statement before a node/edge declaration, and these are
// inserted first.
func injectScheme(dot string, scheme diagram.Scheme) string {
	color := schemeColor(scheme)
	attrs := fmt.Sprintf(
		"\n  bgcolor=\"transparent\";\n  node [color=%q, fontcolor=%q];\n  edge [color=%q, fontcolor=%q];\n",
		color, color, color, color)

	idx := strings.Index(dot, "{")
	if idx < 0 {
		return dot
	}
	return dot[:idx+1] + attrs + dot[idx+1:]
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg element with an origin-based
// viewBox and explicit pixel dimensions so downstream embeds size
// consistently across browsers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// Ensure GraphvizRenderer implements Renderer.
var _ Renderer = (*GraphvizRenderer)(nil)
