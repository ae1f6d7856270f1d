// Package markdown locates diagram code blocks in markdown documents and
// builds the replacement constructs spliced in for them.
//
// Discovery uses the goldmark AST; replacement works on raw byte ranges of
// the original source. Splicing instead of re-rendering the tree keeps
// every untouched byte of the document byte-identical in the output, which
// is the pass-through contract for non-matching content.
package markdown

import (
	"bytes"
	"sort"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/texfig/texfig/pkg/diagram"
)

// BlockMatch is one recognized diagram block found in a document.
type BlockMatch struct {
	// Block carries the dialect and the verbatim fence body.
	Block diagram.Block

	// Start and End delimit the whole fenced block (opening fence line
	// through closing fence line) as a byte range into the source.
	Start int
	End   int
}

// Scan parses the document and returns all fenced code blocks whose
// language tag matches one of the recognized dialects, in document order.
// Blocks with other tags, or none, are not returned; the caller leaves
// their bytes untouched.
func Scan(source []byte, dialects []diagram.Dialect) []BlockMatch {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))

	var matches []BlockMatch
	_ = ast.Walk(doc, func(node ast.Node, enter bool) (ast.WalkStatus, error) {
		if !enter {
			return ast.WalkContinue, nil
		}

		cb, ok := node.(*ast.FencedCodeBlock)
		if !ok || cb.Info == nil {
			return ast.WalkContinue, nil
		}

		lang := cb.Language(source)
		dialect, ok := diagram.Recognize(string(lang), dialects)
		if !ok {
			return ast.WalkContinue, nil
		}

		start, end := fenceExtent(source, cb)
		matches = append(matches, BlockMatch{
			Block: diagram.Block{Dialect: dialect, Source: fenceBody(source, cb)},
			Start: start,
			End:   end,
		})
		return ast.WalkContinue, nil
	})

	sort.Slice(matches, func(i, j int) bool { return matches[i].Start < matches[j].Start })
	return matches
}

// fenceBody returns the verbatim body of a fenced block, exactly as
// written. No whitespace normalization: identical-looking sources with
// different whitespace may legitimately render differently.
func fenceBody(source []byte, cb *ast.FencedCodeBlock) string {
	var buf bytes.Buffer
	lines := cb.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

// fenceExtent computes the byte range covering the full fenced block,
// including both fence lines. goldmark only exposes the info string and
// body segments, so the fences are recovered from line boundaries.
func fenceExtent(source []byte, cb *ast.FencedCodeBlock) (int, int) {
	info := cb.Info.Segment

	// Opening fence: back up from the info string to the start of its line.
	start := 0
	if idx := bytes.LastIndexByte(source[:info.Start], '\n'); idx >= 0 {
		start = idx + 1
	}

	// Closing fence: the line following the last body line. For an empty
	// block the opening line's newline is consumed first. An unterminated
	// block ends at EOF.
	pos := info.Stop
	if lines := cb.Lines(); lines.Len() > 0 {
		pos = lines.At(lines.Len() - 1).Stop
	} else if idx := bytes.IndexByte(source[pos:], '\n'); idx >= 0 {
		pos += idx + 1
	} else {
		return start, len(source)
	}
	if idx := bytes.IndexByte(source[pos:], '\n'); idx >= 0 {
		return start, pos + idx + 1
	}
	return start, len(source)
}

// Replacement substitutes the byte range [Start, End) with Text.
type Replacement struct {
	Start int
	End   int
	Text  []byte
}

// Splice applies non-overlapping replacements to the source and returns
// the new document. Bytes outside every range are copied verbatim.
// Overlapping replacements indicate a scanner bug and panic.
func Splice(source []byte, repls []Replacement) []byte {
	sorted := make([]Replacement, len(repls))
	copy(sorted, repls)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var out bytes.Buffer
	prev := 0
	for _, r := range sorted {
		if r.Start < prev {
			panic("markdown: overlapping replacements")
		}
		out.Write(source[prev:r.Start])
		out.Write(r.Text)
		prev = r.End
	}
	out.Write(source[prev:])
	return out.Bytes()
}
