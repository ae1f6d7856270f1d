// Package diagram defines the core domain types for texfig: diagram
// dialects, color schemes, source blocks, and content-addressed asset keys.
//
// A diagram block is a fenced code region tagged with a recognized dialect.
// Every block is rendered twice, once per color scheme, and both renders are
// addressed by deterministic keys derived from the verbatim source text.
package diagram

import "strings"

// Scheme selects the color variant of a rendered diagram.
type Scheme string

// The two supported color schemes. Light uses black strokes on a transparent
// background (visible on light pages), Dark uses white strokes.
const (
	SchemeLight Scheme = "light"
	SchemeDark  Scheme = "dark"
)

// Schemes returns both color schemes in canonical order.
func Schemes() [2]Scheme {
	return [2]Scheme{SchemeLight, SchemeDark}
}

// Family identifies the rendering toolchain a dialect belongs to.
type Family int

const (
	// FamilyLaTeX dialects are typeset with a LaTeX engine and vectorized
	// from the resulting PDF.
	FamilyLaTeX Family = iota

	// FamilyGraphviz dialects are rendered directly to SVG by Graphviz.
	FamilyGraphviz
)

// Dialect is a recognized diagram language tag.
type Dialect string

// Recognized dialects. The LaTeX family shares one typesetting toolchain;
// the tag selects which environment the source is wrapped in.
const (
	DialectTikZ       Dialect = "tikz"
	DialectCircuiTikZ Dialect = "circuitikz"
	DialectPicture    Dialect = "picture"
	DialectDot        Dialect = "dot"
	DialectGraphviz   Dialect = "graphviz"
)

// DefaultDialects is the default recognized dialect set.
var DefaultDialects = []Dialect{
	DialectTikZ,
	DialectCircuiTikZ,
	DialectPicture,
	DialectDot,
	DialectGraphviz,
}

// Family returns the toolchain family for the dialect.
func (d Dialect) Family() Family {
	switch d {
	case DialectDot, DialectGraphviz:
		return FamilyGraphviz
	default:
		return FamilyLaTeX
	}
}

// environment returns the LaTeX environment name used to wrap bare sources.
// Only meaningful for the LaTeX family.
func (d Dialect) environment() string {
	switch d {
	case DialectCircuiTikZ:
		return "circuitikz"
	case DialectPicture:
		return "picture"
	default:
		return "tikzpicture"
	}
}

// Recognize matches a fence language tag against the given dialect set.
// Matching is case-insensitive and ignores surrounding whitespace.
// Unrecognized tags are not an error; the caller passes those blocks through.
func Recognize(tag string, dialects []Dialect) (Dialect, bool) {
	normalized := strings.ToLower(strings.TrimSpace(tag))
	for _, d := range dialects {
		if normalized == string(d) {
			return d, true
		}
	}
	return "", false
}

// Block is a diagram code block read from the source document.
// The source text is verbatim and must never be altered: whitespace-sensitive
// dialects may legitimately render differently for identical-looking inputs.
type Block struct {
	Dialect Dialect
	Source  string
}

// Request pairs a block with one color scheme. Two requests, one per scheme,
// are derived from each block and must share the exact same source text.
type Request struct {
	Block
	Scheme Scheme
}

// Requests derives the light and dark render requests for a block.
func (b Block) Requests() [2]Request {
	return [2]Request{
		{Block: b, Scheme: SchemeLight},
		{Block: b, Scheme: SchemeDark},
	}
}
