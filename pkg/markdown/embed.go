package markdown

import (
	"fmt"
	"html"
	"path/filepath"
	"strings"

	"github.com/texfig/texfig/pkg/diagram"
)

// EmbedFormat selects how the theme-aware dual-image construct is emitted.
type EmbedFormat string

const (
	// EmbedMyST emits a pair of MyST div directives with dark:hidden /
	// hidden dark:block classes, for MyST/Sphinx-style sites.
	EmbedMyST EmbedFormat = "myst"

	// EmbedHTML emits a raw HTML block with theme classes for plain
	// markdown renderers that pass HTML through.
	EmbedHTML EmbedFormat = "html"
)

// ValidEmbedFormat reports whether f is a supported embed format.
func ValidEmbedFormat(f EmbedFormat) bool {
	return f == EmbedMyST || f == EmbedHTML
}

// Embed renders the replacement construct for a converted block. The light
// asset is shown in light display contexts, the dark asset in dark ones;
// the switch itself is driven by the emitted CSS classes downstream.
// Asset references always use forward slashes.
func Embed(format EmbedFormat, dialect diagram.Dialect, lightRef, darkRef string) string {
	light := filepath.ToSlash(lightRef)
	dark := filepath.ToSlash(darkRef)

	if format == EmbedHTML {
		return fmt.Sprintf(
			"<div class=\"diagram diagram-%s\" data-theme-switch>\n"+
				"  <img class=\"diagram-light\" src=\"%s\" alt=\"\">\n"+
				"  <img class=\"diagram-dark\" src=\"%s\" alt=\"\">\n"+
				"</div>\n",
			dialect, html.EscapeString(light), html.EscapeString(dark))
	}

	var b strings.Builder
	b.WriteString(":::{div}\n")
	b.WriteString(":class: dark:hidden\n")
	fmt.Fprintf(&b, "![](%s)\n", light)
	b.WriteString(":::\n")
	b.WriteString("\n")
	b.WriteString(":::{div}\n")
	b.WriteString(":class: hidden dark:block\n")
	fmt.Fprintf(&b, "![](%s)\n", dark)
	b.WriteString(":::\n")
	return b.String()
}

// Annotate renders the visible fail-open marker inserted above a block
// whose rendering failed. The original block stays in place below it, so
// the document still converts as a whole.
func Annotate(dialect diagram.Dialect, stage, diagnostic string) string {
	line := firstLine(diagnostic)
	if line == "" {
		return fmt.Sprintf("> **diagram failed to render** (%s, %s stage)\n\n", dialect, stage)
	}
	return fmt.Sprintf("> **diagram failed to render** (%s, %s stage): %s\n\n", dialect, stage, line)
}

// firstLine returns the first non-empty line of tool diagnostics, which is
// usually enough for a human-actionable inline message; the full
// diagnostic goes to the log.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
