package diagram

import (
	"fmt"
	"strings"
)

// docTemplate is the minimal standalone LaTeX wrapper used to typeset a
// diagram. The three slots are: scheme style overrides, user preamble, body.
const docTemplate = `\documentclass[border=2pt]{standalone}
\usepackage{tikz}
\usepackage[siunitx, straight voltages, european]{circuitikz}
\usetikzlibrary{automata, positioning, arrows, circuits.ee.IEC}
\ctikzset{>=latex, tripoles/european not symbol=ieee circle}
%s
%s
\begin{document}
%s
\end{document}
`

// Scheme style overrides force monochrome rendering so the two variants are
// visually distinct but structurally identical.
const (
	styleLight = `\tikzset{every node/.style={text=black,fill=none},every path/.style={draw=black,fill=none}}`
	styleDark  = `\tikzset{every node/.style={text=white,fill=none},every path/.style={draw=white,fill=none}}`
)

// SchemeStyle returns the TikZ style overrides for a color scheme.
func SchemeStyle(scheme Scheme) string {
	if scheme == SchemeDark {
		return styleDark
	}
	return styleLight
}

// WrapLaTeX embeds a diagram source into a standalone typesettable document
// for the given scheme. Sources that do not already open the dialect's own
// environment are wrapped in it, so fenced blocks may contain either a full
// \begin{tikzpicture}...\end{tikzpicture} or just its contents. Inner
// environments such as scope do not suppress the wrapping. The extra
// preamble is inserted verbatim after the built-in one.
func WrapLaTeX(req Request, preamble string) string {
	body := req.Source
	env := req.Dialect.environment()
	if !strings.Contains(body, `\begin{`+env+`}`) {
		body = `\begin{` + env + "}\n" + body + "\n" + `\end{` + env + `}`
	}
	return fmt.Sprintf(docTemplate, SchemeStyle(req.Scheme), preamble, body)
}
