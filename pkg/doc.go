// Package pkg provides the core libraries for texfig diagram rendering.
//
// # Overview
//
// Texfig turns diagram code blocks inside markdown documents into paired
// light/dark SVG assets. The pkg directory is organized around the render
// path:
//
//  1. [diagram] - Dialects, color schemes, asset keys, LaTeX document wrapping
//  2. [markdown] - Block discovery and byte-exact document splicing
//  3. [render] - The cache-aware render pipeline and its toolchains
//  4. [assets] - The content-addressed on-disk asset store
//  5. [filter] - Document-level orchestration with fail-open semantics
//  6. [cache] - Byte caches backing the preview server
//  7. [config] - TOML configuration with environment overrides
//
// # Architecture
//
// The typical data flow through texfig:
//
//	Markdown Document
//	         ↓
//	markdown.Scan          locate recognized diagram blocks
//	         ↓
//	render.Pipeline        per block, per scheme: cache check →
//	                       typeset/graphviz → vectorize → persist
//	         ↓
//	markdown.Splice        replace blocks with theme-aware embeds
//	         ↓
//	Transformed Document + media/*.svg
//
// Rendering is content-addressed: an unchanged diagram source never
// reaches the external toolchain again. Failures are contained per block;
// the document as a whole always converts.
package pkg
