package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/texfig/texfig/pkg/diagram"
	"github.com/texfig/texfig/pkg/errors"
	"github.com/texfig/texfig/pkg/filter"
)

func TestRootCommandWiring(t *testing.T) {
	c := New(&bytes.Buffer{}, log.InfoLevel)
	root := c.RootCommand()

	if root.Use != "texfig" {
		t.Errorf("root.Use = %q", root.Use)
	}

	want := map[string]bool{"filter": false, "render": false, "serve": false, "cache": false, "completion": false}
	for _, sub := range root.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestResolveDialect(t *testing.T) {
	tests := []struct {
		flag  string
		input string
		want  diagram.Dialect
		ok    bool
	}{
		{"", "fig.tikz", diagram.DialectTikZ, true},
		{"", "graph.dot", diagram.DialectDot, true},
		{"circuitikz", "whatever.txt", diagram.DialectCircuiTikZ, true},
		{"dot", "fig.tikz", diagram.DialectDot, true}, // flag wins
		{"", "notes.md", "", false},
		{"mermaid", "fig.mmd", "", false},
	}
	for _, tt := range tests {
		got, err := resolveDialect(tt.flag, tt.input)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("resolveDialect(%q, %q) = %q, %v; want %q", tt.flag, tt.input, got, err, tt.want)
		}
		if !tt.ok && err == nil {
			t.Errorf("resolveDialect(%q, %q) should fail", tt.flag, tt.input)
		}
	}
}

func TestResolveSchemes(t *testing.T) {
	both, err := resolveSchemes("both")
	if err != nil || len(both) != 2 {
		t.Errorf("both = %v, %v", both, err)
	}
	light, err := resolveSchemes("light")
	if err != nil || len(light) != 1 || light[0] != diagram.SchemeLight {
		t.Errorf("light = %v, %v", light, err)
	}
	if _, err := resolveSchemes("sepia"); err == nil {
		t.Error("unknown scheme should fail")
	}
}

func TestWriteDocumentCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "doc.md")
	if err := writeDocument(path, []byte("content\n")); err != nil {
		t.Fatalf("writeDocument error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "content\n" {
		t.Errorf("written content = %q", data)
	}
}

func TestWriteDocumentUnusableDirectory(t *testing.T) {
	occupied := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(occupied, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := writeDocument(filepath.Join(occupied, "nested", "doc.md"), []byte("content\n"))
	if err == nil {
		t.Fatal("writing below a regular file should fail")
	}
	if got := errors.GetCode(err); got != errors.ErrCodeInvalidInput {
		t.Errorf("error code = %v, want %v", got, errors.ErrCodeInvalidInput)
	}
}

func TestFailureWarningsKeepStdoutClean(t *testing.T) {
	// In pipe mode stdout carries the document; warnings about failed
	// blocks must not leak into it.
	doc := []byte("# doc\n")

	origOut, origErr := os.Stdout, os.Stderr
	outR, outW, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout, os.Stderr = outW, errW
	defer func() { os.Stdout, os.Stderr = origOut, origErr }()

	if err := writeDocument("", doc); err != nil {
		t.Fatalf("writeDocument error: %v", err)
	}
	reportFailures([]filter.BlockResult{{
		Dialect: diagram.DialectTikZ,
		Status:  filter.StatusFailed,
		Stage:   "typeset",
		Message: "! Undefined control sequence",
	}})

	outW.Close()
	errW.Close()
	stdout, _ := io.ReadAll(outR)
	stderr, _ := io.ReadAll(errR)
	os.Stdout, os.Stderr = origOut, origErr

	if !bytes.Equal(stdout, doc) {
		t.Errorf("stdout must carry only the document, got %q", stdout)
	}
	if !strings.Contains(string(stderr), "tikz block failed in typeset stage") {
		t.Errorf("failure warning missing from stderr: %q", stderr)
	}
	if !strings.Contains(string(stderr), "Undefined control sequence") {
		t.Errorf("failure detail missing from stderr: %q", stderr)
	}
}

func TestReadDocumentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.md")
	if err := os.WriteFile(path, []byte("# hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := readDocument(path)
	if err != nil || string(data) != "# hi\n" {
		t.Errorf("readDocument = %q, %v", data, err)
	}
	if _, err := readDocument(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Error("missing input file should error")
	}
}

func TestCacheClearCommand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"tikz_aaa_light.svg", "tikz_aaa_dark.svg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("<svg/>"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	c := New(&bytes.Buffer{}, log.InfoLevel)
	root := c.RootCommand()
	root.SetArgs([]string{"cache", "clear", "--cache-dir", dir})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache clear error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("%d entries remain after clear", len(entries))
	}
}

func TestCachePathCommand(t *testing.T) {
	c := New(&bytes.Buffer{}, log.InfoLevel)
	root := c.RootCommand()
	root.SetArgs([]string{"cache", "path", "--cache-dir", "custom-media"})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache path error: %v", err)
	}
}
