package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/texfig/texfig/pkg/diagram"
	"github.com/texfig/texfig/pkg/errors"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	dialect  string // diagram dialect; inferred from the file extension when empty
	scheme   string // "light", "dark" or "both"
	cacheDir string // asset cache directory override
	refresh  bool   // re-render even when cached assets exist
}

// renderCommand creates the render command for rendering one diagram
// source file outside any markdown document. Useful for iterating on a
// diagram before pasting it into a page.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a single diagram source to its SVG pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.dialect, "dialect", "d", "", "diagram dialect: tikz, circuitikz, dot, ... (default from file extension)")
	cmd.Flags().StringVar(&opts.scheme, "scheme", "both", "color scheme: light, dark, both")
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", "", "asset cache directory (default from config, media)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when cached")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts *renderOpts) error {
	ctx := cmd.Context()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	source, err := readDocument(input)
	if err != nil {
		return err
	}

	dialect, err := resolveDialect(opts.dialect, input)
	if err != nil {
		return err
	}
	schemes, err := resolveSchemes(opts.scheme)
	if err != nil {
		return err
	}

	p, err := c.newPipeline(cfg, opts.cacheDir, opts.refresh)
	if err != nil {
		return err
	}

	block := diagram.Block{Dialect: dialect, Source: string(source)}
	spin := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", dialect))
	spin.Start()

	type outcome struct {
		path   string
		cached bool
	}
	var rendered []outcome
	for _, scheme := range schemes {
		asset, err := p.Render(ctx, diagram.Request{Block: block, Scheme: scheme})
		if err != nil {
			spin.StopWithError(fmt.Sprintf("%s render failed", scheme))
			printDetail("%s", errors.UserMessage(err))
			return err
		}
		rendered = append(rendered, outcome{path: asset.Path, cached: asset.CacheHit})
	}
	spin.Stop()

	printSuccess("Rendered %s (%d variant(s))", dialect, len(rendered))
	for _, o := range rendered {
		status := iconFresh
		if o.cached {
			status = iconCached
		}
		printFile(o.path + " " + StyleDim.Render("("+status+")"))
	}
	return nil
}

// resolveDialect picks the dialect from the flag, or from the input file
// extension (diagram.tikz, graph.dot, ...) when the flag is empty.
func resolveDialect(flag, input string) (diagram.Dialect, error) {
	name := flag
	if name == "" {
		name = strings.TrimPrefix(filepath.Ext(input), ".")
	}
	d, ok := diagram.Recognize(name, diagram.DefaultDialects)
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidDialect,
			"cannot determine dialect from %q; pass --dialect", input)
	}
	return d, nil
}

// resolveSchemes expands the --scheme flag into the scheme list.
func resolveSchemes(flag string) ([]diagram.Scheme, error) {
	switch flag {
	case "both", "":
		both := diagram.Schemes()
		return both[:], nil
	case string(diagram.SchemeLight):
		return []diagram.Scheme{diagram.SchemeLight}, nil
	case string(diagram.SchemeDark):
		return []diagram.Scheme{diagram.SchemeDark}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidScheme,
			"invalid scheme %q (must be light, dark or both)", flag)
	}
}
