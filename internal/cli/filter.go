package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/texfig/texfig/pkg/errors"
	"github.com/texfig/texfig/pkg/filter"
)

// filterOpts holds the command-line flags for the filter command.
type filterOpts struct {
	output   string // output file path; empty or "-" means stdout
	cacheDir string // asset cache directory override
	embed    string // embed format override: myst, html
	jobs     int    // concurrent block renders
	refresh  bool   // re-render even when cached assets exist
}

// filterCommand creates the filter command, the main entry point: it reads
// a markdown document, renders its diagram blocks and writes the
// transformed document.
func (c *CLI) filterCommand() *cobra.Command {
	var opts filterOpts

	cmd := &cobra.Command{
		Use:   "filter [file]",
		Short: "Transform a markdown document, rendering its diagram blocks",
		Long: `Filter reads a markdown document (a file argument, or stdin when absent
or "-"), renders every recognized diagram code block into a light and a
dark SVG, and writes the document with theme-aware embeds spliced in.

Blocks that fail to render are kept verbatim with a visible annotation;
the command still exits 0 so document builds keep working. Unchanged
diagrams are served from the asset cache without invoking LaTeX.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runFilter(cmd, input, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", "", "asset cache directory (default from config, media)")
	cmd.Flags().StringVar(&opts.embed, "embed", "", "embed format: myst (default), html")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "concurrent diagram renders")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render diagrams even when cached")

	return cmd
}

func (c *CLI) runFilter(cmd *cobra.Command, input string, opts *filterOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	source, err := readDocument(input)
	if err != nil {
		return err
	}

	// Asset references are relative to where the output document lives.
	baseDir := "."
	if opts.output != "" && opts.output != "-" {
		baseDir = filepath.Dir(opts.output)
	} else if input != "" && input != "-" {
		baseDir = filepath.Dir(input)
	}

	p, err := c.newPipeline(cfg, opts.cacheDir, opts.refresh)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(cfg, p, opts.embed, opts.jobs, baseDir)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	spin := newSpinnerWithContext(ctx, "Rendering diagrams...")
	spin.Start()

	result, err := runner.Execute(ctx, source)
	spin.Stop()
	if err != nil {
		return err
	}
	prog.done(result.Stats.Describe())

	if err := writeDocument(opts.output, result.Output); err != nil {
		return err
	}

	if opts.output != "" && opts.output != "-" {
		printSuccess("Wrote %s", opts.output)
		printStats(result.Stats)
		printNextStep("Preview rendered assets", appName+" serve")
	}
	reportFailures(result.Blocks)
	return nil
}

// reportFailures prints one warning line per failed block, on stderr so a
// document on stdout stays intact. Failures do not change the exit status:
// the document was still produced.
func reportFailures(blocks []filter.BlockResult) {
	for _, b := range blocks {
		if b.Status != filter.StatusFailed {
			continue
		}
		printWarning("%s block failed in %s stage", b.Dialect, b.Stage)
		if b.Message != "" {
			printDetail("%s", b.Message)
		}
	}
}

// readDocument reads the input document from a file, or stdin for "" / "-".
func readDocument(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// writeDocument writes the transformed document to a file, or stdout for
// "" / "-".
func writeDocument(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "create output directory %s", dir)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
