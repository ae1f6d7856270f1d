package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/texfig/texfig/pkg/assets"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	var cacheDir string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the rendered asset cache",
	}

	cmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "asset cache directory (default from config, media)")
	cmd.AddCommand(c.cacheClearCommand(&cacheDir))
	cmd.AddCommand(c.cachePathCommand(&cacheDir))

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand(cacheDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all rendered SVG assets",
		Long: `Clear deletes every cached asset. The next filter run re-renders all
diagrams, so this is the remedy when a preamble or style change should
take effect for previously rendered diagrams.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.resolveCacheDir(*cacheDir)
			if err != nil {
				return err
			}

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			store, err := assets.Open(dir)
			if err != nil {
				return err
			}
			count, err := store.Clear()
			if err != nil {
				return err
			}

			printSuccess("Cleared %d cached asset(s)", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand(cacheDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the asset cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.resolveCacheDir(*cacheDir)
			if err != nil {
				return err
			}
			fmt.Println(dir)
			return nil
		},
	}
}

// resolveCacheDir resolves the asset cache directory from the flag or the
// config file.
func (c *CLI) resolveCacheDir(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.CacheDir, nil
}
