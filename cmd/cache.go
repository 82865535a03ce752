package cmd

import (
	"fmt"

	"gatedfm/core/objectcache"
	"gatedfm/storage"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the object cache directory",
}

var cacheLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List cached files, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		files, total, err := objectcache.ScanDir(cfg.CacheDirectory)
		if err != nil {
			return fmt.Errorf("scan %s: %w", cfg.CacheDirectory, err)
		}
		out := cmd.OutOrStdout()
		for _, f := range files {
			mark := ""
			if f.Partial {
				mark = " (partial)"
			}
			fmt.Fprintf(out, "%s  %10s  %s%s\n", f.ModTime.Format("2006-01-02 15:04:05"), storage.FormatSize(f.Size), f.Name, mark)
		}
		fmt.Fprintf(out, "%d files, %s of %s cap\n", len(files), storage.FormatSize(total), storage.FormatSize(cfg.CacheMaxBytes))
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every cached file (stop the server first)",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := objectcache.PurgeDir(cfg.CacheDirectory)
		if err != nil {
			return fmt.Errorf("purge %s: %w", cfg.CacheDirectory, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d files from %s\n", n, cfg.CacheDirectory)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheLsCmd, cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
