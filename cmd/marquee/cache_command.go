package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"marquee/internal/config"
	"marquee/internal/logging"
	"marquee/internal/mediacache"
	"marquee/internal/schedule"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Media cache utilities",
	}

	lsCmd := &cobra.Command{
		Use:   "ls",
		Short: "List cached media files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cache, err := openCache(cfg)
			if err != nil {
				return err
			}
			entries, err := cache.List()
			if err != nil {
				return fmt.Errorf("list cache: %w", err)
			}
			stdout := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(stdout, "Media cache is empty")
				return nil
			}
			headers := []string{"File", "Size", "Modified"}
			rows := make([][]string, 0, len(entries))
			var total int64
			for _, entry := range entries {
				total += entry.Size
				rows = append(rows, []string{
					entry.Name,
					formatBytes(entry.Size),
					entry.Modified.Local().Format("2006-01-02 15:04:05"),
				})
			}
			fmt.Fprintln(stdout, renderTable(headers, rows, 2))
			fmt.Fprintf(stdout, "%d file(s), %s total\n", len(entries), formatBytes(total))
			return nil
		},
	}

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove cached files not referenced by the stored schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cache, err := openCache(cfg)
			if err != nil {
				return err
			}
			snap, err := schedule.NewStore(cfg.Paths.DataDir).Load()
			if err != nil {
				return fmt.Errorf("load stored schedule: %w", err)
			}
			var keep []schedule.MediaItem
			if snap != nil {
				keep = snap.Media
			}
			removed, err := cache.Prune(keep)
			if err != nil {
				return fmt.Errorf("prune cache: %w", err)
			}
			stdout := cmd.OutOrStdout()
			if len(removed) == 0 {
				fmt.Fprintln(stdout, "Nothing to prune")
				return nil
			}
			for _, name := range removed {
				fmt.Fprintf(stdout, "Removed %s\n", name)
			}
			fmt.Fprintf(stdout, "Pruned %d file(s)\n", len(removed))
			return nil
		},
	}

	cacheCmd.AddCommand(lsCmd)
	cacheCmd.AddCommand(pruneCmd)
	return cacheCmd
}

func openCache(cfg *config.Config) (*mediacache.Cache, error) {
	cache, err := mediacache.New(cfg.Paths.MediaCacheDir, logging.NewNop())
	if err != nil {
		return nil, fmt.Errorf("open media cache: %w", err)
	}
	return cache, nil
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGT"[exp])
}
