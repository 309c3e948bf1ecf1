package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	clearCache bool

	cacheCmd = &cobra.Command{
		Use:     "cache",
		Short:   "Show or clear the synthesized audio cache",
		Long:    paragraph(fmt.Sprintf("\n%s repeated announcements from disk instead of synthesizing them again.", keyword("Serve"))),
		Example: paragraph("announce cache\nannounce cache --clear"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			dc, err := openCache(cfg)
			if err != nil {
				return err
			}
			defer dc.Close() //nolint:errcheck

			stats := dc.Stats()
			w := cmd.OutOrStdout()

			if clearCache {
				if err := dc.Clear(); err != nil {
					return fmt.Errorf("unable to clear cache: %w", err)
				}
				fmt.Fprintf(w, "Removed %d entries (%s) from %s\n", stats.ItemCount, humanize.IBytes(uint64(stats.Size)), dc.Dir()) //nolint:gosec
				return nil
			}

			enabled := "enabled"
			if !cfg.Cache.Enabled {
				enabled = "disabled"
			}
			fmt.Fprintf(w, "Location:  %s (%s)\n", dc.Dir(), enabled)
			fmt.Fprintf(w, "Entries:   %s\n", humanize.Comma(stats.ItemCount))
			fmt.Fprintf(w, "Size:      %s of %s\n", humanize.IBytes(uint64(stats.Size)), humanize.IBytes(uint64(stats.Capacity))) //nolint:gosec
			if stats.ItemCount > 0 {
				fmt.Fprintf(w, "Original:  %s (%.1fx compression)\n", humanize.IBytes(uint64(stats.Original)), stats.CompressionRatio()) //nolint:gosec
				fmt.Fprintf(w, "Last used: %s\n", humanize.RelTime(stats.LastAccess, time.Now(), "ago", "from now"))
			}
			return nil
		},
	}
)

func init() {
	cacheCmd.Flags().BoolVar(&clearCache, "clear", false, "remove every cached entry")
}
