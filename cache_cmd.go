package main

import (
	"errors"
	"fmt"

	"github.com/advancedtts/advtts/internal/cache"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune the render cache",
		Args:  cobra.NoArgs,
	}

	cacheStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show render cache usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := openCache()
			if err != nil {
				return err
			}
			defer func() { _ = rc.Close() }()

			stats := rc.Stats()
			if listJSON {
				out := make(map[string]cache.Stats, len(stats))
				for level, s := range stats {
					out[level.String()] = s
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}

			t := newTable("TIER", "ITEMS", "SIZE", "CAPACITY", "HIT RATE")
			for _, level := range []cache.Level{cache.LevelMemory, cache.LevelDisk} {
				s, ok := stats[level]
				if !ok {
					continue
				}
				t.Row(
					level.String(),
					humanize.Comma(s.ItemCount),
					humanize.Bytes(uint64(s.Size)),     //nolint:gosec
					humanize.Bytes(uint64(s.Capacity)), //nolint:gosec
					fmt.Sprintf("%.0f%%", s.HitRate()*100),
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t)
			fmt.Fprintln(cmd.OutOrStdout(), faintStyle.Render("  "+cfg.Cache.Dir))
			return nil
		},
	}

	cachePruneCmd = &cobra.Command{
		Use:   "prune",
		Short: "Remove renders older than cache.ttl",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := openCache()
			if err != nil {
				return err
			}
			n, err := rc.Prune()
			err = errors.Join(err, rc.Close())
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d renders older than %s\n", n, cfg.Cache.TTL)
			return err
		},
	}
)

func openCache() (*cache.RenderCache, error) {
	if !cfg.Cache.Enabled {
		return nil, errors.New("the render cache is disabled (cache.enabled: false)")
	}
	return cache.New(cfg.CacheConfig())
}

func init() {
	cacheStatsCmd.Flags().BoolVar(&listJSON, "json", false, "print as JSON")
	cacheCmd.AddCommand(cacheStatsCmd, cachePruneCmd)
}
