package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/advancedtts/advtts/internal/config"
	"github.com/advancedtts/advtts/internal/reaper"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	reapWatch bool

	reapCmd = &cobra.Command{
		Use:   "reap",
		Short: "Delete generated audio older than the retention age",
		Long: paragraph(fmt.Sprintf("\n%s output and temp files older than cleanup.max_age. With --watch, keep sweeping on the cleanup schedule and pick up config changes.",
			keyword("Delete"))),
		Example: paragraph("advtts reap --max-age 30m\nadvtts reap --watch"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := reaper.New(log.Default().WithPrefix("reaper"), cfg.OutputDir, cfg.TempDir)

			if !reapWatch {
				rep := r.Sweep(cfg.Cleanup.MaxAge)
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d of %d files, freed %s\n",
					rep.Removed, rep.Scanned, rep.BytesFreed())
				return rep.Err()
			}

			var maxAge atomic.Int64
			maxAge.Store(int64(cfg.Cleanup.MaxAge))

			viper.OnConfigChange(func(e fsnotify.Event) {
				c, err := config.Load(viper.GetViper())
				if err != nil {
					log.Warn("Ignoring config change", "path", e.Name, "error", err)
					return
				}
				if old := time.Duration(maxAge.Swap(int64(c.Cleanup.MaxAge))); old != c.Cleanup.MaxAge {
					log.Info("Retention changed", "from", old, "to", c.Cleanup.MaxAge)
				}
			})
			if viper.ConfigFileUsed() != "" {
				viper.WatchConfig()
			}

			s, err := reaper.NewScheduler(r, cfg.Schedule(),
				func() time.Duration { return time.Duration(maxAge.Load()) },
				log.Default().WithPrefix("reaper"))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return s.Run(ctx)
		},
	}
)

func init() {
	f := reapCmd.Flags()
	f.BoolVarP(&reapWatch, "watch", "w", false, "keep running and sweep on schedule")
	f.Duration("max-age", 0, "remove files older than this")
	f.Duration("every", 0, "sweep interval with --watch")
	f.String("cron", "", "cron expression for sweeps with --watch, overrides --every")

	_ = viper.BindPFlag("cleanup.max_age", f.Lookup("max-age"))
	_ = viper.BindPFlag("cleanup.every", f.Lookup("every"))
	_ = viper.BindPFlag("cleanup.cron", f.Lookup("cron"))
}
