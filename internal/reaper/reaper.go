// Package reaper removes expired synthesis output. Files are judged by
// modification time only; nothing tracks which results are still in use.
package reaper

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// DefaultMaxAge is how long results are kept
const DefaultMaxAge = time.Hour

// Report summarizes one sweep
type Report struct {
	Scanned int
	Removed int
	Bytes   int64
	Errors  []error
}

// BytesFreed renders the reclaimed space for humans
func (r Report) BytesFreed() string {
	return humanize.Bytes(uint64(r.Bytes))
}

// Err joins the per-file failures, if any
func (r Report) Err() error {
	return errors.Join(r.Errors...)
}

// Reaper sweeps a fixed set of directories
type Reaper struct {
	dirs   []string
	logger *log.Logger

	now    func() time.Time
	remove func(string) error
}

// New creates a reaper for dirs. Missing directories are skipped.
func New(logger *log.Logger, dirs ...string) *Reaper {
	if logger == nil {
		logger = log.Default()
	}
	return &Reaper{
		dirs:   dirs,
		logger: logger,
		now:    time.Now,
		remove: os.Remove,
	}
}

// Sweep removes regular files older than maxAge. A failure on one file is
// logged and recorded; the sweep continues.
func (r *Reaper) Sweep(maxAge time.Duration) Report {
	var rep Report
	cutoff := r.now().Add(-maxAge)

	for _, dir := range r.dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			r.logger.Error("cannot list directory", "dir", dir, "error", err)
			rep.Errors = append(rep.Errors, err)
			continue
		}

		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			rep.Scanned++

			info, err := e.Info()
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					rep.Errors = append(rep.Errors, err)
				}
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}

			path := filepath.Join(dir, e.Name())
			if err := r.remove(path); err != nil {
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				r.logger.Warn("failed to remove expired file", "path", path, "error", err)
				rep.Errors = append(rep.Errors, fmt.Errorf("remove %s: %w", path, err))
				continue
			}
			rep.Removed++
			rep.Bytes += info.Size()
		}
	}

	return rep
}
