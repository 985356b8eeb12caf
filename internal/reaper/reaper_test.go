package reaper

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func quiet() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func touch(t *testing.T, path string, size int, age time.Duration) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestSweep(t *testing.T) {
	out, tmp := t.TempDir(), t.TempDir()
	touch(t, filepath.Join(out, "old.mp3"), 1000, 2*time.Hour)
	touch(t, filepath.Join(out, "fresh.mp3"), 500, time.Minute)
	touch(t, filepath.Join(tmp, "stale.wav"), 24, 90*time.Minute)
	if err := os.Mkdir(filepath.Join(out, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	r := New(quiet(), out, tmp, filepath.Join(out, "missing"))
	rep := r.Sweep(time.Hour)

	if rep.Scanned != 3 || rep.Removed != 2 || rep.Bytes != 1024 {
		t.Errorf("report = %+v", rep)
	}
	if rep.Err() != nil {
		t.Errorf("unexpected errors: %v", rep.Err())
	}
	if rep.BytesFreed() != "1.0 kB" {
		t.Errorf("BytesFreed() = %q", rep.BytesFreed())
	}

	for name, want := range map[string]bool{
		filepath.Join(out, "old.mp3"):   false,
		filepath.Join(out, "fresh.mp3"): true,
		filepath.Join(tmp, "stale.wav"): false,
		filepath.Join(out, "subdir"):    true,
	} {
		_, err := os.Stat(name)
		if exists := err == nil; exists != want {
			t.Errorf("%s exists = %v, want %v", name, exists, want)
		}
	}
}

func TestSweepContinuesPastErrors(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.wav", "b.wav", "c.wav"} {
		touch(t, filepath.Join(dir, name), 10, 2*time.Hour)
	}

	r := New(quiet(), dir)
	r.remove = func(p string) error {
		if strings.HasSuffix(p, "b.wav") {
			return os.ErrPermission
		}
		return os.Remove(p)
	}

	rep := r.Sweep(time.Hour)
	if rep.Removed != 2 || len(rep.Errors) != 1 {
		t.Errorf("report = %+v, want 2 removed and 1 error", rep)
	}
	if !errors.Is(rep.Err(), os.ErrPermission) {
		t.Errorf("Err() = %v", rep.Err())
	}
}

func TestScheduleNext(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 2, 30, 0, time.UTC)

	tests := []struct {
		name     string
		schedule Schedule
		want     time.Time
		wantErr  bool
	}{
		{name: "interval", schedule: Schedule{Every: 10 * time.Minute}, want: base.Add(10 * time.Minute)},
		{name: "cron", schedule: Schedule{Cron: "*/5 * * * *"}, want: time.Date(2025, 3, 1, 12, 5, 0, 0, time.UTC)},
		{name: "cron wins", schedule: Schedule{Every: time.Second, Cron: "0 0 * * *"}, want: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)},
		{name: "invalid cron", schedule: Schedule{Cron: "every tuesday"}, wantErr: true},
		{name: "no interval", schedule: Schedule{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schedule.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			got, err := tt.schedule.Next(base)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSchedulerRun(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "old.wav"), 10, 2*time.Hour)

	var ages atomic.Int64
	maxAge := func() time.Duration {
		ages.Add(1)
		return time.Hour
	}
	s, err := NewScheduler(New(quiet(), dir), Schedule{Every: 10 * time.Millisecond}, maxAge, quiet())
	if err != nil {
		t.Fatal(err)
	}

	var sweeps, removed atomic.Int64
	s.OnSweep = func(r Report) {
		sweeps.Add(1)
		removed.Add(int64(r.Removed))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if sweeps.Load() < 2 {
		t.Errorf("sweeps = %d, want at least 2", sweeps.Load())
	}
	if ages.Load() != sweeps.Load() {
		t.Error("retention should be read before every sweep")
	}
	if removed.Load() != 1 {
		t.Errorf("removed = %d, want 1", removed.Load())
	}
}
