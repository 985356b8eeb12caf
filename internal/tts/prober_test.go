package tts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/advancedtts/advtts/internal/ttypes"
)

func TestResolverOrder(t *testing.T) {
	if _, ok := isRegular("/"); ok {
		t.Fatal("directories are not executables")
	}

	dir := t.TempDir()
	venv := filepath.Join(dir, "venv")
	if err := os.MkdirAll(filepath.Join(venv, "bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	venvCLI := filepath.Join(venv, "bin", "gtts-cli")
	override := filepath.Join(dir, "custom-gtts")
	for _, p := range []string{venvCLI, override} {
		if err := os.WriteFile(p, []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	gtts := ttypes.EngineDescriptor{
		ID:         "gtts",
		Executable: ttypes.Executable{Command: "gtts-cli", Runtime: ttypes.RuntimePythonVenv},
	}

	tests := []struct {
		name     string
		cfg      ResolverConfig
		lookPath func(string) (string, error)
		want     string
		wantOK   bool
	}{
		{
			name:   "override wins",
			cfg:    ResolverConfig{PythonVenv: venv, Overrides: map[string]string{"gtts": override}},
			want:   override,
			wantOK: true,
		},
		{
			name:   "missing override is final",
			cfg:    ResolverConfig{PythonVenv: venv, Overrides: map[string]string{"gtts": filepath.Join(dir, "nope")}},
			want:   filepath.Join(dir, "nope"),
			wantOK: false,
		},
		{
			name:   "runtime layout",
			cfg:    ResolverConfig{PythonVenv: venv},
			want:   venvCLI,
			wantOK: true,
		},
		{
			name:     "path lookup",
			cfg:      ResolverConfig{PythonVenv: filepath.Join(dir, "empty")},
			lookPath: func(string) (string, error) { return "/usr/bin/gtts-cli", nil },
			want:     "/usr/bin/gtts-cli",
			wantOK:   true,
		},
		{
			name:     "not found",
			cfg:      ResolverConfig{},
			lookPath: func(string) (string, error) { return "", os.ErrNotExist },
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.cfg)
			if tt.lookPath != nil {
				r.lookPath = tt.lookPath
			} else {
				r.lookPath = func(string) (string, error) { return "", os.ErrNotExist }
			}
			got, ok := r.Resolve(gtts)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Resolve() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestProber(t *testing.T) {
	reg := testRegistry(t)
	p := testProber(t, reg, "espeak-ng", "piper")

	if !p.CheckAvailability("espeak-ng") || p.CheckAvailability("coqui") || p.CheckAvailability("unknown") {
		t.Error("CheckAvailability does not reflect installed executables")
	}

	avail := p.GetAvailableEngines()
	if len(avail) != 2 || avail["piper"].ID != "piper" {
		t.Errorf("GetAvailableEngines() = %v", avail)
	}

	all := p.StatusAll()
	if len(all) != len(reg.IDs()) {
		t.Fatalf("StatusAll() returned %d entries", len(all))
	}
	for i, id := range reg.IDs() {
		s := all[i]
		if s.Engine != id {
			t.Errorf("StatusAll()[%d] = %s, want catalog order %s", i, s.Engine, id)
		}
		installed := id == "espeak-ng" || id == "piper"
		if s.Available != installed {
			t.Errorf("%s available = %v, want %v", id, s.Available, installed)
		}
		if !installed && (s.Guidance == "" || s.Path != "") {
			t.Errorf("%s missing guidance or has a path: %+v", id, s)
		}
	}
}
