package tts

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/advancedtts/advtts/internal/registry"
	"github.com/advancedtts/advtts/internal/ttypes"
	"github.com/charmbracelet/log"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.Default()
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

// testProber reports exactly the listed engines as installed
func testProber(t *testing.T, reg *registry.Registry, installed ...string) *Prober {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("executable checks require a unix filesystem")
	}
	dir := t.TempDir()
	overrides := make(map[string]string)
	for _, id := range reg.IDs() {
		overrides[id] = filepath.Join(dir, "missing", id)
	}
	for _, id := range installed {
		p := filepath.Join(dir, id)
		if err := os.WriteFile(p, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatal(err)
		}
		overrides[id] = p
	}
	return NewProber(reg, NewResolver(ResolverConfig{Overrides: overrides}))
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
}

// adapterFunc adapts a function to Adapter
type adapterFunc func(ctx context.Context, text, outputPath string, p ttypes.Params) error

func (f adapterFunc) Generate(ctx context.Context, text, outputPath string, p ttypes.Params) error {
	return f(ctx, text, outputPath, p)
}

func writesAudio(ctx context.Context, text, outputPath string, p ttypes.Params) error {
	return os.WriteFile(outputPath, []byte("audio:"+text), 0o644)
}
