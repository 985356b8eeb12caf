package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/advancedtts/advtts/internal/registry"
	"github.com/advancedtts/advtts/internal/tts"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{tts.NewTTSError(tts.ErrorCodeInvalidInput, "bad", nil), 2},
		{tts.NewTTSError(tts.ErrorCodeTextTooLong, "long", nil), 2},
		{tts.NewTTSError(tts.ErrorCodeEngineUnavailable, "missing", nil), 3},
		{fmt.Errorf("wrapped: %w", tts.ErrEngineUnavailable), 3},
		{tts.NewTTSError(tts.ErrorCodeSynthesisFailed, "failed", nil), 1},
		{os.ErrPermission, 1},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestReadTextFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	if err := os.WriteFile(path, []byte("# Title\n\nSome *text*."), 0o644); err != nil {
		t.Fatal(err)
	}

	synthFile = path
	t.Cleanup(func() { synthFile = "" })

	text, isMarkdown, err := readText(nil)
	if err != nil {
		t.Fatalf("readText() error = %v", err)
	}
	if !isMarkdown || !strings.Contains(text, "*text*") {
		t.Errorf("readText() = %q, %v", text, isMarkdown)
	}
}

func TestReadTextFromArgs(t *testing.T) {
	text, isMarkdown, err := readText([]string{"hello", "there"})
	if err != nil {
		t.Fatal(err)
	}
	if text != "hello there" || isMarkdown {
		t.Errorf("readText() = %q, %v", text, isMarkdown)
	}
}

func TestPrintModels(t *testing.T) {
	reg, err := registry.Default()
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	listing, err := reg.Models("espeak-ng", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := printModels(&buf, listing.Engine, listing.ModelsSupported, listing.Models); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "does not use models") {
		t.Errorf("espeak-ng listing = %q", buf.String())
	}

	buf.Reset()
	listing, err = reg.Models("piper", "en")
	if err != nil {
		t.Fatal(err)
	}
	if err := printModels(&buf, listing.Engine, listing.ModelsSupported, listing.Models); err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != len(listing.Models) {
		t.Errorf("printed %d lines for %d models", lines, len(listing.Models))
	}
}

func TestCapabilities(t *testing.T) {
	reg, err := registry.Default()
	if err != nil {
		t.Fatal(err)
	}
	gtts, err := reg.Get("gtts")
	if err != nil {
		t.Fatal(err)
	}
	if got := capabilities(gtts); !strings.HasSuffix(got, "online") {
		t.Errorf("capabilities(gtts) = %q", got)
	}
}
