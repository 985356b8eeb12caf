package engines

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/advancedtts/advtts/internal/audio"
	"github.com/advancedtts/advtts/internal/registry"
	"github.com/advancedtts/advtts/internal/tts"
	"github.com/advancedtts/advtts/internal/ttypes"
	"github.com/charmbracelet/log"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// writeBeepWAV writes seconds of mono silence at 16 kHz
func writeBeepWAV(t *testing.T, path string, seconds float64) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	format := beep.Format{SampleRate: 16000, NumChannels: 1, Precision: 2}
	if err := wav.Encode(f, beep.Silence(int(seconds*16000)), format); err != nil {
		t.Fatal(err)
	}
}

func TestSynthesizeThroughCommandAdapter(t *testing.T) {
	fixture := filepath.Join(t.TempDir(), "render.wav")
	writeBeepWAV(t, fixture, 0.5)

	// copies the fixture to the -w path after draining stdin
	script := writeScript(t, fmt.Sprintf(`while [ $# -gt 0 ]; do
  if [ "$1" = "-w" ]; then out="$2"; fi
  shift
done
cat > /dev/null
cp '%s' "$out"
`, fixture))

	reg, err := registry.Default()
	if err != nil {
		t.Fatal(err)
	}
	resolver := tts.NewResolver(tts.ResolverConfig{Overrides: map[string]string{"espeak-ng": script}})
	cfg := DefaultConfig()
	cfg.KillGrace = time.Second
	adapters, err := NewTable(reg, resolver, cfg)
	if err != nil {
		t.Fatal(err)
	}

	logger := log.NewWithOptions(io.Discard, log.Options{})
	prober := tts.NewProber(reg, resolver)
	fallback, err := tts.NewFallbackController(reg, prober, nil, "", logger)
	if err != nil {
		t.Fatal(err)
	}
	pipeline := audio.New(audio.Options{Logger: logger})

	outDir, tempDir := t.TempDir(), t.TempDir()
	s, err := tts.NewSynthesizer(reg, prober, adapters, pipeline, fallback, tts.Options{
		OutputDir: outDir,
		TempDir:   tempDir,
		Logger:    logger,
	})
	if err != nil {
		t.Fatal(err)
	}

	req := ttypes.NewRequest("Hello world")
	req.Engine = "espeak-ng"
	req.Language = "en-us"
	req.Format = ttypes.FormatWAV

	res, err := s.Synthesize(context.Background(), req)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if res.Engine != "espeak-ng" || res.Fallback != nil {
		t.Errorf("result engine = %s, fallback = %+v", res.Engine, res.Fallback)
	}
	if res.Duration <= 0 {
		t.Errorf("Duration = %f, want > 0", res.Duration)
	}
	if _, err := os.Stat(res.Path); err != nil {
		t.Errorf("output file: %v", err)
	}
	left, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Errorf("temp files left behind: %v", left)
	}
}
