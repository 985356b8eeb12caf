package engines

import (
	"fmt"
	"time"

	"github.com/advancedtts/advtts/internal/registry"
	"github.com/advancedtts/advtts/internal/tts"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/time/rate"
)

// Config holds adapter settings that are not part of the catalog
type Config struct {
	// PiperModelsDir holds piper voice models
	PiperModelsDir string

	// CoquiUseCUDA runs coqui on the GPU
	CoquiUseCUDA bool

	// RequestsPerMinute throttles online engines; zero disables throttling
	RequestsPerMinute int

	// KillGrace is how long a cancelled engine has to exit before it is killed
	KillGrace time.Duration
}

// DefaultConfig returns the default adapter settings
func DefaultConfig() Config {
	return Config{
		PiperModelsDir:    "~/.local/share/piper/models",
		RequestsPerMinute: DefaultRequestsPerMinute,
		KillGrace:         2 * time.Second,
	}
}

// translators returns the invocation strategy for each engine id
func translators(cfg Config) map[string]Translator {
	return map[string]Translator{
		"espeak-ng": ESpeak{},
		"espeak":    ESpeak{},
		"festival":  Festival{},
		"pico":      Pico{},
		"gtts":      GTTS{},
		"piper":     Piper{ModelsDir: expand(cfg.PiperModelsDir)},
		"pyttsx3":   Pyttsx3{},
		"coqui":     Coqui{UseCUDA: cfg.CoquiUseCUDA},
	}
}

// NewTable builds one adapter per catalog engine. Every engine in the
// catalog must have a translator.
func NewTable(reg *registry.Registry, resolver *tts.Resolver, cfg Config) (map[string]tts.Adapter, error) {
	runner := NewRunner(cfg.KillGrace)
	ts := translators(cfg)

	table := make(map[string]tts.Adapter, len(ts))
	for _, e := range reg.List() {
		t, ok := ts[e.ID]
		if !ok {
			return nil, fmt.Errorf("no adapter for engine %q", e.ID)
		}
		var limiter *rate.Limiter
		if e.Online {
			limiter = NewLimiter(cfg.RequestsPerMinute)
		}
		table[e.ID] = NewCommandAdapter(e, t, resolver, runner, limiter)
	}
	return table, nil
}

func expand(p string) string {
	if e, err := homedir.Expand(p); err == nil {
		return e
	}
	return p
}
