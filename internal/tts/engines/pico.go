package engines

import (
	"fmt"

	"github.com/advancedtts/advtts/internal/ttypes"
)

// picoVoices maps catalog variants to the locale names pico2wave ships
var picoVoices = map[string]string{
	"en-us": "en-US",
	"en-gb": "en-GB",
	"es":    "es-ES",
	"fr":    "fr-FR",
	"de":    "de-DE",
	"it":    "it-IT",
}

// Pico drives pico2wave. It has no speed, pitch or volume controls.
type Pico struct{}

// Translate passes text as the final argument after "--" since pico2wave
// cannot read stdin
func (Pico) Translate(_ ttypes.EngineDescriptor, text, outputPath string, p ttypes.Params) (Invocation, error) {
	voice, ok := picoVoices[p.Language]
	if !ok {
		return Invocation{}, fmt.Errorf("pico has no voice for %q", p.Language)
	}
	return Invocation{Args: []string{"-l", voice, "-w", outputPath, "--", text}}, nil
}
