package engines

import (
	"strconv"

	"github.com/advancedtts/advtts/internal/ttypes"
)

// ESpeak drives espeak-ng and classic espeak, which share a command line
type ESpeak struct{}

// Translate reads text from stdin so it never reaches argv
func (ESpeak) Translate(e ttypes.EngineDescriptor, text, outputPath string, p ttypes.Params) (Invocation, error) {
	args := []string{"-v", p.Language}
	if e.Capabilities.Speed {
		args = append(args, "-s", strconv.Itoa(p.Speed))
	}
	if e.Capabilities.Pitch {
		args = append(args, "-p", strconv.Itoa(espeakPitch(p.Pitch)))
	}
	if e.Capabilities.Volume {
		args = append(args, "-a", strconv.Itoa(espeakAmplitude(p.Volume)))
	}
	args = append(args, "-w", outputPath, "--stdin")

	return Invocation{Args: args, Stdin: text}, nil
}
