package engines

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/advancedtts/advtts/internal/ttypes"
)

// Piper drives the piper neural TTS binary
type Piper struct {
	// ModelsDir holds <model>.onnx and its .onnx.json config
	ModelsDir string
}

// Translate sends text on stdin. Speed maps to length_scale, which is left
// at piper's default for the default speed.
func (t Piper) Translate(e ttypes.EngineDescriptor, text, outputPath string, p ttypes.Params) (Invocation, error) {
	if p.Model == nil {
		return Invocation{}, errors.New("piper requires a model")
	}

	args := []string{
		"--model", filepath.Join(t.ModelsDir, p.Model.Model+".onnx"),
		"--output_file", outputPath,
	}
	if e.Capabilities.Speed && p.Speed != ttypes.DefaultSpeed {
		args = append(args, "--length_scale", fmt.Sprintf("%.2f", lengthScale(p.Speed)))
	}
	if s := speaker(p); s != "" {
		args = append(args, "--speaker", s)
	}

	return Invocation{Args: args, Stdin: text}, nil
}
