package engines

import (
	"errors"

	"github.com/advancedtts/advtts/internal/ttypes"
)

// coquiLanguages holds base codes whose XTTS language id differs
var coquiLanguages = map[string]string{
	"zh": "zh-cn",
}

// Coqui drives the Coqui TTS command line
type Coqui struct {
	UseCUDA bool
}

// Translate passes text as --text=<t> so leading dashes are not read as flags
func (t Coqui) Translate(_ ttypes.EngineDescriptor, text, outputPath string, p ttypes.Params) (Invocation, error) {
	if p.Model == nil {
		return Invocation{}, errors.New("coqui requires a model")
	}

	args := []string{
		"--text=" + text,
		"--model_name", p.Model.Model,
		"--out_path", outputPath,
	}
	if s := speaker(p); s != "" {
		args = append(args, "--speaker_idx", s)
	}
	if p.Model.Multilingual {
		lang := baseCode(p.Language)
		if l, ok := coquiLanguages[lang]; ok {
			lang = l
		}
		args = append(args, "--language_idx", lang)
	}
	if t.UseCUDA {
		args = append(args, "--use_cuda", "true")
	}

	// XTTS asks for license agreement interactively otherwise
	return Invocation{Args: args, Env: []string{"COQUI_TOS_AGREED=1"}}, nil
}
