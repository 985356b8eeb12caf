package engines

import (
	"fmt"
	"strings"

	"github.com/advancedtts/advtts/internal/ttypes"
)

// Festival drives festival through a Scheme script piped to --pipe
type Festival struct{}

func (Festival) Translate(e ttypes.EngineDescriptor, text, outputPath string, p ttypes.Params) (Invocation, error) {
	voice := "voice_kal_diphone"
	if p.Language == "en-gb" {
		voice = "voice_rab_diphone"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "(%s)\n", voice)
	if e.Capabilities.Speed {
		fmt.Fprintf(&b, "(Parameter.set 'Duration_Stretch %.2f)\n", stretch(p.Speed))
	}
	fmt.Fprintf(&b, "(set! utt (Utterance Text %s))\n", schemeString(text))
	b.WriteString("(utt.synth utt)\n")
	if e.Capabilities.Volume {
		fmt.Fprintf(&b, "(utt.wave.rescale utt %.2f)\n", float64(p.Volume)/100)
	}
	fmt.Fprintf(&b, "(utt.save.wave utt %s 'riff)\n", schemeString(outputPath))

	return Invocation{Args: []string{"--pipe"}, Stdin: b.String()}, nil
}

var schemeEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// schemeString quotes s as a Scheme string literal
func schemeString(s string) string {
	return `"` + schemeEscaper.Replace(s) + `"`
}
