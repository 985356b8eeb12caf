package engines

import (
	"fmt"
	"strconv"

	"github.com/advancedtts/advtts/internal/ttypes"
)

// pyttsx3Script renders stdin through the platform voice matching the
// requested language, then prints the success marker
const pyttsx3Script = `import sys
import pyttsx3

out, rate, volume, lang = sys.argv[1], int(sys.argv[2]), float(sys.argv[3]), sys.argv[4]
text = sys.stdin.read()

engine = pyttsx3.init()
engine.setProperty("rate", rate)
engine.setProperty("volume", volume)

def tags(voice):
    for l in voice.languages or []:
        if isinstance(l, bytes):
            l = l.decode(errors="ignore")
        yield str(l).lstrip("\x05").lower().replace("_", "-")

for voice in engine.getProperty("voices"):
    if any(t.startswith(lang) or lang.startswith(t) for t in tags(voice) if t):
        engine.setProperty("voice", voice.id)
        break

engine.save_to_file(text, out)
engine.runAndWait()
print("Success")
`

// Pyttsx3 drives pyttsx3 through the pyenv python3
type Pyttsx3 struct{}

func (Pyttsx3) Translate(e ttypes.EngineDescriptor, text, outputPath string, p ttypes.Params) (Invocation, error) {
	rate, volume := ttypes.DefaultSpeed, 1.0
	if e.Capabilities.Speed {
		rate = p.Speed
	}
	if e.Capabilities.Volume {
		volume = float64(p.Volume) / 100
	}

	return Invocation{
		Args: []string{
			"-c", pyttsx3Script,
			outputPath,
			strconv.Itoa(rate),
			fmt.Sprintf("%.2f", volume),
			p.Language,
		},
		Stdin:         text,
		SuccessMarker: "Success",
	}, nil
}
