package engines

import (
	"time"

	"github.com/advancedtts/advtts/internal/ttypes"
	"golang.org/x/time/rate"
)

// DefaultRequestsPerMinute throttles calls to Google Translate's TTS endpoint
const DefaultRequestsPerMinute = 50

// gttsSlowBelow is the speed under which gtts switches to its slow voice
const gttsSlowBelow = 100

// gttsLanguages holds variants whose gtts language differs from the base code
var gttsLanguages = map[string]string{
	"zh":    "zh-CN",
	"zh-tw": "zh-TW",
}

// gttsDomains selects a regional accent through the Google top-level domain
var gttsDomains = map[string]string{
	"en-us": "us",
	"en-gb": "co.uk",
	"en-au": "com.au",
	"en-ca": "ca",
	"en-in": "co.in",
	"en-ie": "ie",
	"en-za": "co.za",
	"es":    "es",
	"es-mx": "com.mx",
	"es-ar": "com.ar",
	"es-cl": "cl",
	"es-co": "com.co",
	"es-pe": "com.pe",
	"es-ve": "co.ve",
	"fr":    "fr",
	"fr-ca": "ca",
	"fr-ch": "ch",
	"de-at": "at",
	"de-ch": "ch",
	"pt":    "pt",
	"pt-br": "com.br",
}

// GTTS drives gtts-cli, which writes MP3
type GTTS struct{}

// Translate reads text from stdin ("-")
func (GTTS) Translate(e ttypes.EngineDescriptor, text, outputPath string, p ttypes.Params) (Invocation, error) {
	lang, ok := gttsLanguages[p.Language]
	if !ok {
		lang = baseCode(p.Language)
	}

	args := []string{"--lang", lang}
	if tld, ok := gttsDomains[p.Language]; ok {
		args = append(args, "--tld", tld)
	}
	if e.Capabilities.Speed && p.Speed < gttsSlowBelow {
		args = append(args, "--slow")
	}
	args = append(args, "--output", outputPath, "-")

	return Invocation{Args: args, Stdin: text}, nil
}

// NewLimiter returns a limiter allowing rpm requests per minute, or nil when
// rpm is not positive
func NewLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}
