package engines

import (
	"strings"

	"github.com/advancedtts/advtts/internal/ttypes"
)

// espeakPitch maps pitch 0-100 onto espeak's 0-99 range
func espeakPitch(pitch int) int {
	return min(pitch, 99)
}

// espeakAmplitude maps volume 0-100 onto espeak's amplitude 0-200
func espeakAmplitude(volume int) int {
	return volume * 2
}

// stretch converts words per minute into a duration multiplier relative to
// the default speed. Slower speech means a larger multiplier.
func stretch(speed int) float64 {
	if speed <= 0 {
		return 1.0
	}
	return float64(ttypes.DefaultSpeed) / float64(speed)
}

// lengthScale is stretch clamped to the range piper accepts
func lengthScale(speed int) float64 {
	return max(0.5, min(2.0, stretch(speed)))
}

// baseCode returns the primary subtag of a variant tag
func baseCode(variant string) string {
	code, _, _ := strings.Cut(variant, "-")
	return code
}

// speaker returns the requested speaker, falling back to the model default
func speaker(p ttypes.Params) string {
	if p.Speaker != "" {
		return p.Speaker
	}
	if p.Model != nil {
		return p.Model.DefaultSpeaker
	}
	return ""
}
