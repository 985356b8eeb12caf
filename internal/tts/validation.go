package tts

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/advancedtts/advtts/internal/registry"
	"github.com/advancedtts/advtts/internal/ttypes"
	"github.com/sahilm/fuzzy"
)

// DefaultMaxTextLength is the longest accepted text, in characters
const DefaultMaxTextLength = 50000

// validated is a request that passed validation, with its parameters resolved
// against the engine descriptor
type validated struct {
	request ttypes.SynthesisRequest
	engine  ttypes.EngineDescriptor
	params  ttypes.Params
}

// validateRequest checks req against the catalog. It never touches the
// filesystem or spawns a process.
func validateRequest(reg *registry.Registry, req ttypes.SynthesisRequest, maxLen int) (*validated, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, validationError("text is required")
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxTextLength
	}
	if n := utf8.RuneCountInString(req.Text); n > maxLen {
		return nil, NewTTSError(ErrorCodeTextTooLong,
			fmt.Sprintf("text is %d characters, limit is %d", n, maxLen), nil).
			WithContext("length", n)
	}

	engine, err := reg.Get(req.Engine)
	if err != nil {
		msg := fmt.Sprintf("unknown engine %q", req.Engine)
		if s := suggest(req.Engine, reg.IDs()); s != "" {
			msg += fmt.Sprintf(", did you mean %q?", s)
		}
		return nil, validationError("%s", msg)
	}

	if req.Speed < ttypes.MinSpeed || req.Speed > ttypes.MaxSpeed {
		return nil, validationError("speed %d out of range %d-%d", req.Speed, ttypes.MinSpeed, ttypes.MaxSpeed)
	}
	if req.Pitch < ttypes.MinPitch || req.Pitch > ttypes.MaxPitch {
		return nil, validationError("pitch %d out of range %d-%d", req.Pitch, ttypes.MinPitch, ttypes.MaxPitch)
	}
	if req.Volume < ttypes.MinVolume || req.Volume > ttypes.MaxVolume {
		return nil, validationError("volume %d out of range %d-%d", req.Volume, ttypes.MinVolume, ttypes.MaxVolume)
	}

	format, ok := ttypes.ParseFormat(string(req.Format))
	if !ok {
		return nil, validationError("format %q is not one of %v", req.Format, ttypes.Formats)
	}
	req.Format = format

	profile, variant, ok := registry.ResolveLanguage(engine, req.Language)
	if !ok {
		return nil, validationError("engine %s does not support language %q", engine.ID, req.Language)
	}

	params := ttypes.Params{
		Language: variant,
		Speed:    req.Speed,
		Pitch:    req.Pitch,
		Volume:   req.Volume,
	}
	if engine.Capabilities.Models {
		if m, ok := registry.ResolveModel(profile, req.Model); ok {
			params.Model = &m
			params.Speaker = registry.ResolveSpeaker(m, req.Speaker)
		}
	}

	return &validated{request: req, engine: engine, params: params}, nil
}

// suggest returns the closest engine id to s, if any
func suggest(s string, ids []string) string {
	if s == "" {
		return ""
	}
	matches := fuzzy.Find(s, ids)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}
