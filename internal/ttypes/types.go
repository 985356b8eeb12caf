// Package ttypes contains shared types for the synthesis system.
// This package is used to break import cycles between registry, tts, engines, audio, and cache packages.
package ttypes

import (
	"fmt"
	"strings"
)

// Format is an output audio container
type Format string

const (
	// FormatWAV is uncompressed PCM in a RIFF container
	FormatWAV Format = "wav"

	// FormatMP3 is MPEG-1 Layer III
	FormatMP3 Format = "mp3"

	// FormatOGG is Vorbis in an Ogg container
	FormatOGG Format = "ogg"

	// FormatM4A is AAC in an MPEG-4 container
	FormatM4A Format = "m4a"
)

// Formats lists every output format the audio pipeline can produce
var Formats = []Format{FormatWAV, FormatMP3, FormatOGG, FormatM4A}

// ParseFormat normalizes a format name and reports whether it is supported
func ParseFormat(s string) (Format, bool) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	for _, known := range Formats {
		if f == known {
			return f, true
		}
	}
	return f, false
}

// Ext returns the file extension, including the leading dot
func (f Format) Ext() string {
	return "." + string(f)
}

// Capabilities are the parameter families an engine honors
type Capabilities struct {
	SSML   bool `yaml:"ssml" json:"ssml"`
	Speed  bool `yaml:"speed" json:"speed"`
	Pitch  bool `yaml:"pitch" json:"pitch"`
	Volume bool `yaml:"volume" json:"volume"`
	Models bool `yaml:"models" json:"models"`
}

// Runtime selects the install layout used to locate an engine's executable
type Runtime string

const (
	// RuntimeSystem resolves through PATH only
	RuntimeSystem Runtime = ""

	// RuntimePythonVenv resolves <venv>/bin/<command> before PATH
	RuntimePythonVenv Runtime = "python-venv"

	// RuntimePyenv resolves <pyenv root>/shims/<command> before PATH
	RuntimePyenv Runtime = "pyenv"
)

// Executable locates the program that implements an engine
type Executable struct {
	Command string  `yaml:"command" json:"command"`
	Runtime Runtime `yaml:"runtime,omitempty" json:"runtime,omitempty"`
}

// ModelDescriptor describes one trained voice configuration
type ModelDescriptor struct {
	ID             string   `yaml:"id" json:"id"`
	Name           string   `yaml:"name" json:"name"`
	Description    string   `yaml:"description,omitempty" json:"description,omitempty"`
	Model          string   `yaml:"model" json:"model"`
	Language       string   `yaml:"language" json:"language"`
	DefaultSpeaker string   `yaml:"default_speaker,omitempty" json:"defaultSpeaker,omitempty"`
	Quality        string   `yaml:"quality,omitempty" json:"quality,omitempty"`
	Speakers       []string `yaml:"speakers,omitempty" json:"speakers,omitempty"`
	Multilingual   bool     `yaml:"multilingual,omitempty" json:"multilingual,omitempty"`
}

// HasSpeaker reports whether id is a member of the model's speaker set
func (m ModelDescriptor) HasSpeaker(id string) bool {
	for _, s := range m.Speakers {
		if s == id {
			return true
		}
	}
	return false
}

// LanguageProfile is one language an engine can speak
type LanguageProfile struct {
	Code     string            `yaml:"code" json:"code"`
	Name     string            `yaml:"name" json:"name"`
	Variants []string          `yaml:"variants" json:"variants"`
	Models   []ModelDescriptor `yaml:"models,omitempty" json:"models,omitempty"`
}

// EngineDescriptor is the static description of one synthesis engine
type EngineDescriptor struct {
	ID           string            `yaml:"id" json:"id"`
	Name         string            `yaml:"name" json:"name"`
	Description  string            `yaml:"description" json:"description"`
	Executable   Executable        `yaml:"executable" json:"executable"`
	NativeFormat Format            `yaml:"native_format" json:"nativeFormat"`
	Online       bool              `yaml:"online,omitempty" json:"online,omitempty"`
	Capabilities Capabilities      `yaml:"capabilities" json:"capabilities"`
	Languages    []LanguageProfile `yaml:"languages" json:"languages"`
}

// Language returns the profile with the given code
func (d EngineDescriptor) Language(code string) (LanguageProfile, bool) {
	for _, l := range d.Languages {
		if l.Code == code {
			return l, true
		}
	}
	return LanguageProfile{}, false
}

// Defaults applied to fields a caller left unset
const (
	DefaultEngine   = "espeak-ng"
	DefaultLanguage = "en"
	DefaultSpeed    = 150
	DefaultPitch    = 50
	DefaultVolume   = 100
	DefaultFormat   = FormatMP3
)

// Parameter bounds
const (
	MinSpeed  = 50
	MaxSpeed  = 300
	MinPitch  = 0
	MaxPitch  = 100
	MinVolume = 0
	MaxVolume = 100
)

// SynthesisRequest is a normalized request submitted by an outer surface
type SynthesisRequest struct {
	Text     string `json:"text"`
	Engine   string `json:"engine"`
	Language string `json:"language"`
	Model    string `json:"model,omitempty"`
	Speaker  string `json:"speaker,omitempty"`
	Speed    int    `json:"speed"`
	Pitch    int    `json:"pitch"`
	Volume   int    `json:"volume"`
	Format   Format `json:"format"`
}

// NewRequest returns a request for text with every other field at its default
func NewRequest(text string) SynthesisRequest {
	return SynthesisRequest{
		Text:     text,
		Engine:   DefaultEngine,
		Language: DefaultLanguage,
		Speed:    DefaultSpeed,
		Pitch:    DefaultPitch,
		Volume:   DefaultVolume,
		Format:   DefaultFormat,
	}
}

// WithDefaults returns a copy with empty string fields and a zero speed
// replaced by the defaults. Zero pitch and volume are legal values and are kept.
func (r SynthesisRequest) WithDefaults() SynthesisRequest {
	if r.Engine == "" {
		r.Engine = DefaultEngine
	}
	if r.Language == "" {
		r.Language = DefaultLanguage
	}
	if r.Format == "" {
		r.Format = DefaultFormat
	}
	if r.Speed == 0 {
		r.Speed = DefaultSpeed
	}
	return r
}

// Params is the generic parameter set handed to an engine adapter
type Params struct {
	// Language is the resolved variant tag, e.g. "en-us"
	Language string
	Speed    int
	Pitch    int
	Volume   int

	// Model is the resolved model, nil for engines without model support
	Model *ModelDescriptor

	// Speaker is forwarded only when it belongs to Model's speaker set
	Speaker string
}

// Cause categorizes a compatibility-class engine failure
type Cause string

const (
	CauseWeightsSerialization Cause = "weights-serialization"
	CauseCheckpointLoad       Cause = "checkpoint-load"
	CauseVersionMismatch      Cause = "version-mismatch"
	CauseOutOfMemory          Cause = "out-of-memory"
	CauseStateDictMismatch    Cause = "state-dict-mismatch"
)

// FallbackInfo records that a secondary engine delivered the audio
type FallbackInfo struct {
	Used           bool   `json:"used"`
	OriginalEngine string `json:"originalEngine"`
	ActualEngine   string `json:"actualEngine"`
	Reason         Cause  `json:"reason"`
}

// OutcomeKind tags how native audio was obtained
type OutcomeKind int

const (
	// Delivered means the requested engine produced the audio
	Delivered OutcomeKind = iota

	// Substituted means the secondary engine produced the audio
	Substituted
)

// String returns the string representation of the outcome kind
func (k OutcomeKind) String() string {
	switch k {
	case Delivered:
		return "delivered"
	case Substituted:
		return "substituted"
	default:
		return "unknown"
	}
}

// Outcome is the result of producing native audio for a request
type Outcome struct {
	Kind OutcomeKind

	// Engine is the engine that produced the audio
	Engine string

	// Original is the requested engine, set for Substituted outcomes
	Original string

	// Cause is the failure category that triggered substitution
	Cause Cause

	// Path and Format locate the native audio on disk
	Path   string
	Format Format

	// Params are the parameters the delivering engine actually used
	Params Params
}

// Fallback converts a Substituted outcome into result metadata
func (o Outcome) Fallback() *FallbackInfo {
	if o.Kind != Substituted {
		return nil
	}
	return &FallbackInfo{
		Used:           true,
		OriginalEngine: o.Original,
		ActualEngine:   o.Engine,
		Reason:         o.Cause,
	}
}

// SynthesisResult describes a finished audio artifact
type SynthesisResult struct {
	ID       string        `json:"id"`
	Filename string        `json:"filename"`
	Path     string        `json:"path"`
	URL      string        `json:"url"`
	Format   Format        `json:"format"`
	Engine   string        `json:"engine"`
	Language string        `json:"language"`
	Model    string        `json:"model,omitempty"`
	Speaker  string        `json:"speaker,omitempty"`
	Duration float64       `json:"duration"`
	Preview  bool          `json:"preview,omitempty"`
	Fallback *FallbackInfo `json:"fallback,omitempty"`
}

// PublicURL returns the externally addressable location of an output file
func PublicURL(id string, format Format) string {
	return fmt.Sprintf("/audio/%s%s", id, format.Ext())
}
