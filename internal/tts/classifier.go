package tts

import (
	"strings"

	"github.com/advancedtts/advtts/internal/ttypes"
)

// Signature is a group of stderr fragments that identify one failure cause
type Signature struct {
	Cause    ttypes.Cause
	Patterns []string
}

// DefaultSignatures lists known compatibility-class failures in match order.
// Patterns are compared case-insensitively.
var DefaultSignatures = []Signature{
	{
		Cause: ttypes.CauseWeightsSerialization,
		Patterns: []string{
			"weights only load failed",
			"unpicklingerror",
			"unsupported global",
			"pickle data was truncated",
		},
	},
	{
		Cause: ttypes.CauseCheckpointLoad,
		Patterns: []string{
			"failed to load checkpoint",
			"error loading checkpoint",
			"pytorchstreamreader failed",
			"invalid load key",
		},
	},
	{
		Cause: ttypes.CauseVersionMismatch,
		Patterns: []string{
			"version mismatch",
			"incompatible version",
			"was compiled against",
			"numpy.dtype size changed",
			"cannot import name",
			"module 'torch' has no attribute",
			"module 'numpy' has no attribute",
		},
	},
	{
		Cause: ttypes.CauseOutOfMemory,
		Patterns: []string{
			"out of memory",
			"outofmemoryerror",
			"memoryerror",
			"cannot allocate memory",
			"std::bad_alloc",
		},
	},
	{
		Cause: ttypes.CauseStateDictMismatch,
		Patterns: []string{
			"missing key(s) in state_dict",
			"unexpected key(s) in state_dict",
			"size mismatch for",
			"error(s) in loading state_dict",
		},
	},
}

// Classification is the verdict on one engine failure
type Classification struct {
	// Transient is true for compatibility-class failures eligible for fallback
	Transient bool
	Cause     ttypes.Cause
}

// Classifier maps engine stderr to a failure class
type Classifier struct {
	signatures []Signature
}

// NewClassifier creates a classifier; nil signatures selects DefaultSignatures
func NewClassifier(signatures []Signature) *Classifier {
	if signatures == nil {
		signatures = DefaultSignatures
	}
	lowered := make([]Signature, len(signatures))
	for i, s := range signatures {
		lowered[i] = Signature{Cause: s.Cause, Patterns: make([]string, len(s.Patterns))}
		for j, p := range s.Patterns {
			lowered[i].Patterns[j] = strings.ToLower(p)
		}
	}
	return &Classifier{signatures: lowered}
}

// Classify returns the first signature group matching stderr, or a fatal verdict
func (c *Classifier) Classify(stderr string) Classification {
	s := strings.ToLower(stderr)
	for _, sig := range c.signatures {
		for _, p := range sig.Patterns {
			if strings.Contains(s, p) {
				return Classification{Transient: true, Cause: sig.Cause}
			}
		}
	}
	return Classification{}
}
