package tts

import (
	"context"

	"github.com/advancedtts/advtts/internal/ttypes"
)

// Adapter translates generic parameters into one engine's native invocation.
// Implementations live in the engines package and are registered by engine id.
type Adapter interface {
	// Generate synthesizes text into outputPath in the engine's native format.
	// A nonzero exit or forced termination returns an *ExecutionError.
	Generate(ctx context.Context, text, outputPath string, params ttypes.Params) error
}

// Pipeline converts native engine output into deliverable files.
type Pipeline interface {
	// Convert transcodes inputPath into outputPath in the given format.
	Convert(ctx context.Context, inputPath, outputPath string, format ttypes.Format) error

	// ProbeDuration returns the playable length of path in seconds.
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// RenderCache stores native renders keyed by their synthesis parameters.
// Implementations must be safe for concurrent use.
type RenderCache interface {
	Get(key string) ([]byte, bool)
	Put(key string, audio []byte) error
}

// Admission limits concurrent processes per engine.
type Admission interface {
	// Acquire blocks until engine has a free slot or ctx ends.
	Acquire(ctx context.Context, engine string) (release func(), err error)
}
