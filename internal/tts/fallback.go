package tts

import (
	"context"
	"errors"
	"fmt"

	"github.com/advancedtts/advtts/internal/registry"
	"github.com/advancedtts/advtts/internal/ttypes"
	"github.com/charmbracelet/log"
)

// Attempt produces native audio with one engine
type Attempt func(ctx context.Context, engine ttypes.EngineDescriptor, params ttypes.Params) (ttypes.Outcome, error)

// FallbackController retries a compatibility-class failure once with a fixed
// secondary engine. It never chains beyond one hop.
type FallbackController struct {
	registry   *registry.Registry
	prober     *Prober
	classifier *Classifier
	secondary  string
	logger     *log.Logger
}

// NewFallbackController creates a controller. An empty secondary disables fallback.
func NewFallbackController(reg *registry.Registry, prober *Prober, classifier *Classifier, secondary string, logger *log.Logger) (*FallbackController, error) {
	if secondary != "" {
		if _, err := reg.Get(secondary); err != nil {
			return nil, fmt.Errorf("fallback engine: %w", err)
		}
	}
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FallbackController{
		registry:   reg,
		prober:     prober,
		classifier: classifier,
		secondary:  secondary,
		logger:     logger,
	}, nil
}

// Secondary returns the configured fallback engine id
func (f *FallbackController) Secondary() string {
	return f.secondary
}

// Run invokes attempt with the primary engine and, when the failure is
// classified as transient, once more with the secondary engine.
func (f *FallbackController) Run(ctx context.Context, primary ttypes.EngineDescriptor, params ttypes.Params, attempt Attempt) (ttypes.Outcome, error) {
	out, err := attempt(ctx, primary, params)
	if err == nil {
		out.Kind = ttypes.Delivered
		out.Engine = primary.ID
		return out, nil
	}

	var execErr *ExecutionError
	if !errors.As(err, &execErr) || ctx.Err() != nil {
		return ttypes.Outcome{}, err
	}

	verdict := f.classifier.Classify(execErr.Stderr)
	if !verdict.Transient {
		f.logger.Debug("engine failure is fatal, no fallback", "engine", primary.ID)
		return ttypes.Outcome{}, err
	}

	if f.secondary == "" || f.secondary == primary.ID {
		f.logger.Warn("compatibility failure without a usable fallback engine",
			"engine", primary.ID, "cause", verdict.Cause, "secondary", f.secondary)
		return ttypes.Outcome{}, err
	}

	secondary, serr := f.registry.Get(f.secondary)
	if serr != nil {
		return ttypes.Outcome{}, err
	}
	if !f.prober.CheckAvailability(secondary.ID) {
		f.logger.Warn("fallback engine is not available",
			"engine", primary.ID, "cause", verdict.Cause, "secondary", secondary.ID)
		return ttypes.Outcome{}, err
	}

	f.logger.Warn("engine failed with a compatibility error, falling back",
		"engine", primary.ID, "cause", verdict.Cause, "secondary", secondary.ID)

	out, serr = attempt(ctx, secondary, TranslateParams(secondary, params))
	if serr != nil {
		return ttypes.Outcome{}, &FallbackError{
			Primary:      primary.ID,
			Secondary:    secondary.ID,
			PrimaryErr:   err,
			SecondaryErr: serr,
		}
	}

	out.Kind = ttypes.Substituted
	out.Engine = secondary.ID
	out.Original = primary.ID
	out.Cause = verdict.Cause
	return out, nil
}

// TranslateParams adapts parameters resolved for one engine to another.
// The language keeps its variant when the target has it, otherwise its base
// code, otherwise the target's first variant. Model and speaker are reset to
// the target's defaults.
func TranslateParams(target ttypes.EngineDescriptor, p ttypes.Params) ttypes.Params {
	out := ttypes.Params{
		Speed:  p.Speed,
		Pitch:  p.Pitch,
		Volume: p.Volume,
	}

	profile, variant, ok := registry.ResolveLanguage(target, p.Language)
	if !ok {
		profile = target.Languages[0]
		variant = profile.Variants[0]
	}
	out.Language = variant

	if target.Capabilities.Models {
		if m, ok := registry.ResolveModel(profile, ""); ok {
			out.Model = &m
			out.Speaker = registry.ResolveSpeaker(m, "")
		}
	}
	return out
}
