package engines

import (
	"context"
	"fmt"

	"github.com/advancedtts/advtts/internal/tts"
	"github.com/advancedtts/advtts/internal/ttypes"
	"golang.org/x/time/rate"
)

// Translator maps generic parameters onto one engine's command line.
// Implementations are pure: they never touch the filesystem.
type Translator interface {
	Translate(e ttypes.EngineDescriptor, text, outputPath string, p ttypes.Params) (Invocation, error)
}

// CommandAdapter runs a translated invocation against the resolved executable
type CommandAdapter struct {
	engine     ttypes.EngineDescriptor
	translator Translator
	resolver   *tts.Resolver
	runner     *Runner

	// limiter throttles online engines
	limiter *rate.Limiter
}

var _ tts.Adapter = (*CommandAdapter)(nil)

// NewCommandAdapter creates an adapter for e
func NewCommandAdapter(e ttypes.EngineDescriptor, t Translator, resolver *tts.Resolver, runner *Runner, limiter *rate.Limiter) *CommandAdapter {
	return &CommandAdapter{
		engine:     e,
		translator: t,
		resolver:   resolver,
		runner:     runner,
		limiter:    limiter,
	}
}

// Engine returns the descriptor this adapter serves
func (a *CommandAdapter) Engine() ttypes.EngineDescriptor {
	return a.engine
}

// Translate builds the invocation for text without running it. The command
// is the catalog command, not the resolved path.
func (a *CommandAdapter) Translate(text, outputPath string, p ttypes.Params) (Invocation, error) {
	inv, err := a.translator.Translate(a.engine, text, outputPath, p)
	if err != nil {
		return Invocation{}, err
	}
	inv.Command = a.engine.Executable.Command
	return inv, nil
}

// Generate synthesizes text into outputPath in the engine's native format
func (a *CommandAdapter) Generate(ctx context.Context, text, outputPath string, p ttypes.Params) error {
	inv, err := a.Translate(text, outputPath, p)
	if err != nil {
		return err
	}

	path, ok := a.resolver.Resolve(a.engine)
	if !ok {
		return tts.NewTTSError(tts.ErrorCodeEngineUnavailable,
			fmt.Sprintf("%s executable %q not found", a.engine.ID, a.engine.Executable.Command), nil)
	}
	inv.Command = path

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait for %s: %w", a.engine.ID, err)
		}
	}

	return a.runner.Run(ctx, a.engine.ID, inv)
}
