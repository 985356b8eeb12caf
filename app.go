package main

import (
	"errors"
	"fmt"

	"github.com/advancedtts/advtts/internal/audio"
	"github.com/advancedtts/advtts/internal/cache"
	"github.com/advancedtts/advtts/internal/config"
	"github.com/advancedtts/advtts/internal/queue"
	"github.com/advancedtts/advtts/internal/registry"
	"github.com/advancedtts/advtts/internal/tts"
	"github.com/advancedtts/advtts/internal/tts/engines"
	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
)

// catalog is what read-only commands need: the engine registry and a prober
type catalog struct {
	registry *registry.Registry
	resolver *tts.Resolver
	prober   *tts.Prober
	pipeline *audio.Pipeline
}

func loadCatalog() (*catalog, error) {
	reg, err := registry.Default()
	if err != nil {
		return nil, err
	}

	// Install layouts come from ADVTTS_PYTHON_VENV, ADVTTS_PYENV_ROOT and ADVTTS_BIN
	rc, err := env.ParseAsWithOptions[tts.ResolverConfig](env.Options{Prefix: "ADVTTS_"})
	if err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}
	resolver := tts.NewResolver(rc)

	return &catalog{
		registry: reg,
		resolver: resolver,
		prober:   tts.NewProber(reg, resolver),
		pipeline: audio.New(audio.Options{Logger: log.Default().WithPrefix("audio")}),
	}, nil
}

// app is a fully wired synthesizer
type app struct {
	*catalog
	synth *tts.Synthesizer
	cache *cache.RenderCache
	gate  *queue.Gate
}

func newApp(c config.Config) (*app, error) {
	cat, err := loadCatalog()
	if err != nil {
		return nil, err
	}

	adapters, err := engines.NewTable(cat.registry, cat.resolver, c.EngineConfig())
	if err != nil {
		return nil, err
	}

	fallback, err := tts.NewFallbackController(cat.registry, cat.prober, nil,
		c.Fallback.Secondary, log.Default().WithPrefix("fallback"))
	if err != nil {
		return nil, err
	}

	a := &app{catalog: cat, gate: queue.NewGate(c.Admission)}

	opts := tts.Options{
		OutputDir:     c.OutputDir,
		TempDir:       c.TempDir,
		MaxTextLength: c.MaxTextLength,
		Admission:     a.gate,
		Logger:        log.Default().WithPrefix("synth"),
	}
	if c.Cache.Enabled {
		rc, err := cache.New(c.CacheConfig())
		if err != nil {
			log.Warn("render cache disabled", "error", err)
		} else {
			a.cache = rc
			opts.Cache = rc
		}
	}

	a.synth, err = tts.NewSynthesizer(cat.registry, cat.prober, adapters, cat.pipeline, fallback, opts)
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}
	return a, nil
}

func (a *app) Close() error {
	a.gate.Close()
	if a.cache != nil {
		return a.cache.Close()
	}
	return nil
}
