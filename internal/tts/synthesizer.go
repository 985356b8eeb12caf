package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/advancedtts/advtts/internal/cache"
	"github.com/advancedtts/advtts/internal/registry"
	"github.com/advancedtts/advtts/internal/ttypes"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// PreviewLength is the number of characters synthesized by Preview
const PreviewLength = 200

// Options configures a Synthesizer
type Options struct {
	// OutputDir holds finished files, addressed as /audio/<id>.<ext>
	OutputDir string

	// TempDir holds native engine output until it is converted
	TempDir string

	// MaxTextLength defaults to DefaultMaxTextLength
	MaxTextLength int

	// Cache, when set, reuses native renders of identical requests
	Cache RenderCache

	// Admission, when set, bounds concurrent processes per engine
	Admission Admission

	Logger *log.Logger
}

// Synthesizer turns validated requests into audio files. Requests are
// independent; the only shared state is the filesystem, partitioned by
// request id.
type Synthesizer struct {
	registry *registry.Registry
	prober   *Prober
	adapters map[string]Adapter
	pipeline Pipeline
	fallback *FallbackController
	opts     Options
	logger   *log.Logger
	newID    func() string
}

// NewSynthesizer wires the orchestrator's collaborators and creates the
// output and temp directories
func NewSynthesizer(reg *registry.Registry, prober *Prober, adapters map[string]Adapter, pipeline Pipeline, fallback *FallbackController, opts Options) (*Synthesizer, error) {
	if reg == nil || prober == nil || pipeline == nil || fallback == nil {
		return nil, errors.New("synthesizer: registry, prober, pipeline and fallback are required")
	}
	if opts.OutputDir == "" || opts.TempDir == "" {
		return nil, errors.New("synthesizer: output and temp directories are required")
	}
	for _, dir := range []string{opts.OutputDir, opts.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if opts.MaxTextLength <= 0 {
		opts.MaxTextLength = DefaultMaxTextLength
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Synthesizer{
		registry: reg,
		prober:   prober,
		adapters: adapters,
		pipeline: pipeline,
		fallback: fallback,
		opts:     opts,
		logger:   logger,
		newID:    uuid.NewString,
	}, nil
}

// Synthesize validates req, produces native audio with the requested engine
// (or the fallback engine), converts it to the requested format and probes
// its duration. On failure every file created for the request is removed.
func (s *Synthesizer) Synthesize(ctx context.Context, req ttypes.SynthesisRequest) (*ttypes.SynthesisResult, error) {
	return s.synthesize(ctx, req, false)
}

// Preview synthesizes the first PreviewLength characters of req as WAV
func (s *Synthesizer) Preview(ctx context.Context, req ttypes.SynthesisRequest) (*ttypes.SynthesisResult, error) {
	if r := []rune(req.Text); len(r) > PreviewLength {
		req.Text = string(r[:PreviewLength])
	}
	req.Format = ttypes.FormatWAV
	return s.synthesize(ctx, req, true)
}

// job tracks the files one request creates
type job struct {
	id        string
	text      string
	requested string

	mu       sync.Mutex
	files    []string
	cacheHit bool
}

func (j *job) track(path string) {
	j.mu.Lock()
	j.files = append(j.files, path)
	j.mu.Unlock()
}

func (s *Synthesizer) synthesize(ctx context.Context, req ttypes.SynthesisRequest, preview bool) (*ttypes.SynthesisResult, error) {
	v, err := validateRequest(s.registry, req, s.opts.MaxTextLength)
	if err != nil {
		return nil, err
	}
	req = v.request

	if !s.prober.CheckAvailability(v.engine.ID) {
		return nil, NewTTSError(ErrorCodeEngineUnavailable,
			fmt.Sprintf("engine %s is not installed", v.engine.ID), nil).
			WithContext("engine", v.engine.ID)
	}

	j := &job{id: s.newID(), text: req.Text, requested: v.engine.ID}
	m := Metrics{
		ID:         j.id,
		Engine:     v.engine.ID,
		Text:       req.Text,
		TextLength: len([]rune(req.Text)),
		Format:     req.Format,
		Start:      time.Now(),
	}

	result, err := s.run(ctx, j, v, preview)
	m.End = time.Now()
	m.CacheHit = j.cacheHit
	if err != nil {
		s.rollback(j)
		m.Err = err
		m.log(s.logger)
		return nil, NewTTSError(ErrorCodeSynthesisFailed, "synthesis failed", err).
			WithContext("id", j.id).
			WithContext("engine", v.engine.ID)
	}

	m.ActualEngine = result.Engine
	m.Duration = result.Duration
	m.log(s.logger)
	return result, nil
}

func (s *Synthesizer) run(ctx context.Context, j *job, v *validated, preview bool) (*ttypes.SynthesisResult, error) {
	outcome, err := s.fallback.Run(ctx, v.engine, v.params, s.attempt(j))
	if err != nil {
		return nil, err
	}

	format := v.request.Format
	outputPath := filepath.Join(s.opts.OutputDir, j.id+format.Ext())
	j.track(outputPath)

	if outcome.Format == format {
		if err := moveFile(outcome.Path, outputPath); err != nil {
			return nil, fmt.Errorf("move output: %w", err)
		}
	} else {
		if err := s.pipeline.Convert(ctx, outcome.Path, outputPath, format); err != nil {
			return nil, err
		}
		s.remove(outcome.Path)
	}

	duration, err := s.pipeline.ProbeDuration(ctx, outputPath)
	if err != nil {
		return nil, err
	}

	result := &ttypes.SynthesisResult{
		ID:       j.id,
		Filename: filepath.Base(outputPath),
		Path:     outputPath,
		URL:      ttypes.PublicURL(j.id, format),
		Format:   format,
		Engine:   outcome.Engine,
		Language: outcome.Params.Language,
		Speaker:  outcome.Params.Speaker,
		Duration: duration,
		Preview:  preview,
		Fallback: outcome.Fallback(),
	}
	if outcome.Params.Model != nil {
		result.Model = outcome.Params.Model.ID
	}
	return result, nil
}

// attempt returns the per-engine step the fallback controller drives. It
// consults the render cache, takes an admission slot and runs the adapter.
func (s *Synthesizer) attempt(j *job) Attempt {
	return func(ctx context.Context, e ttypes.EngineDescriptor, p ttypes.Params) (ttypes.Outcome, error) {
		adapter, ok := s.adapters[e.ID]
		if !ok {
			return ttypes.Outcome{}, NewTTSError(ErrorCodeEngineUnavailable,
				fmt.Sprintf("no adapter registered for %s", e.ID), nil)
		}

		path := filepath.Join(s.opts.TempDir, j.id+e.NativeFormat.Ext())
		j.track(path)
		out := ttypes.Outcome{Engine: e.ID, Path: path, Format: e.NativeFormat, Params: p}

		var key string
		if s.opts.Cache != nil {
			key = renderKey(e.ID, p, j.text)
			if data, ok := s.opts.Cache.Get(key); ok {
				if err := os.WriteFile(path, data, 0o644); err == nil {
					j.mu.Lock()
					j.cacheHit = true
					j.mu.Unlock()
					return out, nil
				}
			}
		}

		if s.opts.Admission != nil {
			release, err := s.opts.Admission.Acquire(ctx, e.ID)
			if err != nil {
				return ttypes.Outcome{}, fmt.Errorf("admission for %s: %w", e.ID, err)
			}
			defer release()
		}

		if err := adapter.Generate(ctx, j.text, path, p); err != nil {
			s.remove(path)
			return ttypes.Outcome{}, err
		}

		if key != "" && e.ID == j.requested {
			s.storeRender(key, path)
		}
		return out, nil
	}
}

func (s *Synthesizer) storeRender(key, path string) {
	data, err := os.ReadFile(path)
	if err == nil {
		err = s.opts.Cache.Put(key, data)
	}
	if err != nil {
		s.logger.Debug("render not cached", "error", err)
	}
}

// renderKey identifies a native render by everything that shapes it
func renderKey(engine string, p ttypes.Params, text string) string {
	model := ""
	if p.Model != nil {
		model = p.Model.Model
	}
	return cache.Key(engine, p.Language, model, p.Speaker,
		strconv.Itoa(p.Speed), strconv.Itoa(p.Pitch), strconv.Itoa(p.Volume), text)
}

// rollback removes every file the job created. Failures are logged only.
func (s *Synthesizer) rollback(j *job) {
	j.mu.Lock()
	files := append([]string(nil), j.files...)
	j.mu.Unlock()

	var errs []error
	for _, f := range files {
		if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		s.logger.Warn("cleanup after failed synthesis incomplete",
			"id", j.id, "error", fmt.Errorf("%w: %w", ErrCleanup, errors.Join(errs...)))
	}
}

func (s *Synthesizer) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("failed to remove temp file", "path", path, "error", fmt.Errorf("%w: %w", ErrCleanup, err))
	}
}

// moveFile renames src to dst, copying when they are on different filesystems
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
