package tts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/advancedtts/advtts/internal/ttypes"
)

var weightsFailure = &ExecutionError{
	Engine:   "coqui",
	ExitCode: 1,
	Stderr:   "_pickle.UnpicklingError: Weights only load failed",
}

// recorder records every engine an attempt was made with
type recorder struct {
	engines []string
	params  []ttypes.Params
	results map[string]error
}

func (r *recorder) attempt(ctx context.Context, e ttypes.EngineDescriptor, p ttypes.Params) (ttypes.Outcome, error) {
	r.engines = append(r.engines, e.ID)
	r.params = append(r.params, p)
	if err := r.results[e.ID]; err != nil {
		return ttypes.Outcome{}, err
	}
	return ttypes.Outcome{Path: "/tmp/" + e.ID, Format: e.NativeFormat, Params: p}, nil
}

func TestFallbackRun(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name        string
		installed   []string
		secondary   string
		primary     string
		results     map[string]error
		cancel      bool
		wantEngines []string
		wantKind    ttypes.OutcomeKind
		wantErr     bool
		wantBoth    bool
	}{
		{
			name:        "delivered",
			installed:   []string{"coqui", "espeak-ng"},
			secondary:   "espeak-ng",
			primary:     "coqui",
			wantEngines: []string{"coqui"},
			wantKind:    ttypes.Delivered,
		},
		{
			name:        "substituted",
			installed:   []string{"coqui", "espeak-ng"},
			secondary:   "espeak-ng",
			primary:     "coqui",
			results:     map[string]error{"coqui": weightsFailure},
			wantEngines: []string{"coqui", "espeak-ng"},
			wantKind:    ttypes.Substituted,
		},
		{
			name:      "fatal failure",
			installed: []string{"coqui", "espeak-ng"},
			secondary: "espeak-ng",
			primary:   "coqui",
			results: map[string]error{"coqui": &ExecutionError{
				Engine: "coqui", ExitCode: 139, Stderr: "Segmentation fault",
			}},
			wantEngines: []string{"coqui"},
			wantErr:     true,
		},
		{
			name:      "torch load warning with an unrelated error",
			installed: []string{"coqui", "espeak-ng"},
			secondary: "espeak-ng",
			primary:   "coqui",
			results: map[string]error{"coqui": &ExecutionError{
				Engine:   "coqui",
				ExitCode: 1,
				Stderr: "FutureWarning: You are using `torch.load` with `weights_only=False`\n" +
					"ValueError:  [!] Looks like you are using a multi-speaker model. You need to define either a `speaker_idx`",
			}},
			wantEngines: []string{"coqui"},
			wantErr:     true,
		},
		{
			name:        "not an execution error",
			installed:   []string{"coqui", "espeak-ng"},
			secondary:   "espeak-ng",
			primary:     "coqui",
			results:     map[string]error{"coqui": errors.New("UnpicklingError in setup")},
			wantEngines: []string{"coqui"},
			wantErr:     true,
		},
		{
			name:        "secondary unavailable",
			installed:   []string{"coqui"},
			secondary:   "espeak-ng",
			primary:     "coqui",
			results:     map[string]error{"coqui": weightsFailure},
			wantEngines: []string{"coqui"},
			wantErr:     true,
		},
		{
			name:        "secondary equals primary",
			installed:   []string{"espeak-ng"},
			secondary:   "espeak-ng",
			primary:     "espeak-ng",
			results:     map[string]error{"espeak-ng": weightsFailure},
			wantEngines: []string{"espeak-ng"},
			wantErr:     true,
		},
		{
			name:        "fallback disabled",
			installed:   []string{"coqui", "espeak-ng"},
			primary:     "coqui",
			results:     map[string]error{"coqui": weightsFailure},
			wantEngines: []string{"coqui"},
			wantErr:     true,
		},
		{
			name:        "cancelled",
			installed:   []string{"coqui", "espeak-ng"},
			secondary:   "espeak-ng",
			primary:     "coqui",
			results:     map[string]error{"coqui": weightsFailure},
			cancel:      true,
			wantEngines: []string{"coqui"},
			wantErr:     true,
		},
		{
			name:      "both fail",
			installed: []string{"coqui", "espeak-ng"},
			secondary: "espeak-ng",
			primary:   "coqui",
			results: map[string]error{
				"coqui":     weightsFailure,
				"espeak-ng": &ExecutionError{Engine: "espeak-ng", ExitCode: 1, Stderr: "UnpicklingError"},
			},
			wantEngines: []string{"coqui", "espeak-ng"},
			wantErr:     true,
			wantBoth:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := testProber(t, reg, tt.installed...)
			fc, err := NewFallbackController(reg, prober, nil, tt.secondary, quietLogger())
			if err != nil {
				t.Fatal(err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancel {
				cancel()
			}

			primary, _ := reg.Get(tt.primary)
			rec := &recorder{results: tt.results}
			out, err := fc.Run(ctx, primary, TranslateParams(primary, ttypes.Params{Language: "en-gb", Speed: 150, Volume: 100}), rec.attempt)

			if strings.Join(rec.engines, ",") != strings.Join(tt.wantEngines, ",") {
				t.Errorf("attempted %v, want %v", rec.engines, tt.wantEngines)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}

			var fbErr *FallbackError
			if got := errors.As(err, &fbErr); got != tt.wantBoth {
				t.Errorf("FallbackError = %v, want %v", got, tt.wantBoth)
			}
			if tt.wantBoth {
				if !strings.Contains(err.Error(), "coqui") || !strings.Contains(err.Error(), "espeak-ng") {
					t.Errorf("combined error should name both engines: %v", err)
				}
				if !errors.Is(err, ErrEngineExecution) {
					t.Error("combined error should unwrap to the execution errors")
				}
			}
			if tt.wantErr {
				return
			}

			if out.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", out.Kind, tt.wantKind)
			}
			if tt.wantKind == ttypes.Substituted {
				info := out.Fallback()
				if info == nil || info.OriginalEngine != "coqui" || info.ActualEngine != "espeak-ng" ||
					info.Reason != ttypes.CauseWeightsSerialization {
					t.Errorf("Fallback() = %+v", info)
				}
				if p := rec.params[1]; p.Language != "en-gb" || p.Model != nil || p.Speaker != "" {
					t.Errorf("secondary params = %+v", p)
				}
			} else if out.Fallback() != nil {
				t.Error("delivered outcome should carry no fallback info")
			}
		})
	}
}

func TestNewFallbackControllerUnknownSecondary(t *testing.T) {
	reg := testRegistry(t)
	if _, err := NewFallbackController(reg, NewProber(reg, NewResolver(ResolverConfig{})), nil, "nope", nil); err == nil {
		t.Error("expected an error for an unknown secondary")
	}
}

func TestTranslateParams(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name      string
		target    string
		language  string
		wantLang  string
		wantModel string
	}{
		{name: "exact variant", target: "espeak-ng", language: "en-gb", wantLang: "en-gb"},
		{name: "base code", target: "espeak", language: "pt-br", wantLang: "pt"},
		{name: "first variant", target: "festival", language: "ja", wantLang: "en-us"},
		{name: "model default", target: "piper", language: "en-gb", wantLang: "en-gb", wantModel: "lessac"},
		{name: "model first language", target: "piper", language: "th", wantLang: "en-us", wantModel: "lessac"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, _ := reg.Get(tt.target)
			in := ttypes.Params{
				Language: tt.language,
				Speed:    200,
				Pitch:    10,
				Volume:   80,
				Model:    &ttypes.ModelDescriptor{ID: "vits-vctk"},
				Speaker:  "p226",
			}
			got := TranslateParams(target, in)

			if got.Language != tt.wantLang {
				t.Errorf("Language = %q, want %q", got.Language, tt.wantLang)
			}
			if got.Speed != 200 || got.Pitch != 10 || got.Volume != 80 {
				t.Errorf("prosody not forwarded: %+v", got)
			}
			if got.Speaker != "" {
				t.Errorf("Speaker = %q, want empty", got.Speaker)
			}
			model := ""
			if got.Model != nil {
				model = got.Model.ID
			}
			if model != tt.wantModel {
				t.Errorf("Model = %q, want %q", model, tt.wantModel)
			}
		})
	}
}
