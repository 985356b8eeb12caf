package tts

import (
	"testing"

	"github.com/advancedtts/advtts/internal/ttypes"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		name      string
		stderr    string
		transient bool
		cause     ttypes.Cause
	}{
		{
			name:      "torch weights only",
			stderr:    "_pickle.UnpicklingError: Weights only load failed. This file can still be loaded",
			transient: true,
			cause:     ttypes.CauseWeightsSerialization,
		},
		{
			name:      "truncated archive",
			stderr:    "RuntimeError: PytorchStreamReader failed reading zip archive: failed finding central directory",
			transient: true,
			cause:     ttypes.CauseCheckpointLoad,
		},
		{
			name:      "numpy abi",
			stderr:    "ValueError: numpy.dtype size changed, may indicate binary incompatibility",
			transient: true,
			cause:     ttypes.CauseVersionMismatch,
		},
		{
			name:      "cuda oom",
			stderr:    "torch.cuda.OutOfMemoryError: CUDA out of memory. Tried to allocate 2.00 GiB",
			transient: true,
			cause:     ttypes.CauseOutOfMemory,
		},
		{
			name:      "state dict",
			stderr:    "RuntimeError: Error(s) in loading state_dict for Vits:\n\tMissing key(s) in state_dict: \"emb_g.weight\"",
			transient: true,
			cause:     ttypes.CauseStateDictMismatch,
		},
		{
			name:      "first group wins",
			stderr:    "UnpicklingError while handling out of memory",
			transient: true,
			cause:     ttypes.CauseWeightsSerialization,
		},
		{
			name: "torch load warning before an unrelated error",
			stderr: "FutureWarning: You are using `torch.load` with `weights_only=False` (the current default value), " +
				"which uses the default pickle module implicitly. It is possible to construct malicious pickle data " +
				"which will execute arbitrary code during unpickling. In a future release, the default value for " +
				"`weights_only` will be flipped to `True`. Arbitrary objects will no longer be allowed to be loaded " +
				"via this mode unless they are explicitly allowlisted by the user via `torch.serialization.add_safe_globals`.\n" +
				"ValueError:  [!] Looks like you are using a multi-speaker model. You need to define either a `speaker_idx` or a `speaker_wav` to use a multi-speaker model.",
		},
		{name: "unknown failure", stderr: "Segmentation fault (core dumped)"},
		{name: "empty", stderr: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.stderr)
			if got.Transient != tt.transient || got.Cause != tt.cause {
				t.Errorf("Classify() = %+v, want transient=%v cause=%q", got, tt.transient, tt.cause)
			}
		})
	}
}

func TestClassifierCustomSignatures(t *testing.T) {
	c := NewClassifier([]Signature{{Cause: "custom", Patterns: []string{"Model Busy"}}})
	if got := c.Classify("error: MODEL BUSY, retry"); !got.Transient || got.Cause != "custom" {
		t.Errorf("Classify() = %+v, want custom transient", got)
	}
	if got := c.Classify("CUDA out of memory"); got.Transient {
		t.Error("custom signatures should replace the defaults")
	}
}
