package tts

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/advancedtts/advtts/internal/ttypes"
	"github.com/mitchellh/go-homedir"
)

// ResolverConfig describes where interpreter-bound engines are installed.
// Fields are read from ADVTTS_* environment variables.
type ResolverConfig struct {
	// PythonVenv is the virtualenv holding gtts-cli and similar tools
	PythonVenv string `env:"PYTHON_VENV" envDefault:"~/.venvs/tts"`

	// PyenvRoot is the pyenv installation whose shims provide python3 and tts
	PyenvRoot string `env:"PYENV_ROOT" envDefault:"~/.pyenv"`

	// Overrides maps engine ids to explicit executable paths,
	// e.g. ADVTTS_BIN="coqui=/opt/coqui/bin/tts,piper=/usr/local/bin/piper"
	Overrides map[string]string `env:"BIN" envKeyValSeparator:"="`
}

// Resolver locates the executable behind an engine descriptor. It is the only
// place that knows about install layouts.
type Resolver struct {
	cfg      ResolverConfig
	lookPath func(string) (string, error)
}

// NewResolver creates a resolver for the given layout
func NewResolver(cfg ResolverConfig) *Resolver {
	return &Resolver{
		cfg:      cfg,
		lookPath: exec.LookPath,
	}
}

// Resolve returns the executable path for e. The explicit override wins, then
// the runtime layout, then PATH.
func (r *Resolver) Resolve(e ttypes.EngineDescriptor) (string, bool) {
	if p, ok := r.cfg.Overrides[e.ID]; ok && p != "" {
		p = expand(p)
		return p, isExecutable(p)
	}

	if dir := r.runtimeDir(e.Executable.Runtime); dir != "" {
		p := filepath.Join(dir, e.Executable.Command)
		if isExecutable(p) {
			return p, true
		}
	}

	p, err := r.lookPath(e.Executable.Command)
	if err != nil {
		return "", false
	}
	return p, true
}

// runtimeDir returns the directory a runtime layout installs commands into
func (r *Resolver) runtimeDir(rt ttypes.Runtime) string {
	switch rt {
	case ttypes.RuntimePythonVenv:
		if r.cfg.PythonVenv == "" {
			return ""
		}
		return filepath.Join(expand(r.cfg.PythonVenv), "bin")
	case ttypes.RuntimePyenv:
		if r.cfg.PyenvRoot == "" {
			return ""
		}
		return filepath.Join(expand(r.cfg.PyenvRoot), "shims")
	default:
		return ""
	}
}

func expand(p string) string {
	if e, err := homedir.Expand(p); err == nil {
		return e
	}
	return p
}

func isRegular(p string) (os.FileInfo, bool) {
	fi, err := os.Stat(p)
	if err != nil || !fi.Mode().IsRegular() {
		return nil, false
	}
	return fi, true
}
