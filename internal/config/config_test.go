package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

func load(t *testing.T, yaml string) (Config, error) {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(yaml)); err != nil {
		t.Fatal(err)
	}
	return Load(v)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(t, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Fallback.Secondary != "espeak-ng" {
		t.Errorf("Fallback.Secondary = %q", cfg.Fallback.Secondary)
	}
	if cfg.Cleanup.MaxAge != time.Hour || cfg.Synthesis.Timeout != 5*time.Minute {
		t.Errorf("durations = %v, %v", cfg.Cleanup.MaxAge, cfg.Synthesis.Timeout)
	}
	if cfg.Admission["coqui"] != 1 {
		t.Errorf("Admission = %v", cfg.Admission)
	}
	if cfg.EngineConfig().RequestsPerMinute != 50 {
		t.Errorf("RequestsPerMinute = %d", cfg.EngineConfig().RequestsPerMinute)
	}
	if strings.HasPrefix(cfg.Engines.Piper.ModelsDir, "~") {
		t.Errorf("ModelsDir not expanded: %q", cfg.Engines.Piper.ModelsDir)
	}

	req := cfg.Request("hi")
	if req.Engine != "espeak-ng" || req.Format != "mp3" || req.Speed != 150 {
		t.Errorf("Request() = %+v", req)
	}
}

func TestLoadOverrides(t *testing.T) {
	home, err := homedir.Dir()
	if err != nil {
		t.Skip("no home directory")
	}

	cfg, err := load(t, `
output_dir: ~/audio
synthesis:
  timeout: 30s
  engine: piper
  format: ogg
fallback:
  secondary: ""
admission:
  coqui: 2
  piper: 4
cache:
  memory_mb: 8
  disk_mb: 0
cleanup:
  max_age: 2h
  cron: "*/15 * * * *"
log:
  level: debug
`)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.OutputDir != home+string(os.PathSeparator)+"audio" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.Synthesis.Timeout != 30*time.Second || cfg.Synthesis.Engine != "piper" {
		t.Errorf("Synthesis = %+v", cfg.Synthesis)
	}
	if cfg.Fallback.Secondary != "" {
		t.Errorf("fallback should be disabled, got %q", cfg.Fallback.Secondary)
	}
	if cfg.Admission["piper"] != 4 || cfg.Admission["coqui"] != 2 {
		t.Errorf("Admission = %v", cfg.Admission)
	}
	cc := cfg.CacheConfig()
	if cc.MemoryCapacity != 8<<20 || cc.DiskCapacity != 0 {
		t.Errorf("CacheConfig() = %+v", cc)
	}
	if s := cfg.Schedule(); s.Cron != "*/15 * * * *" {
		t.Errorf("Schedule() = %+v", s)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "format", mutate: func(c *Config) { c.Synthesis.Format = "flac" }, want: "synthesis.format"},
		{name: "text length", mutate: func(c *Config) { c.MaxTextLength = 0 }, want: "max_text_length"},
		{name: "admission", mutate: func(c *Config) { c.Admission["piper"] = -1 }, want: "admission.piper"},
		{name: "compression", mutate: func(c *Config) { c.Cache.CompressionLevel = 30 }, want: "compression_level"},
		{name: "max age", mutate: func(c *Config) { c.Cleanup.MaxAge = 0 }, want: "cleanup.max_age"},
		{name: "cron", mutate: func(c *Config) { c.Cleanup.Cron = "nope" }, want: "invalid cron"},
		{name: "log level", mutate: func(c *Config) { c.Log.Level = "loud" }, want: "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
