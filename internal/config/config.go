// Package config loads advtts settings from the config file, the
// environment and command-line flags through viper.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/advancedtts/advtts/internal/cache"
	"github.com/advancedtts/advtts/internal/queue"
	"github.com/advancedtts/advtts/internal/reaper"
	"github.com/advancedtts/advtts/internal/tts"
	"github.com/advancedtts/advtts/internal/tts/engines"
	"github.com/advancedtts/advtts/internal/ttypes"
	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

// AppName names config, data and cache directories
const AppName = "advtts"

// Config contains all advtts settings.
type Config struct {
	OutputDir     string `mapstructure:"output_dir"`
	TempDir       string `mapstructure:"temp_dir"`
	MaxTextLength int    `mapstructure:"max_text_length"`

	Synthesis SynthesisConfig `mapstructure:"synthesis"`
	Fallback  FallbackConfig  `mapstructure:"fallback"`
	Engines   EnginesConfig   `mapstructure:"engines"`
	Admission map[string]int  `mapstructure:"admission"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Cleanup   CleanupConfig   `mapstructure:"cleanup"`
	Log       LogConfig       `mapstructure:"log"`
}

// SynthesisConfig holds request defaults and the caller-side timeout.
type SynthesisConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	Engine   string        `mapstructure:"engine"`
	Language string        `mapstructure:"language"`
	Format   string        `mapstructure:"format"`
}

// FallbackConfig selects the engine used after compatibility failures.
// An empty secondary disables fallback.
type FallbackConfig struct {
	Secondary string `mapstructure:"secondary"`
}

// EnginesConfig contains engine specific settings.
type EnginesConfig struct {
	KillGrace time.Duration `mapstructure:"kill_grace"`
	Piper     PiperConfig   `mapstructure:"piper"`
	Coqui     CoquiConfig   `mapstructure:"coqui"`
	GTTS      GTTSConfig    `mapstructure:"gtts"`
}

// PiperConfig contains Piper settings.
type PiperConfig struct {
	ModelsDir string `mapstructure:"models_dir"`
}

// CoquiConfig contains Coqui settings.
type CoquiConfig struct {
	UseCUDA bool `mapstructure:"use_cuda"`
}

// GTTSConfig contains gTTS settings.
type GTTSConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

// CacheConfig contains render cache settings.
type CacheConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Dir              string        `mapstructure:"dir"`
	MemoryMB         int           `mapstructure:"memory_mb"`
	DiskMB           int           `mapstructure:"disk_mb"`
	CompressionLevel int           `mapstructure:"compression_level"`
	TTL              time.Duration `mapstructure:"ttl"`
}

// CleanupConfig contains reaper settings.
type CleanupConfig struct {
	MaxAge time.Duration `mapstructure:"max_age"`
	Every  time.Duration `mapstructure:"every"`
	Cron   string        `mapstructure:"cron"`
}

// LogConfig contains logging settings. An empty file logs to stderr only.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	scope := gap.NewScope(gap.User, AppName)
	data := func(name string) string {
		if p, err := scope.DataPath(name); err == nil {
			return p
		}
		return filepath.Join("~", ".local", "share", AppName, name)
	}
	cacheDir, err := scope.CacheDir()
	if err != nil {
		cacheDir = filepath.Join("~", ".cache", AppName)
	}

	ec := engines.DefaultConfig()
	cc := cache.DefaultConfig()

	return Config{
		OutputDir:     data("output"),
		TempDir:       data("temp"),
		MaxTextLength: tts.DefaultMaxTextLength,
		Synthesis: SynthesisConfig{
			Timeout:  5 * time.Minute,
			Engine:   ttypes.DefaultEngine,
			Language: ttypes.DefaultLanguage,
			Format:   string(ttypes.DefaultFormat),
		},
		Fallback: FallbackConfig{Secondary: ttypes.DefaultEngine},
		Engines: EnginesConfig{
			KillGrace: ec.KillGrace,
			Piper:     PiperConfig{ModelsDir: ec.PiperModelsDir},
			GTTS:      GTTSConfig{RequestsPerMinute: ec.RequestsPerMinute},
		},
		Admission: queue.DefaultLimits(),
		Cache: CacheConfig{
			Enabled:          true,
			Dir:              filepath.Join(cacheDir, "renders"),
			MemoryMB:         int(cc.MemoryCapacity >> 20),
			DiskMB:           int(cc.DiskCapacity >> 20),
			CompressionLevel: cc.CompressionLevel,
			TTL:              cc.TTL,
		},
		Cleanup: CleanupConfig{
			MaxAge: reaper.DefaultMaxAge,
			Every:  10 * time.Minute,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SetDefaults registers every default with v so that config files and
// environment variables only need to name what they change.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("temp_dir", d.TempDir)
	v.SetDefault("max_text_length", d.MaxTextLength)

	v.SetDefault("synthesis.timeout", d.Synthesis.Timeout)
	v.SetDefault("synthesis.engine", d.Synthesis.Engine)
	v.SetDefault("synthesis.language", d.Synthesis.Language)
	v.SetDefault("synthesis.format", d.Synthesis.Format)

	v.SetDefault("fallback.secondary", d.Fallback.Secondary)

	v.SetDefault("engines.kill_grace", d.Engines.KillGrace)
	v.SetDefault("engines.piper.models_dir", d.Engines.Piper.ModelsDir)
	v.SetDefault("engines.coqui.use_cuda", d.Engines.Coqui.UseCUDA)
	v.SetDefault("engines.gtts.requests_per_minute", d.Engines.GTTS.RequestsPerMinute)

	v.SetDefault("admission", d.Admission)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.memory_mb", d.Cache.MemoryMB)
	v.SetDefault("cache.disk_mb", d.Cache.DiskMB)
	v.SetDefault("cache.compression_level", d.Cache.CompressionLevel)
	v.SetDefault("cache.ttl", d.Cache.TTL)

	v.SetDefault("cleanup.max_age", d.Cleanup.MaxAge)
	v.SetDefault("cleanup.every", d.Cleanup.Every)
	v.SetDefault("cleanup.cron", d.Cleanup.Cron)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
}

// Load decodes v into a Config, expands paths and validates the result.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unable to decode configuration: %w", err)
	}

	for _, p := range []*string{&cfg.OutputDir, &cfg.TempDir, &cfg.Engines.Piper.ModelsDir, &cfg.Cache.Dir, &cfg.Log.File} {
		*p = expandPath(*p)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if c.OutputDir == "" || c.TempDir == "" {
		errs = append(errs, errors.New("output_dir and temp_dir are required"))
	}
	if c.MaxTextLength < 1 {
		errs = append(errs, fmt.Errorf("max_text_length must be positive, got %d", c.MaxTextLength))
	}
	if c.Synthesis.Timeout < 0 {
		errs = append(errs, fmt.Errorf("synthesis.timeout must not be negative, got %v", c.Synthesis.Timeout))
	}
	if _, ok := ttypes.ParseFormat(c.Synthesis.Format); !ok {
		errs = append(errs, fmt.Errorf("synthesis.format %q must be one of %v", c.Synthesis.Format, ttypes.Formats))
	}
	if c.Engines.GTTS.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("engines.gtts.requests_per_minute must not be negative, got %d", c.Engines.GTTS.RequestsPerMinute))
	}
	for engine, n := range c.Admission {
		if n < 0 {
			errs = append(errs, fmt.Errorf("admission.%s must not be negative, got %d", engine, n))
		}
	}
	if c.Cache.Enabled {
		if c.Cache.MemoryMB < 0 || c.Cache.DiskMB < 0 {
			errs = append(errs, errors.New("cache sizes must not be negative"))
		}
		if c.Cache.DiskMB > 0 && c.Cache.Dir == "" {
			errs = append(errs, errors.New("cache.dir is required when the disk cache is enabled"))
		}
		if c.Cache.CompressionLevel < 0 || c.Cache.CompressionLevel > 22 {
			errs = append(errs, fmt.Errorf("cache.compression_level must be between 0 and 22, got %d", c.Cache.CompressionLevel))
		}
	}
	if c.Cleanup.MaxAge <= 0 {
		errs = append(errs, fmt.Errorf("cleanup.max_age must be positive, got %v", c.Cleanup.MaxAge))
	}
	if err := c.Schedule().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("cleanup: %w", err))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}

// EngineConfig converts to adapter settings.
func (c *Config) EngineConfig() engines.Config {
	return engines.Config{
		PiperModelsDir:    c.Engines.Piper.ModelsDir,
		CoquiUseCUDA:      c.Engines.Coqui.UseCUDA,
		RequestsPerMinute: c.Engines.GTTS.RequestsPerMinute,
		KillGrace:         c.Engines.KillGrace,
	}
}

// CacheConfig converts to render cache settings.
func (c *Config) CacheConfig() cache.Config {
	return cache.Config{
		MemoryCapacity:   int64(c.Cache.MemoryMB) << 20,
		DiskCapacity:     int64(c.Cache.DiskMB) << 20,
		DiskPath:         c.Cache.Dir,
		CompressionLevel: c.Cache.CompressionLevel,
		TTL:              c.Cache.TTL,
	}
}

// Schedule converts to the reaper schedule.
func (c *Config) Schedule() reaper.Schedule {
	return reaper.Schedule{Every: c.Cleanup.Every, Cron: c.Cleanup.Cron}
}

// Request returns a request for text with the configured defaults.
func (c *Config) Request(text string) ttypes.SynthesisRequest {
	req := ttypes.NewRequest(text)
	req.Engine = c.Synthesis.Engine
	req.Language = c.Synthesis.Language
	req.Format = ttypes.Format(c.Synthesis.Format)
	return req.WithDefaults()
}

func expandPath(p string) string {
	if p == "" {
		return p
	}
	if e, err := homedir.Expand(p); err == nil {
		return e
	}
	return p
}
