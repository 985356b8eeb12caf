package tts

import (
	"time"

	"github.com/advancedtts/advtts/internal/ttypes"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-runewidth"
)

// previewWidth bounds how much request text appears in log lines
const previewWidth = 48

// Metrics describes one synthesis request for logging
type Metrics struct {
	ID           string
	Engine       string
	ActualEngine string
	Text         string
	TextLength   int
	Format       ttypes.Format
	Start        time.Time
	End          time.Time
	Duration     float64
	CacheHit     bool
	Err          error
}

// Elapsed returns the wall time spent on the request
func (m Metrics) Elapsed() time.Duration {
	return m.End.Sub(m.Start)
}

func (m Metrics) log(logger *log.Logger) {
	kv := []interface{}{
		"id", m.ID,
		"engine", m.Engine,
		"chars", m.TextLength,
		"format", m.Format,
		"elapsed", m.Elapsed().Round(time.Millisecond),
		"text", runewidth.Truncate(m.Text, previewWidth, "…"),
	}

	if m.Err != nil {
		logger.Error("synthesis failed", append(kv, "error", m.Err)...)
		return
	}

	kv = append(kv, "audio_seconds", m.Duration, "cache_hit", m.CacheHit)
	if m.ActualEngine != "" && m.ActualEngine != m.Engine {
		kv = append(kv, "fallback_engine", m.ActualEngine)
	}
	logger.Info("synthesis complete", kv...)
}
