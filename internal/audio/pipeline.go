package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/advancedtts/advtts/internal/tts"
	"github.com/advancedtts/advtts/internal/ttypes"
	"github.com/charmbracelet/log"
)

// Bitrate is used for every lossy output format
const Bitrate = "192k"

// codec is the ffmpeg encoder and muxer for one output format
type codec struct {
	encoder string
	muxer   string
	lossy   bool
}

var codecs = map[ttypes.Format]codec{
	ttypes.FormatMP3: {encoder: "libmp3lame", muxer: "mp3", lossy: true},
	ttypes.FormatOGG: {encoder: "libvorbis", muxer: "ogg", lossy: true},
	ttypes.FormatM4A: {encoder: "aac", muxer: "ipod", lossy: true},
	ttypes.FormatWAV: {encoder: "pcm_s16le", muxer: "wav"},
}

// Options configures a Pipeline
type Options struct {
	// FFmpeg and FFprobe default to the commands found on PATH
	FFmpeg  string
	FFprobe string

	Logger *log.Logger
}

// Pipeline converts and probes audio files
type Pipeline struct {
	ffmpeg  string
	ffprobe string
	logger  *log.Logger
}

var _ tts.Pipeline = (*Pipeline)(nil)

// New creates a pipeline
func New(opts Options) *Pipeline {
	p := &Pipeline{
		ffmpeg:  opts.FFmpeg,
		ffprobe: opts.FFprobe,
		logger:  opts.Logger,
	}
	if p.ffmpeg == "" {
		p.ffmpeg = "ffmpeg"
	}
	if p.ffprobe == "" {
		p.ffprobe = "ffprobe"
	}
	if p.logger == nil {
		p.logger = log.Default()
	}
	return p
}

// Available reports whether the transcoder can be found
func (p *Pipeline) Available() bool {
	_, err := exec.LookPath(p.ffmpeg)
	return err == nil
}

// Convert transcodes inputPath into outputPath. ffmpeg writes a sibling
// .part file that is renamed into place only on success.
func (p *Pipeline) Convert(ctx context.Context, inputPath, outputPath string, format ttypes.Format) error {
	c, ok := codecs[format]
	if !ok {
		return fmt.Errorf("%w: %q", tts.ErrUnsupportedFormat, format)
	}

	part := outputPath + ".part"
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", inputPath,
		"-vn",
		"-c:a", c.encoder,
	}
	if c.lossy {
		args = append(args, "-b:a", Bitrate)
	}
	args = append(args, "-f", c.muxer, part)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.ffmpeg, args...)
	cmd.Stderr = &stderr

	p.logger.Debug("converting audio", "input", inputPath, "format", format)
	if err := cmd.Run(); err != nil {
		removePart(part)
		msg := strings.TrimSpace(stderr.String())
		if errors.Is(err, exec.ErrNotFound) {
			msg = "ffmpeg not found"
		}
		return fmt.Errorf("%w: %s to %s: %v: %s", tts.ErrConversionFailed, inputPath, format, err, msg)
	}

	if err := os.Rename(part, outputPath); err != nil {
		removePart(part)
		return fmt.Errorf("%w: %v", tts.ErrConversionFailed, err)
	}
	return nil
}

func removePart(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("failed to remove partial conversion", "path", path, "error", err)
	}
}
