package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/advancedtts/advtts/internal/tts"
	"github.com/advancedtts/advtts/internal/ttypes"
	"github.com/hajimehoshi/go-mp3"
)

// ProbeDuration returns the length of path in seconds. WAV, Ogg and MP3 are
// decoded natively; M4A and files a decoder rejects go through ffprobe.
func (p *Pipeline) ProbeDuration(ctx context.Context, path string) (float64, error) {
	format, _ := ttypes.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))

	var (
		d   float64
		err error
	)
	switch format {
	case ttypes.FormatMP3:
		d, err = mp3Duration(path)
	case ttypes.FormatWAV, ttypes.FormatOGG:
		d, err = streamDuration(path)
	default:
		err = errors.New("no native decoder")
	}
	if err == nil {
		return d, nil
	}

	p.logger.Debug("native probe failed, trying ffprobe", "path", path, "error", err)
	d, perr := p.ffprobeDuration(ctx, path)
	if perr != nil {
		return 0, fmt.Errorf("%w: %s: %w", tts.ErrProbeFailed, path, errors.Join(err, perr))
	}
	return d, nil
}

// streamDuration decodes the header of a WAV or Ogg file
func streamDuration(path string) (float64, error) {
	s, format, err := Decode(path)
	if err != nil {
		return 0, err
	}
	defer s.Close()

	if format.SampleRate <= 0 {
		return 0, errors.New("invalid sample rate")
	}
	return format.SampleRate.D(s.Len()).Seconds(), nil
}

// mp3Duration derives the length from the decoded PCM size. go-mp3 always
// decodes to 16-bit stereo, four bytes per frame.
func mp3Duration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d, err := mp3.NewDecoder(f)
	if err != nil {
		return 0, err
	}
	n := d.Length()
	if n <= 0 || d.SampleRate() <= 0 {
		return 0, errors.New("unknown mp3 length")
	}
	return float64(n) / 4 / float64(d.SampleRate()), nil
}

func (p *Pipeline) ffprobeDuration(ctx context.Context, path string) (float64, error) {
	out, err := exec.CommandContext(ctx, p.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe output %q: %w", strings.TrimSpace(string(out)), err)
	}
	return d, nil
}
