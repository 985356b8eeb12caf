package audio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/advancedtts/advtts/internal/tts"
	"github.com/advancedtts/advtts/internal/ttypes"
	"github.com/charmbracelet/log"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

const fixtureRate = 22050

func quietPipeline(opts Options) *Pipeline {
	opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	return New(opts)
}

// writeWAV writes seconds of mono silence
func writeWAV(t *testing.T, dir string, seconds float64) string {
	t.Helper()
	path := filepath.Join(dir, "fixture.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	format := beep.Format{SampleRate: fixtureRate, NumChannels: 1, Precision: 2}
	if err := wav.Encode(f, beep.Silence(int(seconds*fixtureRate)), format); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProbeDurationWAV(t *testing.T) {
	path := writeWAV(t, t.TempDir(), 1.5)
	p := quietPipeline(Options{FFprobe: "/nonexistent/ffprobe"})

	d, err := p.ProbeDuration(context.Background(), path)
	if err != nil {
		t.Fatalf("ProbeDuration() error = %v", err)
	}
	if math.Abs(d-1.5) > 0.001 {
		t.Errorf("ProbeDuration() = %f, want 1.5", d)
	}
}

func TestProbeDurationFailure(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content []byte
	}{
		{name: "garbage wav", file: "bad.wav", content: []byte("not a riff file")},
		{name: "garbage mp3", file: "bad.mp3", content: []byte{0, 1, 2, 3}},
		{name: "m4a without ffprobe", file: "a.m4a", content: []byte("ftyp")},
		{name: "missing file", file: "missing.ogg"},
	}

	p := quietPipeline(Options{FFprobe: "/nonexistent/ffprobe"})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if tt.content != nil {
				if err := os.WriteFile(path, tt.content, 0o644); err != nil {
					t.Fatal(err)
				}
			}
			if _, err := p.ProbeDuration(context.Background(), path); !errors.Is(err, tts.ErrProbeFailed) {
				t.Errorf("ProbeDuration() error = %v, want ErrProbeFailed", err)
			}
		})
	}
}

func TestConvertUnsupportedFormat(t *testing.T) {
	p := quietPipeline(Options{})
	err := p.Convert(context.Background(), "in.wav", "out.flac", ttypes.Format("flac"))
	if !errors.Is(err, tts.ErrUnsupportedFormat) {
		t.Errorf("Convert() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestConvertFailureLeavesNoFiles(t *testing.T) {
	dir := t.TempDir()
	in := writeWAV(t, dir, 0.1)
	out := filepath.Join(dir, "out.mp3")

	p := quietPipeline(Options{FFmpeg: filepath.Join(dir, "no-ffmpeg")})
	err := p.Convert(context.Background(), in, out, ttypes.FormatMP3)
	if !errors.Is(err, tts.ErrConversionFailed) {
		t.Fatalf("Convert() error = %v, want ErrConversionFailed", err)
	}
	for _, f := range []string{out, out + ".part"} {
		if _, err := os.Stat(f); !os.IsNotExist(err) {
			t.Errorf("%s should not exist", f)
		}
	}
}

func TestConvertWithFFmpeg(t *testing.T) {
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not installed", bin)
		}
	}

	dir := t.TempDir()
	in := writeWAV(t, dir, 1)
	p := quietPipeline(Options{})

	for _, format := range []ttypes.Format{ttypes.FormatMP3, ttypes.FormatOGG, ttypes.FormatM4A, ttypes.FormatWAV} {
		t.Run(string(format), func(t *testing.T) {
			out := filepath.Join(dir, "converted"+format.Ext())

			// the second run retries into an existing output
			var durations []float64
			for i := 0; i < 2; i++ {
				if err := p.Convert(context.Background(), in, out, format); err != nil {
					t.Fatalf("Convert() run %d error = %v", i+1, err)
				}
				if _, err := os.Stat(out + ".part"); !os.IsNotExist(err) {
					t.Errorf("run %d: partial file left behind", i+1)
				}

				// encoder padding adds a few frames
				d, err := p.ProbeDuration(context.Background(), out)
				if err != nil {
					t.Fatalf("ProbeDuration() error = %v", err)
				}
				if math.Abs(d-1) > 0.15 {
					t.Errorf("run %d: duration = %f, want about 1s", i+1, d)
				}
				durations = append(durations, d)
			}
			if durations[0] != durations[1] {
				t.Errorf("durations differ across conversions: %f then %f", durations[0], durations[1])
			}
		})
	}
}

func TestPCMReader(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		frames   int
	}{
		{name: "mono", channels: 1, frames: 1000},
		{name: "stereo", channels: 2, frames: 700},
		{name: "empty", channels: 1, frames: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := io.ReadAll(newPCMReader(beep.Silence(tt.frames), tt.channels))
			if err != nil {
				t.Fatal(err)
			}
			if len(data) != tt.frames*tt.channels*2 {
				t.Errorf("got %d bytes, want %d", len(data), tt.frames*tt.channels*2)
			}
			if !bytes.Equal(data, make([]byte, len(data))) {
				t.Error("silence should encode as zero samples")
			}
		})
	}
}

func TestToInt16Clips(t *testing.T) {
	if toInt16(2) != math.MaxInt16 || toInt16(-2) != -math.MaxInt16 || toInt16(0) != 0 {
		t.Error("samples outside [-1, 1] should clip")
	}
}

func TestPlayerConfig(t *testing.T) {
	tests := []struct {
		name      string
		config    PlayerConfig
		expectErr bool
	}{
		{name: "default", config: DefaultPlayerConfig()},
		{name: "48kHz stereo", config: PlayerConfig{SampleRate: 48000, Channels: 2, BitDepth: 16, BufferSize: 8192}},
		{name: "invalid sample rate", config: PlayerConfig{SampleRate: 22050, Channels: 1, BitDepth: 16, BufferSize: 4096}, expectErr: true},
		{name: "invalid channels", config: PlayerConfig{SampleRate: 44100, Channels: 3, BitDepth: 16, BufferSize: 4096}, expectErr: true},
		{name: "invalid bit depth", config: PlayerConfig{SampleRate: 44100, Channels: 1, BitDepth: 24, BufferSize: 4096}, expectErr: true},
		{name: "invalid buffer size", config: PlayerConfig{SampleRate: 44100, Channels: 1, BitDepth: 16}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(tt.config)
			if (err != nil) != tt.expectErr {
				t.Errorf("validateConfig() error = %v, expectErr %v", err, tt.expectErr)
			}
		})
	}
}
