package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/advancedtts/advtts/internal/audio"
	"github.com/advancedtts/advtts/internal/registry"
	"github.com/advancedtts/advtts/internal/tts"
	"github.com/advancedtts/advtts/internal/ttypes"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	synthModel     string
	synthSpeaker   string
	synthSpeed     int
	synthPitch     int
	synthVolume    int
	synthFile      string
	synthPreview   bool
	synthMarkdown  bool
	synthClipboard bool
	synthPlay      bool
	synthJSON      bool

	synthCmd = &cobra.Command{
		Use:   "synth [TEXT|-]",
		Short: "Synthesize text into an audio file",
		Long: paragraph(fmt.Sprintf("\n%s text into an audio file. Text is read from the arguments, a file, the clipboard or a pipe.",
			keyword("Synthesize"))),
		Example: paragraph("advtts synth \"Hello there\"\nadvtts synth -e piper -l en-gb -f ogg --file notes.md\necho hola | advtts synth -l es --play"),
		Aliases: []string{"say"},
		RunE:    runSynth,
	}
)

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// readText collects the text to synthesize and reports whether it is Markdown
func readText(args []string) (string, bool, error) {
	switch {
	case synthFile != "":
		b, err := os.ReadFile(synthFile)
		if err != nil {
			return "", false, fmt.Errorf("unable to read file: %w", err)
		}
		ext := strings.ToLower(filepath.Ext(synthFile))
		return string(b), ext == ".md" || ext == ".markdown", nil

	case synthClipboard:
		s, err := clipboard.ReadAll()
		if err != nil {
			return "", false, fmt.Errorf("unable to read clipboard: %w", err)
		}
		return s, false, nil

	case len(args) == 1 && args[0] == "-":
		return readStdin()

	case len(args) > 0:
		return strings.Join(args, " "), false, nil
	}

	if yes, err := stdinIsPipe(); err != nil {
		return "", false, err
	} else if yes {
		return readStdin()
	}
	return "", false, errors.New("no text given: pass it as an argument, with --file, --clipboard or on stdin")
}

func readStdin() (string, bool, error) {
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", false, fmt.Errorf("unable to read from reader: %w", err)
	}
	return string(b), false, nil
}

func runSynth(cmd *cobra.Command, args []string) error {
	text, isMarkdown, err := readText(args)
	if err != nil {
		return err
	}
	if synthMarkdown || isMarkdown {
		text = tts.PlainText(text)
	}

	req := cfg.Request(text)
	req.Model = synthModel
	req.Speaker = synthSpeaker
	if cmd.Flags().Changed("speed") {
		req.Speed = synthSpeed
	}
	if cmd.Flags().Changed("pitch") {
		req.Pitch = synthPitch
	}
	if cmd.Flags().Changed("volume") {
		req.Volume = synthVolume
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Synthesis.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Synthesis.Timeout)
		defer cancel()
	}

	synthesize := a.synth.Synthesize
	if synthPreview {
		synthesize = a.synth.Preview
	}
	res, err := synthesize(ctx, req)
	if err != nil {
		return err
	}
	if st, ok := a.gate.Stats(res.Engine); ok {
		log.Debug("admission", "engine", res.Engine, "admitted", st.Admitted, "wait", st.TotalWait)
	}

	if err := printResult(cmd.OutOrStdout(), res); err != nil {
		return err
	}

	if synthPlay {
		return play(ctx, res.Path, req.Volume)
	}
	return nil
}

func printResult(w io.Writer, res *ttypes.SynthesisResult) error {
	if synthJSON {
		return writeJSON(w, res)
	}

	size := ""
	if info, err := os.Stat(res.Path); err == nil {
		size = humanize.Bytes(uint64(info.Size())) //nolint:gosec
	}
	fmt.Fprintf(w, "%s %s\n", check(true), res.Path)
	fmt.Fprintln(w, faintStyle.Render(fmt.Sprintf("  %s · %s · %.1fs · %s · %s",
		res.Engine, res.Language, res.Duration, res.Format, size)))
	if res.Fallback != nil {
		fmt.Fprintln(w, faintStyle.Render(fmt.Sprintf("  %s failed (%s), used %s instead",
			res.Fallback.OriginalEngine, res.Fallback.Reason, res.Fallback.ActualEngine)))
	}
	return nil
}

func play(ctx context.Context, path string, volume int) error {
	p, err := audio.NewPlayer(audio.DefaultPlayerConfig())
	if err != nil {
		return fmt.Errorf("unable to play audio: %w", err)
	}
	defer func() { _ = p.Close() }()

	// playback is not bounded by the synthesis timeout
	return p.PlayFile(context.WithoutCancel(ctx), path, float64(volume)/100)
}

func init() {
	f := synthCmd.Flags()
	f.StringP("engine", "e", "", "synthesis engine (see advtts engines)")
	f.StringP("language", "l", "", "language code or variant, e.g. en or en-gb")
	f.StringP("format", "f", "", "output format: wav, mp3, ogg or m4a")
	f.Duration("timeout", 0, "give up after this long (0 disables)")
	f.StringVarP(&synthModel, "model", "m", "", "model id for engines with model support")
	f.StringVar(&synthSpeaker, "speaker", "", "speaker id for multi-speaker models")
	f.IntVarP(&synthSpeed, "speed", "s", ttypes.DefaultSpeed, fmt.Sprintf("words per minute (%d-%d)", ttypes.MinSpeed, ttypes.MaxSpeed))
	f.IntVar(&synthPitch, "pitch", ttypes.DefaultPitch, fmt.Sprintf("pitch (%d-%d)", ttypes.MinPitch, ttypes.MaxPitch))
	f.IntVar(&synthVolume, "volume", ttypes.DefaultVolume, fmt.Sprintf("volume (%d-%d)", ttypes.MinVolume, ttypes.MaxVolume))
	f.StringVar(&synthFile, "file", "", "read text from a file; .md files are stripped of Markdown")
	f.BoolVar(&synthPreview, "preview", false, "synthesize only the beginning of the text, as wav")
	f.BoolVar(&synthMarkdown, "markdown", false, "treat the text as Markdown")
	f.BoolVarP(&synthClipboard, "clipboard", "c", false, "read text from the clipboard")
	f.BoolVarP(&synthPlay, "play", "p", false, "play the result")
	f.BoolVar(&synthJSON, "json", false, "print the result as JSON")

	_ = viper.BindPFlag("synthesis.engine", f.Lookup("engine"))
	_ = viper.BindPFlag("synthesis.language", f.Lookup("language"))
	_ = viper.BindPFlag("synthesis.format", f.Lookup("format"))
	_ = viper.BindPFlag("synthesis.timeout", f.Lookup("timeout"))

	_ = synthCmd.RegisterFlagCompletionFunc("engine", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		reg, err := registry.Default()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return reg.IDs(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = synthCmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		out := make([]string, len(ttypes.Formats))
		for i, f := range ttypes.Formats {
			out[i] = string(f)
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})
}
