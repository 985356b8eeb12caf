package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/advancedtts/advtts/internal/registry"
	"github.com/advancedtts/advtts/internal/tts"
	"github.com/advancedtts/advtts/internal/ttypes"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"
)

var (
	listJSON      bool
	onlyAvailable bool

	enginesCmd = &cobra.Command{
		Use:   "engines",
		Short: "List synthesis engines and whether they are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			status := cat.prober.StatusAll()

			type engineStatus struct {
				ttypes.EngineDescriptor
				tts.Availability
			}
			var rows []engineStatus
			for i, e := range cat.registry.List() {
				if onlyAvailable && !status[i].Available {
					continue
				}
				rows = append(rows, engineStatus{EngineDescriptor: e, Availability: status[i]})
			}
			if listJSON {
				return writeJSON(cmd.OutOrStdout(), rows)
			}

			pathWidth := max(terminalWidth()-70, 16)
			t := newTable("", "ENGINE", "NAME", "FORMAT", "LANGS", "CAPABILITIES", "PATH")
			for _, r := range rows {
				e := r.EngineDescriptor
				path := r.Path
				if path == "" {
					path = faintStyle.Render("not installed")
				}
				t.Row(
					check(r.Available),
					e.ID,
					e.Name,
					string(e.NativeFormat),
					strconv.Itoa(len(e.Languages)),
					capabilities(e),
					truncate.StringWithTail(path, uint(pathWidth), "…"), //nolint:gosec
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t)
			return nil
		},
	}

	checkCmd = &cobra.Command{
		Use:   "check [ENGINE...]",
		Short: "Check engines and ffmpeg, with install instructions for anything missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = cat.registry.IDs()
			}

			var md strings.Builder
			missing := 0
			for _, id := range args {
				if _, err := cat.registry.Get(id); err != nil {
					return fmt.Errorf("%w: %s", err, id)
				}
				a := cat.prober.Status(id)
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", check(a.Available), id, faintStyle.Render(a.Path))
				if !a.Available {
					missing++
					fmt.Fprintf(&md, "## %s\n\n%s\n\n", id, a.Guidance)
				}
			}

			ffmpeg := cat.pipeline.Available()
			fmt.Fprintf(cmd.OutOrStdout(), "%s ffmpeg\n", check(ffmpeg))
			if !ffmpeg {
				fmt.Fprintf(&md, "## ffmpeg\n\n%s\n", tts.FFmpegGuidance())
			}

			if md.Len() == 0 {
				return nil
			}
			out, err := renderMarkdown(md.String())
			if err != nil {
				return fmt.Errorf("unable to render markdown: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			if missing == len(args) {
				return fmt.Errorf("%w: none of the requested engines are installed", tts.ErrEngineUnavailable)
			}
			return nil
		},
	}

	languagesCmd = &cobra.Command{
		Use:   "languages [ENGINE]",
		Short: "List languages and the engines that speak them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				e, err := cat.registry.Get(args[0])
				if err != nil {
					return fmt.Errorf("%w: %w", tts.ErrValidation, err)
				}
				return printEngineLanguages(cmd.OutOrStdout(), e)
			}

			langs := cat.registry.Languages()
			if listJSON {
				return writeJSON(cmd.OutOrStdout(), langs)
			}

			width := max((terminalWidth()-30)/2, 16)
			t := newTable("CODE", "LANGUAGE", "VARIANTS", "ENGINES")
			for _, l := range langs {
				t.Row(
					l.Code,
					l.Name,
					truncate.StringWithTail(strings.Join(l.Variants, " "), uint(width), "…"),         //nolint:gosec
					truncate.StringWithTail(strings.Join(l.SupportedEngines, " "), uint(width), "…"), //nolint:gosec
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t)
			return nil
		},
	}

	modelsCmd = &cobra.Command{
		Use:   "models ENGINE [LANGUAGE]",
		Short: "List the models an engine offers",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			lang := ""
			if len(args) == 2 {
				lang = args[1]
			}
			listing, err := cat.registry.Models(args[0], lang)
			if err != nil {
				return fmt.Errorf("%w: %w", tts.ErrValidation, err)
			}
			if listJSON {
				return writeJSON(cmd.OutOrStdout(), listing)
			}
			return printModels(cmd.OutOrStdout(), listing.Engine, listing.ModelsSupported, listing.Models)
		},
	}
)

func printModels(w io.Writer, engine string, supported bool, models []registry.ModelSummary) error {
	if !supported {
		fmt.Fprintf(w, "%s does not use models\n", engine)
		return nil
	}
	if len(models) == 0 {
		fmt.Fprintln(w, "no models for that language")
		return nil
	}

	idWidth := 0
	for _, m := range models {
		idWidth = max(idWidth, runewidth.StringWidth(m.ID))
	}
	for _, m := range models {
		line := runewidth.FillRight(m.ID, idWidth+2) + m.LanguageName + " (" + m.Language + ")"
		if m.Quality != "" {
			line += faintStyle.Render(" " + m.Quality)
		}
		if len(m.Speakers) > 0 {
			line += faintStyle.Render(fmt.Sprintf(" %d speakers, default %s", len(m.Speakers), m.DefaultSpeaker))
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func printEngineLanguages(w io.Writer, e ttypes.EngineDescriptor) error {
	if listJSON {
		return writeJSON(w, e.Languages)
	}

	t := newTable("CODE", "LANGUAGE", "VARIANTS", "MODELS")
	for _, l := range e.Languages {
		t.Row(l.Code, l.Name, strings.Join(l.Variants, " "), strconv.Itoa(len(l.Models)))
	}
	fmt.Fprintln(w, t)
	return nil
}

func capabilities(e ttypes.EngineDescriptor) string {
	var caps []string
	for _, c := range []struct {
		name string
		on   bool
	}{
		{"speed", e.Capabilities.Speed},
		{"pitch", e.Capabilities.Pitch},
		{"volume", e.Capabilities.Volume},
		{"models", e.Capabilities.Models},
		{"ssml", e.Capabilities.SSML},
	} {
		if c.on {
			caps = append(caps, c.name)
		}
	}
	if e.Online {
		caps = append(caps, "online")
	}
	return strings.Join(caps, " ")
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	for _, c := range []*cobra.Command{enginesCmd, languagesCmd, modelsCmd} {
		c.Flags().BoolVar(&listJSON, "json", false, "print as JSON")
	}
	enginesCmd.Flags().BoolVarP(&onlyAvailable, "available", "a", false, "only list installed engines")
}
