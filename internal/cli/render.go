package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spatialbench/pkg/bench"
	"github.com/matzehuels/spatialbench/pkg/errors"
	"github.com/matzehuels/spatialbench/pkg/pipeline"
	"github.com/matzehuels/spatialbench/pkg/record"
	"github.com/matzehuels/spatialbench/pkg/relation"
	"github.com/matzehuels/spatialbench/pkg/render"
	"github.com/matzehuels/spatialbench/pkg/sink"
)

type renderFlags struct {
	opts     pipeline.Options
	mode     string
	index    int
	output   string
	size     int
	noLabels bool
	setting  string
}

// renderCommand creates the render command, which previews one sample.
func (c *CLI) renderCommand() *cobra.Command {
	var f renderFlags

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a single sample and print its question",
		Long: `Render regenerates one sample of a seeded dataset, writes its image and prints
the question and answer. The image format follows the output extension.`,
		Example: `  spatialbench render -m rel -i 17 -o sample.svg
  spatialbench render -m abs -i 0 --setting abs_imgVp_nP`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(&f)
		},
	}

	def := pipeline.DefaultOptions(relation.Quadrant)
	fl := cmd.Flags()
	fl.StringVarP(&f.mode, "mode", "m", "quadrant", "dataset mode: quadrant (abs) or directional (rel)")
	fl.IntVarP(&f.index, "index", "i", 0, "sample index")
	fl.StringVarP(&f.output, "output", "o", "", "image path (default <index>.png)")
	bindSamplingFlags(cmd, &f.opts)
	fl.StringVar((*string)(&f.opts.Seeding), "seeding", string(def.Seeding), "seeding policy: full or geometry")
	fl.IntVar(&f.opts.MinPoints, "min-points", def.MinPoints, "minimum markers per map")
	fl.IntVar(&f.opts.MaxPoints, "max-points", def.MaxPoints, "maximum markers per map")
	fl.IntVar(&f.size, "size", render.DefaultSize, "image width and height in pixels")
	fl.BoolVar(&f.noLabels, "no-labels", false, "omit marker labels")
	fl.StringVarP(&f.setting, "setting", "s", "", "print the prompt of this setting")
	completeWith(cmd, "mode", "quadrant", "directional", "abs", "rel")
	completeWith(cmd, "setting", settingNames()...)
	completeWith(cmd, "seeding", "full", "geometry")

	return cmd
}

func (c *CLI) runRender(f *renderFlags) error {
	mode, err := relation.ParseMode(f.mode)
	if err != nil {
		return err
	}
	if f.index < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "index must not be negative, got %d", f.index)
	}

	output := f.output
	if output == "" {
		output = record.ImageName(f.index, string(render.PNG))
	}
	format, err := render.ParseFormat(strings.TrimPrefix(filepath.Ext(output), "."))
	if err != nil {
		return err
	}

	setting := bench.Setting{Mode: mode, Variant: record.Symbolic}
	if f.setting != "" {
		if setting, err = bench.ParseSetting(f.setting); err != nil {
			return err
		}
		if setting.Mode != mode {
			return errors.New(errors.ErrCodeInvalidInput, "setting %s does not apply to %s samples", setting, mode)
		}
	}

	opts := f.opts
	opts.Mode = mode
	opts.Count = f.index + 1
	opts.Logger = c.Logger
	it, err := pipeline.NewRunner(sink.Discard{F: format}, c.Logger).Sample(opts, f.index)
	if err != nil {
		return err
	}

	ropts := []render.Option{render.WithSize(f.size)}
	if f.noLabels {
		ropts = append(ropts, render.WithoutLabels())
	}
	data, err := render.Render(it.Scene, format, ropts...)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}

	c.ui.success("Rendered %s sample %d", mode, f.index)
	c.ui.file(output)
	c.ui.blank()
	c.ui.line(setting.Prompt(it.Record))
	c.ui.blank()
	c.ui.field("Answer", StyleHighlight.Render(it.Record.Ans))
	return nil
}
