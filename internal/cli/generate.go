package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spatialbench/pkg/errors"
	pkgio "github.com/matzehuels/spatialbench/pkg/io"
	"github.com/matzehuels/spatialbench/pkg/pipeline"
	"github.com/matzehuels/spatialbench/pkg/relation"
	"github.com/matzehuels/spatialbench/pkg/render"
	"github.com/matzehuels/spatialbench/pkg/sink"
)

// generateFlags holds the flags of the generate command.
type generateFlags struct {
	opts      pipeline.Options
	mode      string
	format    string
	size      int
	outDir    string
	images    string
	meta      string
	withTruth bool
	quiet     bool
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate benchmark datasets",
		Long: `Generate renders a dataset of map images and writes the question records.

Quadrant (abs) datasets ask where a marker lies relative to the map center;
directional (rel) datasets ask where one marker lies relative to another.
Without --images and --meta, outputs are named after the current time:

  <yymmddHHMM>_<ABS|REL>dataset/000.png ...
  <yymmddHHMM>_<ABS|REL>metaList.json`,
		Example: `  # Both standard datasets in the current directory
  spatialbench generate

  # 50 directional SVG samples into explicit paths
  spatialbench generate -m rel -n 50 -f svg --images out/rel --meta out/rel.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd.Context(), &f)
		},
	}

	def := pipeline.DefaultOptions(relation.Quadrant)
	fl := cmd.Flags()
	fl.StringVarP(&f.mode, "mode", "m", "all", "dataset mode: quadrant (abs), directional (rel) or all")
	fl.IntVarP(&f.opts.Count, "count", "n", def.Count, "samples per dataset")
	bindSamplingFlags(cmd, &f.opts)
	fl.BoolVar(&f.opts.Unseeded, "unseeded", false, "draw from an unseeded generator")
	fl.StringVar((*string)(&f.opts.Seeding), "seeding", string(def.Seeding), "seeding policy: full or geometry")
	fl.IntVar(&f.opts.MinPoints, "min-points", def.MinPoints, "minimum markers per map")
	fl.IntVar(&f.opts.MaxPoints, "max-points", def.MaxPoints, "maximum markers per map")
	fl.IntVarP(&f.opts.Workers, "workers", "w", def.Workers, "samples generated in parallel")
	fl.StringVarP(&f.format, "format", "f", string(def.Format), "image format: png or svg")
	fl.IntVar(&f.size, "size", render.DefaultSize, "image width and height in pixels")
	fl.StringVarP(&f.outDir, "out-dir", "o", ".", "directory for default-named outputs")
	fl.StringVar(&f.images, "images", "", "image directory (single mode only)")
	fl.StringVar(&f.meta, "meta", "", "record file (single mode only)")
	fl.BoolVar(&f.withTruth, "with-truth", false, "also write per-marker ground truth next to the record file")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "hide the progress spinner")
	completeWith(cmd, "mode", "all", "quadrant", "directional", "abs", "rel")
	completeWith(cmd, "format", "png", "svg")
	completeWith(cmd, "seeding", "full", "geometry")

	return cmd
}

// bindSamplingFlags binds --seed, --margin and --min-sep to opts. The flags
// write through the option pointers, so an explicit zero is kept.
func bindSamplingFlags(cmd *cobra.Command, opts *pipeline.Options) {
	def := pipeline.DefaultOptions(relation.Quadrant)
	opts.Seed, opts.Margin, opts.MinSep = new(uint64), new(float64), new(float64)
	fl := cmd.Flags()
	fl.Uint64Var(opts.Seed, "seed", *def.Seed, "base seed; sample i is drawn from seed+i")
	fl.Float64Var(opts.Margin, "margin", *def.Margin, "canvas margin kept free of markers")
	fl.Float64Var(opts.MinSep, "min-sep", *def.MinSep, "minimum distance between markers")
}

func (c *CLI) runGenerate(ctx context.Context, f *generateFlags) error {
	modes, err := parseModes(f.mode)
	if err != nil {
		return err
	}
	format, err := render.ParseFormat(f.format)
	if err != nil {
		return err
	}
	if f.size <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "size must be positive, got %d", f.size)
	}
	if f.opts.Count <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "count must be positive, got %d", f.opts.Count)
	}
	if len(modes) > 1 && (f.images != "" || f.meta != "") {
		return errors.New(errors.ErrCodeInvalidInput, "--images and --meta need a single --mode")
	}

	now := time.Now()
	for _, mode := range modes {
		opts := f.opts
		opts.Mode = mode
		opts.Format = format
		opts.Logger = c.Logger

		dataDir, metaPath := pipeline.DefaultPaths(f.outDir, mode, now)
		if f.images != "" {
			dataDir = f.images
		}
		if f.meta != "" {
			metaPath = f.meta
		}
		if err := c.generateDataset(ctx, f, opts, dataDir, metaPath); err != nil {
			return fmt.Errorf("%s dataset: %w", mode, err)
		}
	}
	return nil
}

func (c *CLI) generateDataset(ctx context.Context, f *generateFlags, opts pipeline.Options, dataDir, metaPath string) error {
	out, err := sink.NewDir(dataDir, opts.Format, render.WithSize(f.size))
	if err != nil {
		return err
	}

	logDone := timed(c.Logger)
	var spinner *Spinner
	if !f.quiet {
		spinner = newSpinner(ctx, os.Stderr, fmt.Sprintf("Generating %s samples...", opts.Mode))
		opts.OnProgress = func(done, total int) {
			spinner.SetMessage(fmt.Sprintf("Generating %s samples %d/%d", opts.Mode, done, total))
		}
		spinner.Start()
	}
	res, err := pipeline.NewRunner(out, c.Logger).Generate(ctx, opts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	if err := pkgio.ExportRecords(res.Records, metaPath); err != nil {
		return err
	}
	logDone("generated", "mode", opts.Mode, "samples", res.Stats.Samples)

	c.ui.success("%s dataset", opts.Mode)
	c.ui.stats(
		fmt.Sprintf("%d samples", res.Stats.Samples),
		fmt.Sprintf("%d anchor attempts", res.Stats.AnchorAttempts),
		fmt.Sprintf("%d placement draws", res.Stats.PlacementDraws),
	)
	c.ui.file(out.Path())
	c.ui.file(metaPath)

	if f.withTruth {
		path := truthPath(metaPath)
		if err := pkgio.ExportTruth(res.Truth, path); err != nil {
			return err
		}
		c.ui.file(path)
	}
	return nil
}

// parseModes resolves the --mode flag. "all" selects every mode.
func parseModes(s string) ([]relation.Mode, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return relation.Modes, nil
	}
	mode, err := relation.ParseMode(s)
	if err != nil {
		return nil, err
	}
	return []relation.Mode{mode}, nil
}

// truthPath derives the ground-truth file name from the record file name,
// e.g. "x_RELmetaList.json" becomes "x_RELmetaList_truth.json".
func truthPath(metaPath string) string {
	return strings.TrimSuffix(metaPath, ".json") + "_truth.json"
}
