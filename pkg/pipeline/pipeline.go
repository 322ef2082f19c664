// Package pipeline generates benchmark datasets.
//
// This package implements the complete sample → record → render loop that
// is shared by the CLI and the preview API. By centralizing this logic, both
// entry points derive identical samples from identical options.
//
// # Architecture
//
// Each sample runs through three stages:
//
//  1. Sample: draw a layout with [layout.Sampler]
//  2. Record: build the question record and the draw scene
//  3. Render: hand the scene to a [sink.Sink]
//
// A sample is produced start to finish by one goroutine. With Workers > 1
// samples run on a bounded worker pool, and results are stored by index so
// the output order never depends on scheduling.
//
// # Seeding
//
// Unless Unseeded is set, sample i draws from a PCG generator seeded with
// Seed+i, so any single sample can be regenerated on its own (see
// [Runner.Sample]). The Seeding policy decides what that generator drives:
// [SeedingFull] routes every draw through it, [SeedingGeometry] seeds only
// coordinate draws and takes discrete choices from an unseeded source.
//
// # Usage
//
//	out, _ := sink.NewDir("dataset", render.PNG)
//	runner := pipeline.NewRunner(out, logger)
//	result, err := runner.Generate(ctx, pipeline.Options{
//	    Mode:  relation.Directional,
//	    Count: 300,
//	})
//	err = io.ExportRecords(result.Records, "metaList.json")
//
// [layout.Sampler]: github.com/matzehuels/spatialbench/pkg/layout.Sampler
// [sink.Sink]: github.com/matzehuels/spatialbench/pkg/sink.Sink
package pipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/spatialbench/pkg/errors"
	"github.com/matzehuels/spatialbench/pkg/layout"
	"github.com/matzehuels/spatialbench/pkg/relation"
	"github.com/matzehuels/spatialbench/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultCount is the number of samples in a standard dataset.
	DefaultCount = 300

	// DefaultSeed is the base seed. Sample i uses DefaultSeed+i.
	DefaultSeed = uint64(42)

	// DefaultWorkers runs samples sequentially.
	DefaultWorkers = 1

	// DefaultFormat is the default image format.
	DefaultFormat = render.PNG
)

// Seeding selects which draws a seeded generator drives.
type Seeding string

const (
	// SeedingFull makes every draw reproducible.
	SeedingFull Seeding = "full"
	// SeedingGeometry reproduces coordinates only; point count, attributes,
	// relation and target vary between runs.
	SeedingGeometry Seeding = "geometry"
)

// ValidSeedings is the set of supported seeding policies.
var ValidSeedings = map[Seeding]bool{
	SeedingFull:     true,
	SeedingGeometry: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a generation run.
// Zero values fall back to the defaults above. Seed, Margin and MinSep are
// pointers because zero is a meaningful value for each; nil selects the
// default.
type Options struct {
	Mode  relation.Mode `json:"mode" toml:"mode" yaml:"mode"`
	Count int           `json:"count,omitempty" toml:"count" yaml:"count"`

	// Seeding options
	Seed     *uint64 `json:"seed,omitempty" toml:"seed" yaml:"seed"`
	Unseeded bool    `json:"unseeded,omitempty" toml:"unseeded" yaml:"unseeded"`
	Seeding  Seeding `json:"seeding,omitempty" toml:"seeding" yaml:"seeding"`

	// Layout options
	Margin    *float64 `json:"margin,omitempty" toml:"margin" yaml:"margin"`
	MinSep    *float64 `json:"min_sep,omitempty" toml:"min_sep" yaml:"min_sep"`
	MinPoints int      `json:"min_points,omitempty" toml:"min_points" yaml:"min_points"`
	MaxPoints int      `json:"max_points,omitempty" toml:"max_points" yaml:"max_points"`

	// Output options
	Format  render.Format `json:"format,omitempty" toml:"format" yaml:"format"`
	Workers int           `json:"workers,omitempty" toml:"workers" yaml:"workers"`

	// Runtime options (not serialized)
	Logger     *log.Logger           `json:"-" toml:"-" yaml:"-"`
	OnProgress func(done, total int) `json:"-" toml:"-" yaml:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// DefaultOptions returns the options of a standard dataset for mode.
func DefaultOptions(mode relation.Mode) Options {
	o := Options{Mode: mode}
	o.SetDefaults()
	return o
}

// SetDefaults fills zero fields with defaults.
func (o *Options) SetDefaults() {
	if o.Count == 0 {
		o.Count = DefaultCount
	}
	if o.Seed == nil {
		o.Seed = ptr(DefaultSeed)
	}
	if o.Seeding == "" {
		o.Seeding = SeedingFull
	}
	if o.Margin == nil {
		o.Margin = ptr(layout.DefaultMargin)
	}
	if o.MinSep == nil {
		o.MinSep = ptr(layout.DefaultMinSep)
	}
	if o.MinPoints == 0 {
		o.MinPoints = layout.DefaultMinPoints
	}
	if o.MaxPoints == 0 {
		o.MaxPoints = layout.DefaultMaxPoints
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateAndSetDefaults applies defaults and checks every field.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()

	if o.Mode != relation.Quadrant && o.Mode != relation.Directional {
		return errors.New(errors.ErrCodeInvalidMode, "unknown mode %d", int(o.Mode))
	}
	if o.Count < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "count must be positive, got %d", o.Count)
	}
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be positive, got %d", o.Workers)
	}
	if !ValidSeedings[o.Seeding] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid seeding: %q (must be one of: full, geometry)", o.Seeding)
	}
	if _, err := render.ParseFormat(string(o.Format)); err != nil {
		return err
	}
	if err := errors.ValidateUnitInterval("margin", *o.Margin, 0.5); err != nil {
		return err
	}
	if err := errors.ValidateUnitInterval("min_sep", *o.MinSep, 0.5); err != nil {
		return err
	}
	if err := o.LayoutConfig().Validate(); err != nil {
		return err
	}

	o.validated = true
	return nil
}

// LayoutConfig returns the sampler configuration for these options.
// Nil Margin and MinSep keep the sampler defaults.
func (o *Options) LayoutConfig() layout.Config {
	cfg := layout.DefaultConfig()
	if o.Margin != nil {
		cfg.Margin = *o.Margin
	}
	if o.MinSep != nil {
		cfg.MinSep = *o.MinSep
	}
	cfg.MinPoints = o.MinPoints
	cfg.MaxPoints = o.MaxPoints
	return cfg
}

// BaseSeed returns the seed of sample 0, or DefaultSeed when none is set.
func (o *Options) BaseSeed() uint64 {
	if o.Seed == nil {
		return DefaultSeed
	}
	return *o.Seed
}

func ptr[T any](v T) *T { return &v }

// =============================================================================
// Dataset Naming
// =============================================================================

// nameTimeFormat renders timestamps as yymmddHHMM.
const nameTimeFormat = "0601021504"

// Stamp formats t as yymmddHHMM, the prefix of every generated file name.
func Stamp(t time.Time) string { return t.Format(nameTimeFormat) }

// DatasetDir returns the default image directory name for mode, e.g.
// "2507131536_ABSdataset".
func DatasetDir(mode relation.Mode, now time.Time) string {
	return fmt.Sprintf("%s_%sdataset", Stamp(now), mode.Tag())
}

// MetadataFile returns the default record file name for mode, e.g.
// "2507131536_RELmetaList.json".
func MetadataFile(mode relation.Mode, now time.Time) string {
	return fmt.Sprintf("%s_%smetaList.json", Stamp(now), mode.Tag())
}

// DefaultPaths joins the default dataset and metadata names onto base.
func DefaultPaths(base string, mode relation.Mode, now time.Time) (dataDir, metaPath string) {
	return filepath.Join(base, DatasetDir(mode, now)), filepath.Join(base, MetadataFile(mode, now))
}
