package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/spatialbench/pkg/layout"
	"github.com/matzehuels/spatialbench/pkg/observability"
	"github.com/matzehuels/spatialbench/pkg/record"
	"github.com/matzehuels/spatialbench/pkg/sink"
)

// Item is one generated sample.
type Item struct {
	Index  int
	Layout layout.Layout
	Record record.Record
	Scene  record.Scene
	// Ref is where the sink stored the image.
	Ref string
}

// Truth returns the ground truth of the item.
func (it Item) Truth() record.Truth {
	return record.NewTruth(it.Record.ImgName, it.Layout)
}

// Result contains the outputs of a generation run.
type Result struct {
	// Records are in index order.
	Records []record.Record
	// Truth holds the full layout behind each record, in the same order.
	Truth []record.Truth
	Stats Stats
}

// Stats contains generation statistics.
type Stats struct {
	Samples        int
	AnchorAttempts int
	PlacementDraws int
	Duration       time.Duration
}

// Runner generates datasets into a sink.
//
// The Runner is stateless except for the sink and logger. Multiple goroutines
// can safely use the same Runner with different options as long as the sink
// is safe for concurrent use.
type Runner struct {
	Sink   sink.Sink
	Logger *log.Logger
}

// NewRunner creates a runner.
// If s is nil, images are discarded.
func NewRunner(s sink.Sink, logger *log.Logger) *Runner {
	if s == nil {
		s = sink.Discard{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Sink: s, Logger: logger}
}

// Generate produces opts.Count samples and renders each into the sink.
func (r *Runner) Generate(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	opts.Format = r.Sink.Format()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	sampler, err := layout.New(opts.LayoutConfig())
	if err != nil {
		return nil, err
	}

	start := time.Now()
	items := make([]Item, opts.Count)
	var done atomic.Int64

	run := func(ctx context.Context, i int) error {
		it, err := r.produce(ctx, sampler, opts, i)
		if err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
		items[i] = it
		if opts.OnProgress != nil {
			opts.OnProgress(int(done.Add(1)), opts.Count)
		}
		return nil
	}

	if opts.Workers <= 1 {
		for i := range opts.Count {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := run(ctx, i); err != nil {
				return nil, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Workers)
		for i := range opts.Count {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return run(gctx, i)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	res := &Result{
		Records: make([]record.Record, len(items)),
		Truth:   make([]record.Truth, len(items)),
	}
	for i, it := range items {
		res.Records[i] = it.Record
		res.Truth[i] = it.Truth()
		res.Stats.AnchorAttempts += it.Layout.Stats.AnchorAttempts
		res.Stats.PlacementDraws += it.Layout.Stats.PlacementDraws
	}
	res.Stats.Samples = len(items)
	res.Stats.Duration = time.Since(start)

	opts.Logger.Info("generated dataset",
		"mode", opts.Mode,
		"samples", res.Stats.Samples,
		"workers", opts.Workers,
		"duration", res.Stats.Duration)

	return res, nil
}

// Sample regenerates the sample at index without rendering it. With seeding
// enabled the result equals item index of a Generate run with the same options.
func (r *Runner) Sample(opts Options, index int) (Item, error) {
	r.applyLogger(&opts)
	opts.Format = r.Sink.Format()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return Item{}, fmt.Errorf("invalid options: %w", err)
	}
	sampler, err := layout.New(opts.LayoutConfig())
	if err != nil {
		return Item{}, err
	}
	return sampleAt(sampler, opts, index)
}

// produce samples, builds and renders one item.
func (r *Runner) produce(ctx context.Context, sampler *layout.Sampler, opts Options, i int) (Item, error) {
	hooks := observability.Pipeline()
	mode := opts.Mode.String()
	hooks.OnSampleStart(ctx, mode, i)
	start := time.Now()

	it, err := sampleAt(sampler, opts, i)
	hooks.OnSampleComplete(ctx, mode, i, observability.SampleStats{
		Points:         len(it.Layout.Points),
		AnchorAttempts: it.Layout.Stats.AnchorAttempts,
		PlacementDraws: it.Layout.Stats.PlacementDraws,
	}, time.Since(start), err)
	if err != nil {
		return Item{}, err
	}

	renderStart := time.Now()
	ref, err := r.Sink.Put(ctx, it.Record.ImgName, it.Scene)
	hooks.OnRenderComplete(ctx, string(opts.Format), len(it.Scene.Items), time.Since(renderStart), err)
	if err != nil {
		return Item{}, fmt.Errorf("store %s: %w", it.Record.ImgName, err)
	}
	it.Ref = ref

	opts.Logger.Debug("sample",
		"index", i,
		"image", it.Record.ImgName,
		"points", len(it.Layout.Points),
		"relation", it.Layout.Relation,
		"target", it.Layout.Target)
	return it, nil
}

func sampleAt(sampler *layout.Sampler, opts Options, i int) (Item, error) {
	l, err := sampler.Sample(SourceFor(opts, i), opts.Mode)
	if err != nil {
		return Item{}, err
	}
	return Item{
		Index:  i,
		Layout: l,
		Record: record.Build(i, opts.Format.Ext(), l),
		Scene:  record.NewScene(l),
	}, nil
}

// SourceFor returns the randomness for sample i under opts.
func SourceFor(opts Options, i int) layout.Source {
	if opts.Unseeded {
		return layout.Unified(unseeded())
	}
	s := opts.BaseSeed() + uint64(i)
	seeded := rand.New(rand.NewPCG(s, s^0xdeadbeef))
	if opts.Seeding == SeedingGeometry {
		return layout.Source{Choice: unseeded(), Geometry: seeded}
	}
	return layout.Unified(seeded)
}

func unseeded() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
