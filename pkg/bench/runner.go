package bench

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/spatialbench/pkg/buildinfo"
	"github.com/matzehuels/spatialbench/pkg/cache"
	"github.com/matzehuels/spatialbench/pkg/errors"
	"github.com/matzehuels/spatialbench/pkg/httputil"
	"github.com/matzehuels/spatialbench/pkg/observability"
	"github.com/matzehuels/spatialbench/pkg/record"
	"github.com/matzehuels/spatialbench/pkg/render"
)

// Runner defaults.
const (
	DefaultWorkers    = 1
	DefaultAttempts   = 3
	DefaultRetryDelay = time.Second
)

// Options configures a benchmark run.
type Options struct {
	Setting Setting

	// Images resolves record image names, usually os.DirFS(datasetDir).
	Images fs.FS

	// Limit stops after the first Limit records when positive.
	Limit   int
	Workers int

	// Answer caching. Refresh skips lookups but still stores answers.
	Cache   cache.Cache
	Keyer   cache.Keyer
	Refresh bool

	// Model call retries for transient failures.
	Attempts   int
	RetryDelay time.Duration

	Logger     *log.Logger
	OnProgress func(done, total int)

	validated bool
}

// SetDefaults fills zero fields with defaults.
func (o *Options) SetDefaults() {
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.Attempts == 0 {
		o.Attempts = DefaultAttempts
	}
	if o.RetryDelay == 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Keyer == nil {
		o.Keyer = cache.NewDefaultKeyer()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateAndSetDefaults applies defaults and checks every field.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()

	if o.Images == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "no image source for benchmark run")
	}
	if o.Setting.Variant != record.Symbolic && o.Setting.Variant != record.Visual {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown prompt variant %q", o.Setting.Variant)
	}
	if o.Workers < 0 || o.Attempts < 0 || o.Limit < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers, attempts and limit must not be negative")
	}

	o.validated = true
	return nil
}

// Runner evaluates one model.
type Runner struct {
	Model  Model
	Logger *log.Logger
}

// NewRunner creates a runner for model.
func NewRunner(model Model, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Model: model, Logger: logger}
}

// Run asks the model every question in records and scores the replies.
//
// Model failures that survive retries are logged and scored as an empty
// answer. Missing images and context cancellation abort the run.
func (r *Runner) Run(ctx context.Context, records []record.Record, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if opts.Limit > 0 && opts.Limit < len(records) {
		records = records[:opts.Limit]
	}
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	res := &Result{
		ID:        uuid.NewString(),
		Name:      ResultName(opts.Setting, start),
		Setting:   opts.Setting.String(),
		Provider:  r.Model.Provider(),
		Model:     r.Model.Name(),
		StartedAt: start,
		Build:     buildinfo.Get(),
		Items:     make([]ItemResult, len(records)),
	}
	logger := opts.Logger.With("run", res.ID[:8], "setting", res.Setting)
	logger.Info("starting benchmark", "model", res.Model, "records", len(records))

	var done atomic.Int64
	run := func(ctx context.Context, i int) error {
		it, err := r.evaluate(ctx, logger, opts, i, records[i])
		if err != nil {
			return err
		}
		res.Items[i] = it
		if opts.OnProgress != nil {
			opts.OnProgress(int(done.Add(1)), len(records))
		}
		return nil
	}

	if opts.Workers <= 1 {
		for i := range records {
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
		for i := range records {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error { return run(gctx, i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	res.Duration = time.Since(start)
	res.tally()
	logger.Info("benchmark complete",
		"accuracy", fmt.Sprintf("%.4f", res.Accuracy),
		"correct", res.Correct,
		"total", res.Total,
		"errors", res.Errors,
		"duration", res.Duration.Round(time.Millisecond))
	return res, nil
}

// evaluate loads one image, asks the model and scores the reply.
func (r *Runner) evaluate(ctx context.Context, logger *log.Logger, opts Options, i int, rec record.Record) (ItemResult, error) {
	data, err := fs.ReadFile(opts.Images, rec.ImgName)
	if err != nil {
		return ItemResult{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read image %s", rec.ImgName)
	}
	img := Image{Data: data, MIME: mimeFor(rec.ImgName)}
	prompt := opts.Setting.Prompt(rec)

	answer, cached, err := r.ask(ctx, opts, prompt, img)
	it := ItemResult{Index: i, ImgName: rec.ImgName, GT: rec.Ans, Cached: cached}
	if err != nil {
		if ctx.Err() != nil {
			return ItemResult{}, ctx.Err()
		}
		logger.Warn("model call failed", "image", rec.ImgName, "err", err)
		it.Error = err.Error()
		answer = ""
	}
	it.Answer = answer
	it.Correct = Correct(answer, rec.Ans)
	logger.Debug("answer", "image", rec.ImgName, "gt", rec.Ans, "correct", it.Correct, "cached", cached)
	return it, nil
}

// ask returns the model's answer, consulting the cache first.
func (r *Runner) ask(ctx context.Context, opts Options, prompt string, img Image) (string, bool, error) {
	keyOpts := cache.AnswerKeyOpts{
		Provider:  r.Model.Provider(),
		Model:     r.Model.Name(),
		ImageHash: cache.Hash(img.Data),
	}
	if mt, ok := r.Model.(interface{ MaxTokens() int }); ok {
		keyOpts.MaxTokens = mt.MaxTokens()
	}
	key := opts.Keyer.AnswerKey(prompt, keyOpts)
	cacheHooks := observability.Cache()

	if !opts.Refresh {
		data, err := cache.Lookup(ctx, opts.Cache, key)
		if err == nil {
			cacheHooks.OnCacheHit(ctx, "answer")
			return string(data), true, nil
		}
		if !stderrors.Is(err, cache.ErrCacheMiss) {
			opts.Logger.Debug("cache lookup failed", "err", err)
		}
		cacheHooks.OnCacheMiss(ctx, "answer")
	}

	hooks := observability.Model()
	provider, name := r.Model.Provider(), r.Model.Name()
	var answer string
	start := time.Now()
	err := httputil.Retry(ctx, opts.Attempts, opts.RetryDelay, func() error {
		hooks.OnModelRequest(ctx, provider, name)
		var err error
		answer, err = r.Model.Answer(ctx, prompt, img)
		return err
	})
	if err != nil {
		hooks.OnModelError(ctx, provider, name, err)
		return "", false, err
	}
	hooks.OnModelResponse(ctx, provider, name, time.Since(start))

	// Blank replies are scored but not cached, so the next run asks again.
	if strings.TrimSpace(answer) == "" {
		return answer, false, nil
	}
	if err := opts.Cache.Set(ctx, key, []byte(answer), cache.TTLAnswer); err != nil {
		opts.Logger.Debug("cache store failed", "err", err)
	} else {
		cacheHooks.OnCacheSet(ctx, "answer", len(answer))
	}
	return answer, false, nil
}

func mimeFor(name string) string {
	if f, err := render.ParseFormat(path.Ext(name)); err == nil {
		return f.ContentType()
	}
	return "application/octet-stream"
}
