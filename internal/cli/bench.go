package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matzehuels/spatialbench/pkg/bench"
	"github.com/matzehuels/spatialbench/pkg/cache"
	"github.com/matzehuels/spatialbench/pkg/errors"
	pkgio "github.com/matzehuels/spatialbench/pkg/io"
	"github.com/matzehuels/spatialbench/pkg/record"
	"github.com/matzehuels/spatialbench/pkg/relation"
)

// Environment variables read by the bench and results commands.
const (
	envOpenAIKey = "OPENAI_API_KEY"
	envGeminiKey = "GEMINI_API_KEY"
	envGoogleKey = "GOOGLE_API_KEY"
	envMongoURI  = "MONGO_URI"
	envRedisURL  = "REDIS_URL"
)

// benchFlags holds the flags of the bench command.
type benchFlags struct {
	settings  []string
	mode      string
	images    string
	provider  string
	model     string
	baseURL   string
	maxTokens int
	limit     int
	workers   int
	attempts  int
	noCache   bool
	refresh   bool
	scope     string
	redisURL  string
	envFile   string
	quiet     bool
	store     storeFlags
}

// storeFlags selects where results are kept.
type storeFlags struct {
	dir      string
	mongoURI string
	mongoDB  string
}

// dataset is one record file with its image directory.
type dataset struct {
	mode    relation.Mode
	meta    string
	images  string
	records []record.Record
}

// benchCommand creates the bench command.
func (c *CLI) benchCommand() *cobra.Command {
	var f benchFlags

	cmd := &cobra.Command{
		Use:   "bench <metaList.json>...",
		Short: "Evaluate a vision-language model on generated datasets",
		Long: `Bench asks a model every question of one or more datasets and scores the
answers. An answer is correct when it contains the ground-truth label.

The dataset mode and image directory are derived from the record file name
(<stamp>_RELmetaList.json pairs with <stamp>_RELdataset/). Without --setting,
every standard setting that matches a given dataset runs.

API keys are read from OPENAI_API_KEY or GEMINI_API_KEY, also via --env-file.`,
		Example: `  # Standard suite over both datasets
  spatialbench bench 2507131536_RELmetaList.json 2507131536_ABSmetaList.json

  # One setting with hints, Gemini, 4 parallel requests
  spatialbench bench 2507131536_RELmetaList.json -s rel_imgVp_aP --provider gemini -w 4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBench(cmd, args, &f)
		},
	}

	fl := cmd.Flags()
	fl.StringSliceVarP(&f.settings, "setting", "s", nil, "settings to run, e.g. rel_sybVp_nP (default: standard suite)")
	fl.StringVarP(&f.mode, "mode", "m", "", "dataset mode when it cannot be derived from the file name")
	fl.StringVar(&f.images, "images", "", "image directory (single dataset only)")
	fl.StringVarP(&f.provider, "provider", "p", "openai", "model provider: openai or gemini")
	fl.StringVar(&f.model, "model", "", "model name (default depends on provider)")
	fl.StringVar(&f.baseURL, "base-url", "", "OpenAI-compatible API base URL")
	fl.IntVar(&f.maxTokens, "max-tokens", bench.DefaultMaxTokens, "answer token limit")
	fl.IntVarP(&f.limit, "limit", "n", 0, "evaluate only the first n records of each dataset")
	fl.IntVarP(&f.workers, "workers", "w", bench.DefaultWorkers, "parallel model requests")
	fl.IntVar(&f.attempts, "attempts", bench.DefaultAttempts, "attempts per question on transient errors")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable the answer cache")
	fl.BoolVar(&f.refresh, "refresh", false, "ask the model again even when an answer is cached")
	fl.StringVar(&f.scope, "cache-scope", "", "keep cached answers of this run apart from other runs")
	fl.StringVar(&f.redisURL, "redis-url", os.Getenv(envRedisURL), "cache answers in redis instead of on disk")
	fl.StringVar(&f.envFile, "env-file", ".env", "load environment variables from this file if it exists")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "hide the progress spinner")
	f.store.register(cmd)
	completeWith(cmd, "setting", settingNames()...)
	completeWith(cmd, "mode", "quadrant", "directional", "abs", "rel")
	completeWith(cmd, "provider", "openai", "gemini")

	return cmd
}

func (s *storeFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&s.dir, "results", ".", "directory for result files")
	fl.StringVar(&s.mongoURI, "mongo-uri", os.Getenv(envMongoURI), "store results in MongoDB instead of files")
	fl.StringVar(&s.mongoDB, "mongo-db", bench.DefaultMongoDatabase, "MongoDB database")
}

func (s *storeFlags) open(ctx context.Context) (bench.Store, error) {
	if s.mongoURI != "" {
		return bench.NewMongoStore(ctx, bench.MongoConfig{URI: s.mongoURI, Database: s.mongoDB})
	}
	return bench.NewFileStore(s.dir)
}

func (c *CLI) runBench(cmd *cobra.Command, args []string, f *benchFlags) error {
	ctx := cmd.Context()
	if err := loadEnv(f.envFile, cmd.Flags().Changed("env-file")); err != nil {
		return err
	}

	datasets, err := loadDatasets(args, f.mode, f.images)
	if err != nil {
		return err
	}
	settings, err := resolveSettings(f.settings, datasets)
	if err != nil {
		return err
	}

	model, err := newModel(ctx, f)
	if err != nil {
		return err
	}
	answers, err := c.newCache(ctx, f.noCache, f.redisURL)
	if err != nil {
		return err
	}
	defer answers.Close()
	store, err := f.store.open(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	c.ui.info("Evaluating %s with %d setting(s)", StyleHighlight.Render(model.Provider()+"/"+model.Name()), len(settings))

	runner := bench.NewRunner(model, c.Logger)
	results := make([]*bench.Result, 0, len(settings))
	for _, s := range settings {
		ds := datasets[s.Mode]
		res, err := c.benchSetting(ctx, runner, answers, ds, s, f)
		if err != nil {
			return fmt.Errorf("%s: %w", s, err)
		}
		ref, err := store.Save(ctx, res)
		if err != nil {
			return err
		}
		c.ui.success("%s", s)
		c.ui.stats(
			fmt.Sprintf("%.1f%% accuracy", 100*res.Accuracy),
			fmt.Sprintf("%d/%d correct", res.Correct, res.Total),
			fmt.Sprintf("%d errors", res.Errors),
			fmt.Sprintf("%d cached", res.Cached),
		)
		c.ui.file(ref)
		results = append(results, res)
	}

	if len(results) > 1 {
		c.ui.blank()
		for _, res := range results {
			c.ui.field(res.Setting, StyleSuccess.Render(fmt.Sprintf("%5.1f%%", 100*res.Accuracy)))
		}
	}
	return nil
}

func (c *CLI) benchSetting(ctx context.Context, runner *bench.Runner, answers cache.Cache, ds *dataset, s bench.Setting, f *benchFlags) (*bench.Result, error) {
	total := len(ds.records)
	if f.limit > 0 && f.limit < total {
		total = f.limit
	}

	opts := bench.Options{
		Setting:  s,
		Images:   os.DirFS(ds.images),
		Limit:    f.limit,
		Workers:  f.workers,
		Cache:    answers,
		Refresh:  f.refresh,
		Attempts: f.attempts,
		Logger:   c.Logger,
	}
	if f.scope != "" {
		opts.Keyer = cache.NewScopedKeyer(nil, f.scope+":")
	}

	logDone := timed(c.Logger)
	var spinner *Spinner
	if !f.quiet {
		spinner = newSpinner(ctx, os.Stderr, fmt.Sprintf("%s 0/%d", s, total))
		opts.OnProgress = func(done, total int) {
			spinner.SetMessage(fmt.Sprintf("%s %d/%d", s, done, total))
		}
		spinner.Start()
	}
	res, err := runner.Run(ctx, ds.records, opts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return nil, err
	}
	logDone("evaluated", "setting", s.String(), "accuracy", res.Accuracy)
	return res, nil
}

// newModel builds the model client for --provider.
func newModel(ctx context.Context, f *benchFlags) (bench.Model, error) {
	switch strings.ToLower(f.provider) {
	case "openai":
		return bench.NewOpenAI(bench.OpenAIConfig{
			APIKey:    os.Getenv(envOpenAIKey),
			BaseURL:   f.baseURL,
			Model:     f.model,
			MaxTokens: f.maxTokens,
		})
	case "gemini":
		key := os.Getenv(envGeminiKey)
		if key == "" {
			key = os.Getenv(envGoogleKey)
		}
		return bench.NewGemini(ctx, bench.GeminiConfig{
			APIKey:    key,
			Model:     f.model,
			MaxTokens: f.maxTokens,
		})
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown provider %q (must be openai or gemini)", f.provider)
}

// loadEnv loads an env file. A missing file is only an error when it was
// named explicitly.
func loadEnv(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "load env file %s", path)
	}
	return nil
}

// =============================================================================
// Datasets and Settings
// =============================================================================

// loadDatasets reads every record file. At most one dataset per mode is
// accepted since settings are resolved by mode.
func loadDatasets(paths []string, modeFlag, imagesFlag string) (map[relation.Mode]*dataset, error) {
	if len(paths) > 1 && (modeFlag != "" || imagesFlag != "") {
		return nil, errors.New(errors.ErrCodeInvalidInput, "--mode and --images need a single record file")
	}

	out := make(map[relation.Mode]*dataset, len(paths))
	for _, path := range paths {
		var ds *dataset
		var err error
		if modeFlag != "" {
			mode, err := relation.ParseMode(modeFlag)
			if err != nil {
				return nil, err
			}
			ds = &dataset{mode: mode, meta: path, images: filepath.Dir(path)}
			if inferred, err := inferDataset(path); err == nil {
				ds.images = inferred.images
			}
		} else if ds, err = inferDataset(path); err != nil {
			return nil, err
		}
		if imagesFlag != "" {
			ds.images = imagesFlag
		}
		if prev, ok := out[ds.mode]; ok {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"%s and %s are both %s datasets", prev.meta, path, ds.mode)
		}
		if ds.records, err = pkgio.ImportRecords(path); err != nil {
			return nil, err
		}
		out[ds.mode] = ds
	}
	return out, nil
}

// inferDataset derives mode and image directory from a record file named
// <prefix><TAG>metaList.json.
func inferDataset(path string) (*dataset, error) {
	base := filepath.Base(path)
	i := strings.Index(base, "metaList")
	if i >= 3 {
		tag := base[i-3 : i]
		for _, m := range relation.Modes {
			if m.Tag() == tag {
				return &dataset{
					mode:   m,
					meta:   path,
					images: filepath.Join(filepath.Dir(path), base[:i]+"dataset"),
				}, nil
			}
		}
	}
	return nil, errors.New(errors.ErrCodeInvalidInput,
		"cannot derive the dataset mode from %s (pass --mode)", base)
}

// resolveSettings parses the requested settings, or selects the standard
// suite entries whose mode has a dataset.
func resolveSettings(names []string, datasets map[relation.Mode]*dataset) ([]bench.Setting, error) {
	if len(names) == 0 {
		var out []bench.Setting
		for _, s := range bench.StandardSuite {
			if _, ok := datasets[s.Mode]; ok {
				out = append(out, s)
			}
		}
		return out, nil
	}

	out := make([]bench.Setting, 0, len(names))
	for _, name := range names {
		s, err := bench.ParseSetting(name)
		if err != nil {
			return nil, err
		}
		if _, ok := datasets[s.Mode]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "setting %s needs a %s dataset", s, s.Mode)
		}
		out = append(out, s)
	}
	return out, nil
}
