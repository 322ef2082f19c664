package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/spatialbench/pkg/bench"
	"github.com/matzehuels/spatialbench/pkg/cache"
	"github.com/matzehuels/spatialbench/pkg/errors"
	pkgio "github.com/matzehuels/spatialbench/pkg/io"
	"github.com/matzehuels/spatialbench/pkg/record"
	"github.com/matzehuels/spatialbench/pkg/relation"
)

// isolate points every external location at temporary or empty values.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv(envMongoURI, "")
	t.Setenv(envRedisURL, "")
	return dir
}

// execute runs the root command with args.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func onlyMatch(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(pattern)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("glob %s matched %d files, want 1: %v", pattern, len(matches), matches)
	}
	return matches[0]
}

// =============================================================================
// generate
// =============================================================================

func TestGenerateCommand(t *testing.T) {
	dir := isolate(t)

	if err := execute(t, "generate", "-m", "rel", "-n", "3", "-f", "svg", "-o", dir, "-q", "--with-truth"); err != nil {
		t.Fatalf("generate: %v", err)
	}

	meta := onlyMatch(t, filepath.Join(dir, "*_RELmetaList.json"))
	records, err := pkgio.ImportRecords(meta)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}

	ds, err := inferDataset(meta)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range records {
		if _, err := os.Stat(filepath.Join(ds.images, r.ImgName)); err != nil {
			t.Errorf("image for %s: %v", r.ImgName, err)
		}
		if !strings.HasSuffix(r.ImgName, ".svg") {
			t.Errorf("ImgName = %q, want .svg", r.ImgName)
		}
	}
	if _, err := os.Stat(truthPath(meta)); err != nil {
		t.Errorf("truth file: %v", err)
	}
}

func TestGenerateAllModes(t *testing.T) {
	dir := isolate(t)

	if err := execute(t, "generate", "-n", "2", "-f", "svg", "-o", dir, "-q"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, m := range relation.Modes {
		onlyMatch(t, filepath.Join(dir, "*_"+m.Tag()+"metaList.json"))
		onlyMatch(t, filepath.Join(dir, "*_"+m.Tag()+"dataset"))
	}
}

func TestGenerateExplicitPaths(t *testing.T) {
	dir := isolate(t)
	images := filepath.Join(dir, "imgs")
	meta := filepath.Join(dir, "records.json")

	if err := execute(t, "generate", "-m", "abs", "-n", "2", "--images", images, "--meta", meta, "-q"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := os.Stat(filepath.Join(images, "000.png")); err != nil {
		t.Errorf("png image: %v", err)
	}
	if _, err := pkgio.ImportRecords(meta); err != nil {
		t.Errorf("records: %v", err)
	}
}

func TestGenerateSeedZero(t *testing.T) {
	dir := isolate(t)
	run := func(name string, extra ...string) []record.Record {
		t.Helper()
		meta := filepath.Join(dir, name+".json")
		args := append([]string{"generate", "-m", "rel", "-n", "3", "-q",
			"--images", filepath.Join(dir, name), "--meta", meta}, extra...)
		if err := execute(t, args...); err != nil {
			t.Fatalf("generate %v: %v", extra, err)
		}
		records, err := pkgio.ImportRecords(meta)
		if err != nil {
			t.Fatal(err)
		}
		return records
	}

	zero := run("zero", "--seed", "0", "--margin", "0", "--min-sep", "0")
	again := run("again", "--seed", "0", "--margin", "0", "--min-sep", "0")
	def := run("default")
	if zero[0] != again[0] || zero[2] != again[2] {
		t.Error("seed 0 runs differ")
	}
	if zero[0] == def[0] && zero[1] == def[1] && zero[2] == def[2] {
		t.Error("seed 0 was replaced by the default seed")
	}
}

func TestGenerateRejects(t *testing.T) {
	dir := isolate(t)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"paths need single mode", []string{"--images", dir}, errors.ErrCodeInvalidInput},
		{"unknown mode", []string{"-m", "sideways"}, errors.ErrCodeInvalidMode},
		{"unknown format", []string{"-f", "gif"}, errors.ErrCodeInvalidFormat},
		{"bad size", []string{"--size", "0"}, errors.ErrCodeInvalidConfig},
		{"zero count", []string{"-n", "0"}, errors.ErrCodeInvalidConfig},
		{"bad points", []string{"-m", "rel", "--min-points", "9", "--max-points", "3"}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"generate", "-o", dir, "-n", "1", "-q"}, tt.args...)
			err := execute(t, args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

// =============================================================================
// render
// =============================================================================

func TestRenderMatchesGenerate(t *testing.T) {
	dir := isolate(t)
	images := filepath.Join(dir, "imgs")

	if err := execute(t, "generate", "-m", "rel", "-n", "3", "-f", "svg",
		"--images", images, "--meta", filepath.Join(dir, "m.json"), "-q"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	out := filepath.Join(dir, "preview.svg")
	if err := execute(t, "render", "-m", "rel", "-i", "2", "-o", out, "-s", "rel_imgVp_aP"); err != nil {
		t.Fatalf("render: %v", err)
	}

	want, err := os.ReadFile(filepath.Join(images, "002.svg"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Error("render output differs from the generated image of the same index")
	}
}

func TestRenderRejects(t *testing.T) {
	dir := isolate(t)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"negative index", []string{"-i", "-1"}, errors.ErrCodeInvalidInput},
		{"unknown extension", []string{"-o", filepath.Join(dir, "x.gif")}, errors.ErrCodeInvalidFormat},
		{"setting of other mode", []string{"-m", "abs", "-s", "rel_sybVp_nP"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, append([]string{"render"}, tt.args...)...)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

// =============================================================================
// bench and results
// =============================================================================

// fakeOpenAI answers every question with the first directional option.
func fakeOpenAI(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	answer := record.Options(relation.Directional)[0]
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"`+answer+`"}}]}`)
	}))
	t.Cleanup(srv.Close)
	return srv, answer
}

func TestBenchCommand(t *testing.T) {
	dir := isolate(t)
	t.Setenv(envOpenAIKey, "sk-test")
	srv, answer := fakeOpenAI(t)

	if err := execute(t, "generate", "-m", "rel", "-n", "4", "-f", "svg", "-o", dir, "-q"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	meta := onlyMatch(t, filepath.Join(dir, "*_RELmetaList.json"))
	records, err := pkgio.ImportRecords(meta)
	if err != nil {
		t.Fatal(err)
	}
	wantCorrect := 0
	for _, r := range records {
		if r.Ans == answer {
			wantCorrect++
		}
	}

	results := filepath.Join(dir, "results")
	err = execute(t, "bench", meta, "-s", "rel_sybVp_nP", "--base-url", srv.URL,
		"--results", results, "--env-file", "", "-q")
	if err != nil {
		t.Fatalf("bench: %v", err)
	}

	store, err := bench.NewFileStore(results)
	if err != nil {
		t.Fatal(err)
	}
	names, err := store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || !strings.HasSuffix(names[0], "_rel_sybVp_nP") {
		t.Fatalf("results = %v, want one rel_sybVp_nP result", names)
	}
	res, err := store.Get(context.Background(), names[0])
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 4 || res.Correct != wantCorrect {
		t.Errorf("total/correct = %d/%d, want 4/%d", res.Total, res.Correct, wantCorrect)
	}
	if res.Provider != "openai" || res.Model != bench.DefaultOpenAIModel {
		t.Errorf("model = %s/%s", res.Provider, res.Model)
	}

	if err := execute(t, "results", "list", "--results", results); err != nil {
		t.Errorf("results list: %v", err)
	}
	if err := execute(t, "results", "show", names[0], "--results", results, "--failures"); err != nil {
		t.Errorf("results show: %v", err)
	}
	if err := execute(t, "results", "show", "testResult_0000000000_rel_sybVp_nP", "--results", results); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("results show missing: err = %v, want NOT_FOUND", err)
	}
}

func TestBenchRejects(t *testing.T) {
	dir := isolate(t)
	t.Setenv(envOpenAIKey, "")
	t.Setenv(envGeminiKey, "")
	t.Setenv(envGoogleKey, "")

	if err := execute(t, "generate", "-m", "rel", "-n", "1", "-f", "svg", "-o", dir, "-q"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	meta := onlyMatch(t, filepath.Join(dir, "*_RELmetaList.json"))

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"no openai key", []string{meta}, errors.ErrCodeUnauthorized},
		{"no gemini key", []string{meta, "-p", "gemini"}, errors.ErrCodeUnauthorized},
		{"unknown provider", []string{meta, "-p", "llama"}, errors.ErrCodeInvalidInput},
		{"setting without dataset", []string{meta, "-s", "abs_sybVp_nP"}, errors.ErrCodeInvalidInput},
		{"bad setting", []string{meta, "-s", "rel_sybVp"}, errors.ErrCodeInvalidInput},
		{"missing env file", []string{meta, "--env-file", filepath.Join(dir, "nope.env")}, errors.ErrCodeInvalidConfig},
		{"missing records", []string{filepath.Join(dir, "x_RELmetaList.json")}, errors.ErrCodeFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"bench", "--results", dir, "-q"}, tt.args...)
			err := execute(t, args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestInferDataset(t *testing.T) {
	tests := []struct {
		path   string
		mode   relation.Mode
		images string
		ok     bool
	}{
		{"out/2507131536_RELmetaList.json", relation.Directional, "out/2507131536_RELdataset", true},
		{"2507131536_ABSmetaList.json", relation.Quadrant, "2507131536_ABSdataset", true},
		{"ABSmetaList.json", 0, "", false},
		{"records.json", 0, "", false},
		{"x_XYZmetaList.json", 0, "", false},
	}
	for _, tt := range tests {
		ds, err := inferDataset(tt.path)
		if !tt.ok {
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("inferDataset(%q) err = %v, want INVALID_INPUT", tt.path, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("inferDataset(%q) error: %v", tt.path, err)
			continue
		}
		if ds.mode != tt.mode || ds.images != filepath.FromSlash(tt.images) {
			t.Errorf("inferDataset(%q) = %s %q, want %s %q", tt.path, ds.mode, ds.images, tt.mode, tt.images)
		}
	}
}

func TestResolveSettings(t *testing.T) {
	rel := map[relation.Mode]*dataset{relation.Directional: {mode: relation.Directional}}

	got, err := resolveSettings(nil, rel)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Fatalf("settings = %v, want the 4 directional standard settings", got)
	}
	for _, s := range got {
		if s.Mode != relation.Directional {
			t.Errorf("setting %s has mode %s", s, s.Mode)
		}
	}

	got, err = resolveSettings([]string{"rel_imgVp_aP"}, rel)
	if err != nil {
		t.Fatal(err)
	}
	want := bench.Setting{Mode: relation.Directional, Variant: record.Visual, Hint: true}
	if len(got) != 1 || got[0] != want {
		t.Errorf("settings = %v, want [%s]", got, want)
	}
}

func TestLoadDatasetsModeOverride(t *testing.T) {
	dir := isolate(t)
	meta := filepath.Join(dir, "records.json")
	images := filepath.Join(dir, "imgs")
	if err := execute(t, "generate", "-m", "rel", "-n", "2", "--images", images, "--meta", meta, "-q"); err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := loadDatasets([]string{meta}, "", ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("without --mode: err = %v, want INVALID_INPUT", err)
	}

	got, err := loadDatasets([]string{meta}, "rel", images)
	if err != nil {
		t.Fatal(err)
	}
	ds := got[relation.Directional]
	if ds == nil || ds.images != images || len(ds.records) != 2 {
		t.Errorf("dataset = %+v", ds)
	}

	if _, err := loadDatasets([]string{meta, meta}, "rel", ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("two files with --mode: err = %v, want INVALID_INPUT", err)
	}
}

func TestLoadDatasetsDuplicateMode(t *testing.T) {
	dir := isolate(t)
	for _, sub := range []string{"a", "b"} {
		if err := execute(t, "generate", "-m", "rel", "-n", "1", "-o", filepath.Join(dir, sub), "-q"); err != nil {
			t.Fatalf("generate: %v", err)
		}
	}
	a := onlyMatch(t, filepath.Join(dir, "a", "*_RELmetaList.json"))
	b := onlyMatch(t, filepath.Join(dir, "b", "*_RELmetaList.json"))

	if _, err := loadDatasets([]string{a, b}, "", ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

// =============================================================================
// cache
// =============================================================================

func TestCacheCommands(t *testing.T) {
	isolate(t)
	dir, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := fc.Set(ctx, "k", []byte("A. UpperRight"), time.Hour); err != nil {
		t.Fatal(err)
	}

	if out := output(t, "cache", "path"); strings.TrimSpace(out) != dir {
		t.Errorf("cache path = %q, want %q", out, dir)
	}
	if out := output(t, "cache", "stats"); !strings.Contains(out, "Entries") {
		t.Errorf("cache stats = %q", out)
	}
	if out := output(t, "cache", "clear", "--expired"); !strings.Contains(out, "Nothing to delete") {
		t.Errorf("clear --expired = %q, want nothing deleted", out)
	}
	if _, ok, _ := fc.Get(ctx, "k"); !ok {
		t.Error("live entry removed by clear --expired")
	}
	if out := output(t, "cache", "clear"); !strings.Contains(out, "Deleted 1 cached answers") {
		t.Errorf("cache clear = %q", out)
	}
	if _, ok, _ := fc.Get(ctx, "k"); ok {
		t.Error("entry still cached after clear")
	}
}
