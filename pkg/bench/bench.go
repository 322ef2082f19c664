// Package bench scores vision-language models on a generated dataset.
//
// # Overview
//
// A benchmark run takes a record file and its image directory, sends one
// phrasing of every question together with its image to a [Model], and
// checks whether the reply contains the expected answer label:
//
//	records, _ := io.ImportRecords("2507131536_RELmetaList.json")
//	setting, _ := bench.ParseSetting("rel_imgVp_aP")
//	res, err := bench.NewRunner(model, logger).Run(ctx, records, bench.Options{
//	    Setting: setting,
//	    Images:  os.DirFS("2507131536_RELdataset"),
//	})
//	fmt.Println(res.Accuracy)
//
// # Settings
//
// A [Setting] fixes the dataset mode, the phrasing ([record.Symbolic] or
// [record.Visual]) and whether the hint is inserted. Setting names follow the
// pattern <rel|abs>_<sybVp|imgVp>_<aP|nP>. [StandardSuite] lists the six
// settings of a full evaluation.
//
// # Scoring
//
// A reply is correct when it contains the ground-truth label, e.g.
// "A. UpperRight", as a substring. A model call that fails after retries is
// logged and scored as an empty reply, so one bad request never aborts a run.
//
// # Models
//
// [OpenAI] talks to the chat completions API over HTTP; [Gemini] uses the
// Google Gen AI SDK. Both implement [Model]. Answers can be cached with any
// [cache.Cache] backend.
package bench

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/spatialbench/pkg/errors"
	"github.com/matzehuels/spatialbench/pkg/record"
	"github.com/matzehuels/spatialbench/pkg/relation"
)

// Image is an encoded image sent alongside a prompt.
type Image struct {
	Data []byte
	MIME string
}

// Model answers a question about an image.
type Model interface {
	// Provider names the API, e.g. "openai".
	Provider() string
	// Name is the model identifier sent to the provider.
	Name() string
	// Answer returns the model's reply. Transient failures should be
	// wrapped in httputil.RetryableError.
	Answer(ctx context.Context, prompt string, img Image) (string, error)
}

// =============================================================================
// Settings
// =============================================================================

// Hint is inserted before the options of a question when a setting enables it.
const Hint = " (tips: Please first determine the positions of the two objects on the map, " +
	"and then identify their relative positions.) "

// Setting is one benchmark configuration.
type Setting struct {
	Mode    relation.Mode
	Variant record.Variant
	Hint    bool
}

// String returns the setting name, e.g. "rel_sybVp_nP".
func (s Setting) String() string {
	hint := "nP"
	if s.Hint {
		hint = "aP"
	}
	return fmt.Sprintf("%s_%s_%s", strings.ToLower(s.Mode.Tag()), s.Variant, hint)
}

// Prompt returns the question sent to the model for r.
func (s Setting) Prompt(r record.Record) string {
	p := r.Prompt(s.Variant)
	if s.Hint {
		p = WithHint(p)
	}
	return p
}

// WithHint inserts [Hint] before every "Available options:" marker.
func WithHint(prompt string) string {
	return strings.ReplaceAll(prompt, record.OptionsMarker, Hint+record.OptionsMarker)
}

// StandardSuite lists the six settings of a full evaluation, in the order
// they are usually reported.
var StandardSuite = []Setting{
	{Mode: relation.Directional, Variant: record.Symbolic},
	{Mode: relation.Directional, Variant: record.Visual},
	{Mode: relation.Quadrant, Variant: record.Symbolic},
	{Mode: relation.Quadrant, Variant: record.Visual},
	{Mode: relation.Directional, Variant: record.Symbolic, Hint: true},
	{Mode: relation.Directional, Variant: record.Visual, Hint: true},
}

// ParseSetting parses a setting name such as "abs_imgVp_nP".
func ParseSetting(name string) (Setting, error) {
	parts := strings.Split(strings.TrimSpace(name), "_")
	if len(parts) != 3 {
		return Setting{}, errors.New(errors.ErrCodeInvalidInput,
			"invalid setting %q (want <rel|abs>_<sybVp|imgVp>_<aP|nP>)", name)
	}
	mode, err := relation.ParseMode(parts[0])
	if err != nil {
		return Setting{}, err
	}
	variant, err := record.ParseVariant(parts[1])
	if err != nil {
		return Setting{}, err
	}
	var hint bool
	switch strings.ToLower(parts[2]) {
	case "ap":
		hint = true
	case "np":
	default:
		return Setting{}, errors.New(errors.ErrCodeInvalidInput, "invalid hint flag %q (must be aP or nP)", parts[2])
	}
	return Setting{Mode: mode, Variant: variant, Hint: hint}, nil
}

// Correct reports whether answer contains the ground-truth label.
func Correct(answer, gt string) bool {
	return gt != "" && strings.Contains(answer, gt)
}
