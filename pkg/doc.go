// Package pkg provides the core libraries for Spatialbench.
//
// # Overview
//
// Spatialbench builds synthetic map images of labelled markers and asks
// where one marker lies relative to a reference: the map center in quadrant
// (ABS) datasets, another marker in directional (REL) datasets. The answers
// are known by construction, so vision-language models can be scored
// without human labels.
//
// # Architecture
//
// The data flow of a dataset:
//
//	[layout] sample (markers, anchor, relation, target)
//	     ↓
//	[record] question record + draw scene
//	     ↓
//	[sink] rendered image ([render] PNG or SVG)
//	     ↓
//	[io] metaList.json
//
// and of an evaluation:
//
//	metaList.json + images → [bench] model answers → scored result
//
// # Quick Start
//
//	out, _ := sink.NewDir("dataset", render.PNG)
//	result, err := pipeline.NewRunner(out, logger).Generate(ctx, pipeline.Options{
//	    Mode:  relation.Directional,
//	    Count: 300,
//	})
//	err = io.ExportRecords(result.Records, "metaList.json")
//
//	model, _ := bench.NewOpenAI(bench.OpenAIConfig{APIKey: key})
//	res, err := bench.NewRunner(model, logger).Run(ctx, result.Records, bench.Options{
//	    Setting: bench.Setting{Mode: relation.Directional, Variant: record.Visual},
//	    Images:  os.DirFS("dataset"),
//	})
//
// # Main Packages
//
// ## Generation
//
// [relation] - Modes, relations and the geometric regions that realize them.
//
// [attrs] - Marker shape and color pools with unique per-map assignment.
//
// [layout] - Constrained sampler: point count, minimum separation, anchor
// and target placement. Every draw goes through one [layout.Source].
//
// [record] - Question text, answer labels, draw scenes and ground truth.
//
// [render] - PNG (fogleman/gg) and SVG output of a scene.
//
// [sink] - Destinations for rendered images: directory, memory, discard.
//
// [pipeline] - Seeded sample → record → render loop shared by the CLI and
// the preview API.
//
// [io] - Record and ground-truth JSON files.
//
// ## Evaluation
//
// [bench] - Model clients (OpenAI-compatible, Gemini), prompt settings,
// substring scoring and result stores (files, MongoDB).
//
// [cache] - Answer cache backends (file, Redis, null).
//
// [httputil] - Retry with backoff and HTTP status classification.
//
// ## Shared
//
// [errors] - Coded errors carried to the CLI and API boundaries.
//
// [observability] - Hooks for pipeline, model, cache and HTTP events.
//
// [buildinfo] - Version information set at link time.
//
// [relation]: https://pkg.go.dev/github.com/matzehuels/spatialbench/pkg/relation
// [attrs]: https://pkg.go.dev/github.com/matzehuels/spatialbench/pkg/attrs
// [layout]: https://pkg.go.dev/github.com/matzehuels/spatialbench/pkg/layout
// [layout.Source]: https://pkg.go.dev/github.com/matzehuels/spatialbench/pkg/layout#Source
// [record]: https://pkg.go.dev/github.com/matzehuels/spatialbench/pkg/record
// [render]: https://pkg.go.dev/github.com/matzehuels/spatialbench/pkg/render
// [sink]: https://pkg.go.dev/github.com/matzehuels/spatialbench/pkg/sink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/spatialbench/pkg/pipeline
// [io]: https://pkg.go.dev/github.com/matzehuels/spatialbench/pkg/io
// [bench]: https://pkg.go.dev/github.com/matzehuels/spatialbench/pkg/bench
// [cache]: https://pkg.go.dev/github.com/matzehuels/spatialbench/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/matzehuels/spatialbench/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/matzehuels/spatialbench/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/spatialbench/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/spatialbench/pkg/buildinfo
package pkg
