// Package observability lets a binary watch generation, model calls, cache
// lookups and outgoing HTTP requests without the library packages importing
// a metrics or tracing backend.
//
// Libraries fetch the current hooks at the call site:
//
//	observability.Model().OnModelRequest(ctx, "openai", "gpt-4o")
//
// The binary installs its implementations once:
//
//	restore := observability.Register(observability.Hooks{Model: myModelHooks})
//	defer restore()
//
// Unset categories keep their no-op defaults.
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// SampleStats summarizes the work spent on one sample.
type SampleStats struct {
	Points         int
	AnchorAttempts int
	PlacementDraws int
}

// PipelineHooks receives dataset generation events.
type PipelineHooks interface {
	OnSampleStart(ctx context.Context, mode string, index int)
	OnSampleComplete(ctx context.Context, mode string, index int, stats SampleStats, duration time.Duration, err error)
	OnRenderComplete(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// CacheHooks receives answer cache events. keyType names the kind of
// entry, currently always "answer".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// ModelHooks receives one event per model call and outcome.
type ModelHooks interface {
	OnModelRequest(ctx context.Context, provider, model string)
	OnModelResponse(ctx context.Context, provider, model string, duration time.Duration)
	OnModelError(ctx context.Context, provider, model string, err error)
}

// HTTPHooks receives outgoing HTTP events. OnError covers transport
// failures only; error statuses arrive through OnResponse.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	OnError(ctx context.Context, method, host, path string, err error)
}

// Hooks groups one implementation per category. Nil fields mean no-op.
type Hooks struct {
	Pipeline PipelineHooks
	Cache    CacheHooks
	Model    ModelHooks
	HTTP     HTTPHooks
}

// Noop implements every hook interface and ignores all events. Embed it to
// implement a subset.
type Noop struct{}

func (Noop) OnSampleStart(context.Context, string, int)                                       {}
func (Noop) OnSampleComplete(context.Context, string, int, SampleStats, time.Duration, error) {}
func (Noop) OnRenderComplete(context.Context, string, int, time.Duration, error)              {}
func (Noop) OnCacheHit(context.Context, string)                                               {}
func (Noop) OnCacheMiss(context.Context, string)                                              {}
func (Noop) OnCacheSet(context.Context, string, int)                                          {}
func (Noop) OnModelRequest(context.Context, string, string)                                   {}
func (Noop) OnModelResponse(context.Context, string, string, time.Duration)                   {}
func (Noop) OnModelError(context.Context, string, string, error)                              {}
func (Noop) OnRequest(context.Context, string, string, string)                                {}
func (Noop) OnResponse(context.Context, string, string, string, int, time.Duration)           {}
func (Noop) OnError(context.Context, string, string, string, error)                           {}

var noop = Hooks{Pipeline: Noop{}, Cache: Noop{}, Model: Noop{}, HTTP: Noop{}}

var current atomic.Pointer[Hooks]

func init() { current.Store(&noop) }

// Register installs the non-nil fields of h and returns a func that puts
// the previous hooks back.
func Register(h Hooks) (restore func()) {
	prev := current.Load()
	next := *prev
	if h.Pipeline != nil {
		next.Pipeline = h.Pipeline
	}
	if h.Cache != nil {
		next.Cache = h.Cache
	}
	if h.Model != nil {
		next.Model = h.Model
	}
	if h.HTTP != nil {
		next.HTTP = h.HTTP
	}
	current.Store(&next)
	return func() { current.Store(prev) }
}

// Reset restores the no-op defaults.
func Reset() { current.Store(&noop) }

func Pipeline() PipelineHooks { return current.Load().Pipeline }
func Cache() CacheHooks       { return current.Load().Cache }
func Model() ModelHooks       { return current.Load().Model }
func HTTP() HTTPHooks         { return current.Load().HTTP }
