package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/spatialbench/pkg/observability"
)

// newLogger returns a logger with short wall-clock timestamps
// ("14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// timed returns a func that logs msg at info level with the time elapsed
// since timed was called.
func timed(l *log.Logger) func(msg string, keyvals ...any) {
	start := time.Now()
	return func(msg string, keyvals ...any) {
		l.Info(msg, append(keyvals, "elapsed", time.Since(start).Round(time.Millisecond))...)
	}
}

// debugHooks logs every observability event at debug level.
type debugHooks struct {
	logger *log.Logger
}

// registerDebugHooks routes observability events to l when it logs at
// debug level. The returned func unregisters them.
func registerDebugHooks(l *log.Logger) func() {
	if l.GetLevel() > log.DebugLevel {
		return func() {}
	}
	h := debugHooks{logger: l}
	return observability.Register(observability.Hooks{Pipeline: h, Cache: h, Model: h, HTTP: h})
}

func (h debugHooks) OnSampleStart(context.Context, string, int) {}

func (h debugHooks) OnSampleComplete(_ context.Context, mode string, index int, st observability.SampleStats, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("sample failed", "mode", mode, "index", index, "err", err)
		return
	}
	h.logger.Debug("sample", "mode", mode, "index", index, "points", st.Points,
		"anchor_attempts", st.AnchorAttempts, "draws", st.PlacementDraws, "duration", d)
}

func (h debugHooks) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	h.logger.Debug("render", "format", format, "bytes", size, "duration", d, "err", err)
}

func (h debugHooks) OnModelRequest(_ context.Context, provider, model string) {
	h.logger.Debug("model request", "provider", provider, "model", model)
}

func (h debugHooks) OnModelResponse(_ context.Context, provider, model string, d time.Duration) {
	h.logger.Debug("model response", "provider", provider, "model", model, "duration", d.Round(time.Millisecond))
}

func (h debugHooks) OnModelError(_ context.Context, provider, model string, err error) {
	h.logger.Debug("model error", "provider", provider, "model", model, "err", err)
}

func (h debugHooks) OnCacheHit(_ context.Context, keyType string)  { h.logger.Debug("cache hit", "type", keyType) }
func (h debugHooks) OnCacheMiss(_ context.Context, keyType string) { h.logger.Debug("cache miss", "type", keyType) }

func (h debugHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h debugHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h debugHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "duration", d.Round(time.Millisecond))
}

func (h debugHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}
