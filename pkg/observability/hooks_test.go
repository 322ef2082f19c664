package observability

import (
	"context"
	"testing"
	"time"
)

type recordingModel struct {
	Noop
	requests []string
}

func (r *recordingModel) OnModelRequest(_ context.Context, provider, model string) {
	r.requests = append(r.requests, provider+"/"+model)
}

func TestDefaultsAreNoop(t *testing.T) {
	Reset()
	ctx := context.Background()

	Pipeline().OnSampleComplete(ctx, "quadrant", 0, SampleStats{Points: 7}, time.Millisecond, nil)
	Cache().OnCacheSet(ctx, "answer", 128)
	Model().OnModelError(ctx, "openai", "gpt-4.1-nano", context.Canceled)
	HTTP().OnResponse(ctx, "POST", "api.openai.com", "/v1/chat/completions", 200, time.Second)

	if _, ok := Model().(Noop); !ok {
		t.Errorf("Model() = %T, want Noop", Model())
	}
}

func TestRegisterAndRestore(t *testing.T) {
	Reset()
	rec := &recordingModel{}

	restore := Register(Hooks{Model: rec})
	Model().OnModelRequest(context.Background(), "gemini", "gemini-2.0-flash")
	if _, ok := Cache().(Noop); !ok {
		t.Error("unset category replaced")
	}
	restore()
	Model().OnModelRequest(context.Background(), "gemini", "ignored")

	if len(rec.requests) != 1 || rec.requests[0] != "gemini/gemini-2.0-flash" {
		t.Errorf("requests = %v", rec.requests)
	}
	if _, ok := Model().(Noop); !ok {
		t.Error("restore did not reinstate the previous hooks")
	}
}

func TestRegisterStacks(t *testing.T) {
	Reset()
	outer := &recordingModel{}
	inner := &recordingModel{}

	restoreOuter := Register(Hooks{Model: outer})
	restoreInner := Register(Hooks{Model: inner})
	if Model() != ModelHooks(inner) {
		t.Error("latest registration not active")
	}
	restoreInner()
	if Model() != ModelHooks(outer) {
		t.Error("inner restore did not fall back to outer hooks")
	}
	restoreOuter()
}
