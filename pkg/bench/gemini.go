package bench

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/matzehuels/spatialbench/pkg/errors"
	"github.com/matzehuels/spatialbench/pkg/httputil"
)

// DefaultGeminiModel is used when GeminiConfig.Model is empty.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiConfig configures a [Gemini] model.
type GeminiConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	System    string
}

// Gemini sends questions to the Gemini API.
type Gemini struct {
	cfg    GeminiConfig
	client *genai.Client
}

// NewGemini creates a Gemini model. An API key is required.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrCodeUnauthorized, "gemini api key not set (export GEMINI_API_KEY)")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.System == "" {
		cfg.System = DefaultSystem
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "create gemini client")
	}
	return &Gemini{cfg: cfg, client: client}, nil
}

func (m *Gemini) Provider() string { return "gemini" }
func (m *Gemini) Name() string     { return m.cfg.Model }

// MaxTokens returns the output token limit.
func (m *Gemini) MaxTokens() int { return m.cfg.MaxTokens }

// Answer implements Model.
func (m *Gemini) Answer(ctx context.Context, prompt string, img Image) (string, error) {
	mime := img.MIME
	if mime == "" {
		mime = "image/png"
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: m.cfg.System}}},
		MaxOutputTokens:   int32(m.cfg.MaxTokens),
	}
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{Data: img.Data, MIMEType: mime}},
		},
	}}

	resp, err := m.client.Models.GenerateContent(ctx, m.cfg.Model, contents, config)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", classifyGemini(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New(errors.ErrCodeInvalidFormat, "no response from gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

// classifyGemini maps SDK errors to coded errors. The SDK reports HTTP
// failures as text, so status codes are matched in the message.
func classifyGemini(err error) error {
	msg := err.Error()
	switch {
	case containsAny(msg, "429", "RESOURCE_EXHAUSTED", "rate limit", "quota exceeded", "Too Many Requests"):
		return errors.Wrap(errors.ErrCodeRateLimited, &httputil.RetryableError{Err: err}, "gemini rate limited")
	case containsAny(msg, "500", "502", "503", "504", "INTERNAL", "UNAVAILABLE"):
		return errors.Wrap(errors.ErrCodeNetwork, &httputil.RetryableError{Err: err}, "gemini unavailable")
	case containsAny(msg, "401", "403", "PERMISSION_DENIED", "API_KEY_INVALID"):
		return errors.Wrap(errors.ErrCodeUnauthorized, err, "gemini rejected credentials")
	case containsAny(msg, "NOT_FOUND", "not found"):
		return errors.Wrap(errors.ErrCodeNotFound, err, "gemini model not found")
	}
	return errors.Wrap(errors.ErrCodeNetwork, err, "gemini request failed")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var _ Model = (*Gemini)(nil)
