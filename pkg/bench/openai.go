package bench

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/spatialbench/pkg/errors"
	"github.com/matzehuels/spatialbench/pkg/httputil"
	"github.com/matzehuels/spatialbench/pkg/observability"
)

// OpenAI defaults.
const (
	DefaultOpenAIURL   = "https://api.openai.com/v1"
	DefaultOpenAIModel = "gpt-4.1-nano-2025-04-14"
	DefaultMaxTokens   = 512
	DefaultSystem      = "You are a helpful visual assistant."

	httpTimeout = 60 * time.Second
)

// OpenAIConfig configures an [OpenAI] model.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	System    string
	// HTTPClient defaults to a client with a 60s timeout.
	HTTPClient *http.Client
}

// OpenAI sends questions to an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	cfg  OpenAIConfig
	http *http.Client
}

// NewOpenAI creates an OpenAI model. An API key is required.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrCodeUnauthorized, "openai api key not set (export OPENAI_API_KEY)")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIURL
	}
	if err := errors.ValidateURL(cfg.BaseURL); err != nil {
		return nil, err
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.System == "" {
		cfg.System = DefaultSystem
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: httpTimeout}
	}
	return &OpenAI{cfg: cfg, http: client}, nil
}

func (m *OpenAI) Provider() string { return "openai" }
func (m *OpenAI) Name() string     { return m.cfg.Model }

// MaxTokens returns the completion token limit.
func (m *OpenAI) MaxTokens() int { return m.cfg.MaxTokens }

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// DataURL encodes img as a base64 data URL.
func DataURL(img Image) string {
	mime := img.MIME
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Answer implements Model.
func (m *OpenAI) Answer(ctx context.Context, prompt string, img Image) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:     m.cfg.Model,
		MaxTokens: m.cfg.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: m.cfg.System},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: DataURL(img)}},
			}},
		},
	})
	if err != nil {
		return "", err
	}

	endpoint := m.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)

	hooks := observability.HTTP()
	host, path := splitURL(endpoint)
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := m.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "openai request failed")}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := httputil.CheckResponse(resp); err != nil {
		return "", classify(resp.StatusCode, err)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode openai response")
	}
	if len(out.Choices) == 0 {
		return "", errors.New(errors.ErrCodeInvalidFormat, "openai response has no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// classify attaches an error code to a failed HTTP status. The code wraps
// err, so a RetryableError inside stays visible to httputil.Retry.
func classify(code int, err error) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.Wrap(errors.ErrCodeUnauthorized, err, "model api rejected credentials")
	case code == http.StatusTooManyRequests:
		return errors.Wrap(errors.ErrCodeRateLimited, err, "model api rate limited")
	case code == http.StatusNotFound:
		return errors.Wrap(errors.ErrCodeNotFound, err, "model not found")
	case code >= 500:
		return errors.Wrap(errors.ErrCodeNetwork, err, "model api unavailable")
	}
	return errors.Wrap(errors.ErrCodeInvalidInput, err, "model api rejected request")
}

func splitURL(raw string) (host, path string) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", raw
	}
	return u.Host, u.Path
}

var _ Model = (*OpenAI)(nil)
