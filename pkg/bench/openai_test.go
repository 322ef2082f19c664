package bench

import (
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/spatialbench/pkg/errors"
	"github.com/matzehuels/spatialbench/pkg/httputil"
)

func TestOpenAIRequest(t *testing.T) {
	img := Image{Data: []byte{0x89, 'P', 'N', 'G'}, MIME: "image/png"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			Messages  []struct {
				Role    string          `json:"role"`
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultOpenAIModel, req.Model)
		assert.Equal(t, 512, req.MaxTokens)
		require.Len(t, req.Messages, 2)

		var system string
		require.NoError(t, json.Unmarshal(req.Messages[0].Content, &system))
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "You are a helpful visual assistant.", system)

		var parts []contentPart
		require.NoError(t, json.Unmarshal(req.Messages[1].Content, &parts))
		require.Len(t, parts, 2)
		assert.Equal(t, "text", parts[0].Type)
		assert.Equal(t, "Which direction?", parts[0].Text)
		assert.Equal(t, "image_url", parts[1].Type)
		assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(img.Data), parts[1].ImageURL.URL)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  A. UpperRight\n"}}]}`))
	}))
	defer srv.Close()

	m, err := NewOpenAI(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)
	assert.Equal(t, "openai", m.Provider())
	assert.Equal(t, DefaultOpenAIModel, m.Name())

	got, err := m.Answer(context.Background(), "Which direction?", img)
	require.NoError(t, err)
	assert.Equal(t, "A. UpperRight", got)
}

func TestOpenAIStatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		code      errors.Code
		retryable bool
	}{
		{http.StatusTooManyRequests, errors.ErrCodeRateLimited, true},
		{http.StatusServiceUnavailable, errors.ErrCodeNetwork, true},
		{http.StatusUnauthorized, errors.ErrCodeUnauthorized, false},
		{http.StatusBadRequest, errors.ErrCodeInvalidInput, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":{"message":"nope"}}`, tt.status)
			}))
			defer srv.Close()

			m, err := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = m.Answer(context.Background(), "q", Image{Data: []byte("x")})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.code), "err = %v", err)
			var re *httputil.RetryableError
			assert.Equal(t, tt.retryable, stderrors.As(err, &re))
		})
	}
}

func TestOpenAIRetriedByRunnerPolicy(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"B. UpperLeft"}}]}`))
	}))
	defer srv.Close()

	m, err := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	var got string
	err = httputil.Retry(context.Background(), 3, time.Millisecond, func() error {
		var err error
		got, err = m.Answer(context.Background(), "q", Image{Data: []byte("x")})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "B. UpperLeft", got)
	assert.EqualValues(t, 2, calls.Load())
}

func TestOpenAIEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	m, _ := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := m.Answer(context.Background(), "q", Image{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat))
}

func TestNewOpenAIValidation(t *testing.T) {
	_, err := NewOpenAI(OpenAIConfig{})
	assert.True(t, errors.Is(err, errors.ErrCodeUnauthorized))

	_, err = NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: "ftp://example.com"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	m, err := NewOpenAI(OpenAIConfig{APIKey: "k", Model: "gpt-4o", MaxTokens: 64})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", m.Name())
	assert.Equal(t, 64, m.MaxTokens())
}

func TestDataURL(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,AQI=", DataURL(Image{Data: []byte{1, 2}}))
	assert.True(t, strings.HasPrefix(DataURL(Image{Data: []byte("<svg/>"), MIME: "image/svg+xml"}), "data:image/svg+xml;base64,"))
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiConfig{})
	assert.True(t, errors.Is(err, errors.ErrCodeUnauthorized))
}

func TestClassifyGemini(t *testing.T) {
	tests := []struct {
		msg       string
		code      errors.Code
		retryable bool
	}{
		{"Error 429, Message: Resource has been exhausted, Status: RESOURCE_EXHAUSTED", errors.ErrCodeRateLimited, true},
		{"Error 503, Message: The model is overloaded, Status: UNAVAILABLE", errors.ErrCodeNetwork, true},
		{"Error 400, Message: API key not valid, Status: INVALID_ARGUMENT, API_KEY_INVALID", errors.ErrCodeUnauthorized, false},
		{"Error 404, Message: models/foo is not found, Status: NOT_FOUND", errors.ErrCodeNotFound, false},
		{"dial tcp: connection refused", errors.ErrCodeNetwork, false},
	}
	for _, tt := range tests {
		err := classifyGemini(stderrors.New(tt.msg))
		assert.True(t, errors.Is(err, tt.code), "%s: %v", tt.msg, err)
		var re *httputil.RetryableError
		assert.Equal(t, tt.retryable, stderrors.As(err, &re), tt.msg)
	}
}
