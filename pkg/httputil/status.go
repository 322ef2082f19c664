package httputil

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 2048

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// CheckResponse returns nil for 2xx responses. Otherwise it reads up to
// 2KiB of the body into a [StatusError], wrapped in [RetryableError] for
// 429 and 5xx codes together with any Retry-After hint.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	err := &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	if Transient(resp.StatusCode) {
		return &RetryableError{Err: err, After: retryAfter(resp.Header.Get("Retry-After"))}
	}
	return err
}

// Transient reports whether a status code is worth retrying.
func Transient(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// retryAfter parses a Retry-After value given in seconds. HTTP dates are
// ignored.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
