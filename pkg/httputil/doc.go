// Package httputil provides HTTP helpers for model API clients.
//
// # Retry
//
// [Retry] re-runs an operation with exponential backoff, but only when the
// failure was marked transient by wrapping it in [RetryableError]. Each
// wait is jittered by ±10%, stretched to the server's Retry-After hint when
// one was sent and capped at [MaxDelay]:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    defer resp.Body.Close()
//	    return httputil.CheckResponse(resp)
//	})
//
// # Status handling
//
// [CheckResponse] turns non-2xx responses into a [StatusError]. Rate limits
// (429) and server errors (5xx) come back wrapped in [RetryableError].
package httputil
