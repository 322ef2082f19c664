package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/matzehuels/spatialbench/pkg/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"success", nil, 0, ""},
		{"interrupted", fmt.Errorf("generate: %w", context.Canceled), 130, ""},
		{"bad mode", errors.New(errors.ErrCodeInvalidMode, "unknown mode %q", "up"), 2, `Error: unknown mode "up" (INVALID_MODE)`},
		{"network", errors.New(errors.ErrCodeNetwork, "connection refused"), 1, "Error: connection refused (NETWORK_ERROR)"},
		{"plain", fmt.Errorf("boom"), 1, "Error: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if got := exitCode(&buf, tt.err); got != tt.code {
				t.Errorf("exitCode = %d, want %d", got, tt.code)
			}
			if got := strings.TrimSpace(buf.String()); got != tt.msg {
				t.Errorf("message = %q, want %q", got, tt.msg)
			}
		})
	}
}
