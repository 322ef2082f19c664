// Command spatialbench generates spatial-reasoning datasets and benchmarks
// vision-language models on them.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/spatialbench/internal/cli"
	"github.com/matzehuels/spatialbench/pkg/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.New(os.Stderr, cli.LogInfo).RootCommand().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(os.Stderr, err))
}

// exitCode reports err on w and maps it to a process exit status:
// 0 on success, 130 after an interrupt, 2 for bad input, 1 otherwise.
func exitCode(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	if stderrors.Is(err, context.Canceled) {
		return 130
	}
	code := errors.GetCode(err)
	if code == "" {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(w, "Error: %s (%s)\n", errors.UserMessage(err), code)
	if code.IsInput() {
		return 2
	}
	return 1
}
