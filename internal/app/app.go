// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"cellid/internal/merge"
	"cellid/internal/writers"
)

// Exit codes.
const (
	ExitOK        = 0
	ExitUsage     = 2
	ExitRuntime   = 3
	ExitCancelled = 130
)

// Run executes one cellid invocation and returns its exit code.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

// RunContext is Run with cancellation.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)

	st := &state{stdout: outw, stderr: stderr}
	root := newRootCmd(st)
	root.SetArgs(argv)
	root.SetOut(outw)
	root.SetErr(stderr)

	err := root.ExecuteContext(parent)
	if st.log != nil {
		_ = st.log.Sync()
	}
	if st.metrics != nil && st.cfg.MetricsFile != "" {
		if mErr := st.metrics.WriteTextfile(st.cfg.MetricsFile); mErr != nil {
			_, _ = fmt.Fprintf(stderr, "failed to write metrics: %v\n", mErr)
		}
	}
	if fErr := outw.Flush(); fErr != nil && !writers.IsBrokenPipe(fErr) && err == nil {
		err = fErr
	}
	return exitCode(parent, st, err, stderr)
}

func exitCode(ctx context.Context, st *state, err error, stderr io.Writer) int {
	if err == nil || writers.IsBrokenPipe(err) {
		return ExitOK
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		_, _ = fmt.Fprintln(stderr, "cancelled")
		return ExitCancelled
	}
	_, _ = fmt.Fprintln(stderr, "error:", err)
	switch {
	case !st.started:
		_, _ = fmt.Fprintln(stderr, "run 'cellid --help' for usage")
		return ExitUsage
	case errors.Is(err, merge.ErrPathNotFound):
		return ExitUsage
	}
	return ExitRuntime
}
