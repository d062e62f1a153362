// Command cookwrap runs a worker command of an expanding task.
//
// The worker gets a channel on the file descriptor in $COOK_SUBTASK_FD,
// and the subtask records it writes there are forwarded to stdout
// for the farm to expand the task with.
// Everything the worker prints goes to stderr.
//
// Usage:
//
//	cookwrap [-v] [-wait-delay d] -- command [args...]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imagvfx/cook/alfred"
	"github.com/imagvfx/cook/wrapper"
)

func main() {
	var (
		verbose   bool
		noHeader  bool
		waitDelay time.Duration
	)
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.BoolVar(&noHeader, "no-header", false, "don't write the script header before records")
	flag.DurationVar(&waitDelay, "wait-delay", 10*time.Second, "how long to wait for the worker's output after it exited")
	flag.Parse()

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	argv := flag.Args()
	if len(argv) == 0 {
		fmt.Fprintln(os.Stderr, "cookwrap: need a command to run")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r := &wrapper.Runner{
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Header:    alfred.Header,
		WaitDelay: waitDelay,
		Logger:    logger,
	}
	if noHeader {
		r.Header = ""
	}
	st, err := r.Run(ctx, argv)
	if err != nil {
		var cerr *wrapper.ChannelError
		if errors.As(err, &cerr) {
			logger.Error("subtask channel failed", "op", cerr.Op, "err", cerr.Err)
		} else {
			logger.Error("cannot run worker", "err", err)
		}
		os.Exit(1)
	}
	logger.Debug("worker exited", "status", st.String())
	if st.NoRetry() {
		// The farm doesn't retry a task when it sees the marker.
		fmt.Println(wrapper.NoRetryMarker)
		os.Exit(wrapper.NoRetryCode)
	}
	os.Exit(st.ExitCode())
}
