package wrapper

import (
	"fmt"
	"os"
	"syscall"
)

// NoRetryCode is the exit code of a worker which called exit(-1),
// to make the farm fail the task without retrying it.
const NoRetryCode = 255

// NoRetryMarker is written to the wrapper's stdout before it exits with NoRetryCode,
// for the farm that cannot see a negative exit code.
const NoRetryMarker = "TR_EXIT_STATUS -1"

// Status is how a worker exited.
type Status struct {
	// Code is the worker's exit code. It is -1 when the worker was killed by a signal.
	Code int

	// Signal is the signal killed the worker.
	Signal syscall.Signal
}

// Success reports whether the worker exited with 0.
func (s Status) Success() bool {
	return s.Code == 0 && s.Signal == 0
}

// NoRetry reports whether the worker asked the farm not to retry.
func (s Status) NoRetry() bool {
	return s.Signal == 0 && s.Code == NoRetryCode
}

// ExitCode returns the exit code the wrapper should exit with.
// A worker killed by a signal maps to 128 + the signal number, as shells do.
func (s Status) ExitCode() int {
	if s.Signal != 0 {
		return 128 + int(s.Signal)
	}
	if s.Code < 0 {
		return 1
	}
	return s.Code
}

func (s Status) String() string {
	if s.Signal != 0 {
		return fmt.Sprintf("killed by signal %d (%v)", int(s.Signal), s.Signal)
	}
	if s.NoRetry() {
		return "failed without retry"
	}
	return fmt.Sprintf("exit %d", s.Code)
}

// statusOf converts a process state to Status.
func statusOf(ps *os.ProcessState) Status {
	if ps == nil {
		return Status{Code: -1}
	}
	ws, ok := ps.Sys().(syscall.WaitStatus)
	if ok && ws.Signaled() {
		return Status{Code: -1, Signal: ws.Signal()}
	}
	return Status{Code: ps.ExitCode()}
}
