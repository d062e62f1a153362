// Package wrapper runs a worker that declares subtasks at runtime.
//
// The worker writes subtask records to a pipe the wrapper gives it,
// and the wrapper forwards the records to its own stdout where the farm reads them.
// The worker's ordinary output goes to the wrapper's stderr instead.
package wrapper

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/imagvfx/cook"
)

// channelFD is the worker's file descriptor of the expansion channel.
// os/exec gives ExtraFiles[0] the number 3.
const channelFD = 3

// ChannelError is an error reading or forwarding the expansion channel.
type ChannelError struct {
	Op  string
	Err error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("expansion channel: %s: %v", e.Op, e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }

// Runner runs a worker and forwards its subtask records.
type Runner struct {
	// Stdout receives the forwarded records.
	Stdout io.Writer

	// Stderr receives the worker's stdout and stderr.
	Stderr io.Writer

	// Env is the worker's environment. Nil means the wrapper's environment.
	Env []string

	// Header is written to Stdout before the worker starts, if not empty.
	Header string

	// WaitDelay bounds waiting for the worker's output and the channel
	// after it exited, when its descendants still hold them open.
	// Then the descendants are killed. Zero means no limit.
	WaitDelay time.Duration

	Logger *slog.Logger
}

type flusher interface {
	Flush() error
}

// Run runs the worker and waits until it exits and the channel is drained.
// Every complete line the worker wrote to the channel is forwarded in order
// before Run returns.
//
// Run returns an error only when the worker couldn't run, or the channel failed.
// Then the worker's process group is killed, and the worker reaped before Run returns.
// A worker exited with a failure isn't an error; check the Status.
func (r *Runner) Run(ctx context.Context, argv []string) (Status, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(argv) == 0 || argv[0] == "" {
		return Status{Code: -1}, fmt.Errorf("run: empty command")
	}
	stdout := r.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := r.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	env := r.Env
	if env == nil {
		env = os.Environ()
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return Status{Code: -1}, &ChannelError{Op: "open", Err: err}
	}
	defer pr.Close()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = stderr
	cmd.Stderr = stderr
	cmd.ExtraFiles = []*os.File{pw}
	cmd.Env = append(env[:len(env):len(env)], fmt.Sprintf("%s=%d", cook.EnvSubtaskFD, channelFD))
	cmd.WaitDelay = r.WaitDelay
	// The worker leads its own process group, so its descendants
	// holding the channel are killed with it.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return killGroup(cmd.Process)
	}

	if r.Header != "" {
		err := writeLine(stdout, r.Header+"\n")
		if err != nil {
			pw.Close()
			return Status{Code: -1}, &ChannelError{Op: "write header", Err: err}
		}
	}
	logger.Info("start worker", "cmd", argv)
	err = cmd.Start()
	// The worker has its own copy. Keeping ours blocks the reader forever.
	pw.Close()
	if err != nil {
		return Status{Code: -1}, fmt.Errorf("run %v: %w", argv[0], err)
	}

	var waitErr error
	g := errgroup.Group{}
	g.Go(func() error {
		waitErr = cmd.Wait()
		if ctx.Err() != nil {
			killGroup(cmd.Process)
		}
		if r.WaitDelay > 0 {
			// Descendants left behind may hold the channel open.
			pr.SetReadDeadline(time.Now().Add(r.WaitDelay))
		}
		return nil
	})
	g.Go(func() error {
		n, err := forward(pr, stdout, logger)
		logger.Debug("channel drained", "records", n)
		if errors.Is(err, os.ErrDeadlineExceeded) {
			logger.Warn("channel still open after the worker exited, kill its process group")
			killGroup(cmd.Process)
			return nil
		}
		if err != nil {
			logger.Error("kill worker", "err", err)
			killGroup(cmd.Process)
			return err
		}
		return nil
	})
	err = g.Wait()
	status := statusOf(cmd.ProcessState)
	if err != nil {
		return status, err
	}
	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
	case errors.As(waitErr, &exitErr):
	case errors.Is(waitErr, exec.ErrWaitDelay):
		logger.Warn("worker output still open after it exited", "wait_delay", r.WaitDelay)
	default:
		return status, fmt.Errorf("wait %v: %w", argv[0], waitErr)
	}
	logger.Info("worker exited", "status", status.String())
	return status, nil
}

// killGroup kills the process group p leads.
// Killing a group that has already gone is not an error.
func killGroup(p *os.Process) error {
	if p == nil {
		return nil
	}
	err := unix.Kill(-p.Pid, unix.SIGKILL)
	if err != nil && err != unix.ESRCH {
		return err
	}
	return nil
}

// forward copies complete lines from the channel to w, until the channel is closed.
// A trailing line without a newline is an unfinished record, and is dropped.
func forward(ch io.Reader, w io.Writer, logger *slog.Logger) (int, error) {
	br := bufio.NewReader(ch)
	n := 0
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			if line != "" {
				logger.Warn("incomplete record dropped", "line", line)
			}
			if err == io.EOF {
				return n, nil
			}
			return n, &ChannelError{Op: "read", Err: err}
		}
		err = writeLine(w, line)
		if err != nil {
			return n, &ChannelError{Op: "forward", Err: err}
		}
		n++
	}
}

// writeLine writes a line with a single Write call, and flushes w if it can.
func writeLine(w io.Writer, line string) error {
	_, err := io.WriteString(w, line)
	if err != nil {
		return err
	}
	if f, ok := w.(flusher); ok {
		return f.Flush()
	}
	return nil
}
