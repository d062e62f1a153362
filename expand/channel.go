// Package expand lets a running task declare subtasks to the farm.
//
// The task writes records to a channel the wrapper handed over to it,
// and the wrapper forwards them to the farm.
package expand

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/imagvfx/cook"
)

// Channel writes subtask records.
// It is safe for concurrent use. Each record is written with one Write call.
type Channel struct {
	mu     sync.Mutex
	w      io.Writer
	closed bool
	logger *slog.Logger
}

// NewChannel creates a channel writing to w.
func NewChannel(w io.Writer) *Channel {
	return &Channel{w: w, logger: slog.Default()}
}

// Open opens the channel the wrapper handed over through the environment.
// It can be called more than once. Every returned Channel writes to its own
// duplicate of the descriptor, and should be closed by the caller.
// It returns a *cook.ConfigError wrapping cook.ErrNoChannel,
// when the process wasn't started by the wrapper.
func Open() (*Channel, error) {
	v, ok := os.LookupEnv(cook.EnvSubtaskFD)
	if !ok || v == "" {
		return nil, &cook.ConfigError{Op: "open expansion channel", Err: cook.ErrNoChannel}
	}
	fd, err := strconv.Atoi(v)
	if err != nil || fd < 0 {
		return nil, &cook.ConfigError{Op: "open expansion channel", Err: fmt.Errorf("invalid %s: %q", cook.EnvSubtaskFD, v)}
	}
	// Each channel owns a duplicate, so closing one doesn't close the others.
	dup, err := unix.FcntlInt(uintptr(fd), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open expansion channel: fd %d: %w", fd, err)
	}
	f := os.NewFile(uintptr(dup), "expansion-channel")
	return NewChannel(f), nil
}

// SetLogger sets a logger for the channel's diagnostics.
func (c *Channel) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	c.logger = l
}

// Declare declares a subtask.
func (c *Channel) Declare(r Record) error {
	line, err := r.Encode()
	if err != nil {
		return fmt.Errorf("declare %v: %w", r.Title, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("declare %v: channel closed", r.Title)
	}
	_, err = io.WriteString(c.w, line+"\n")
	if err != nil {
		return fmt.Errorf("declare %v: %w", r.Title, err)
	}
	c.logger.Info("subtask declared", "title", r.Title)
	return nil
}

// DeclareChunks declares a subtask per chunk of the spec.
// It returns number of declared subtasks.
func (c *Channel) DeclareChunks(spec ChunkSpec) (int, error) {
	n := 0
	for _, r := range spec.Records() {
		err := c.Declare(r)
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Close closes the channel.
// The underlying writer is closed, if it is an io.Closer.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if cl, ok := c.w.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
