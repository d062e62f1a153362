package wrapper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagvfx/cook/alfred"
)

func sh(script string) []string {
	return []string{"/bin/sh", "-c", script}
}

func newRunner() (*Runner, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	r := &Runner{Stdout: stdout, Stderr: stderr, Env: []string{"PATH=/usr/bin:/bin"}}
	return r, stdout, stderr
}

func TestRunForwards(t *testing.T) {
	r, stdout, stderr := newRunner()
	r.Header = alfred.Header
	status, err := r.Run(context.Background(), sh(`echo "Task -title {a}" >&3; echo hello; echo "Task -title {b}" >&3`))
	require.NoError(t, err)
	assert.True(t, status.Success())
	assert.Equal(t, alfred.Header+"\nTask -title {a}\nTask -title {b}\n", stdout.String())
	assert.Equal(t, "hello\n", stderr.String())
}

func TestRunForwardsAllLines(t *testing.T) {
	r, stdout, _ := newRunner()
	n := 2000
	status, err := r.Run(context.Background(), sh(fmt.Sprintf(`i=0; while [ $i -lt %d ]; do echo "line $i" >&3; i=$((i+1)); done; exit 0`, n)))
	require.NoError(t, err)
	assert.Equal(t, 0, status.ExitCode())
	lines := strings.Split(strings.TrimSuffix(stdout.String(), "\n"), "\n")
	require.Len(t, lines, n)
	for i, l := range lines {
		require.Equal(t, fmt.Sprintf("line %d", i), l)
	}
}

func TestRunChannelEnv(t *testing.T) {
	r, stdout, _ := newRunner()
	_, err := r.Run(context.Background(), sh(`echo "$COOK_SUBTASK_FD" >&3`))
	require.NoError(t, err)
	assert.Equal(t, "3\n", stdout.String())
}

func TestRunDropsPartialLine(t *testing.T) {
	r, stdout, _ := newRunner()
	status, err := r.Run(context.Background(), sh(`printf 'Task -title {a}\nTask -title {b' >&3`))
	require.NoError(t, err)
	assert.True(t, status.Success())
	assert.Equal(t, "Task -title {a}\n", stdout.String())
}

func TestRunNoSubtask(t *testing.T) {
	r, stdout, _ := newRunner()
	status, err := r.Run(context.Background(), sh(`true`))
	require.NoError(t, err)
	assert.True(t, status.Success())
	assert.Empty(t, stdout.String())
}

func TestRunExitStatus(t *testing.T) {
	cases := []struct {
		script  string
		code    int
		noRetry bool
	}{
		{"exit 0", 0, false},
		{"exit 1", 1, false},
		{"exit 3", 3, false},
		{"exit 255", 255, true},
		{"kill -TERM $$", 128 + int(syscall.SIGTERM), false},
	}
	for _, c := range cases {
		r, _, _ := newRunner()
		status, err := r.Run(context.Background(), sh(c.script))
		require.NoError(t, err, c.script)
		assert.Equal(t, c.code, status.ExitCode(), c.script)
		assert.Equal(t, c.noRetry, status.NoRetry(), c.script)
	}
}

func TestRunCanceled(t *testing.T) {
	r, stdout, _ := newRunner()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	status, _ := r.Run(ctx, sh(`echo "Task -title {a}" >&3; exec sleep 10`))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.False(t, status.Success())
	assert.Equal(t, syscall.SIGKILL, status.Signal)
	assert.Equal(t, "Task -title {a}\n", stdout.String())
}

func TestRunCanceledWithDescendant(t *testing.T) {
	r, stdout, _ := newRunner()
	r.WaitDelay = 100 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	// sleep doesn't replace the shell, and holds the channel by itself.
	status, _ := r.Run(ctx, sh(`echo "Task -title {a}" >&3; sleep 10; true`))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, syscall.SIGKILL, status.Signal)
	assert.Equal(t, "Task -title {a}\n", stdout.String())
}

func TestRunLeftoverDescendant(t *testing.T) {
	r, stdout, _ := newRunner()
	r.WaitDelay = 100 * time.Millisecond
	start := time.Now()
	status, err := r.Run(context.Background(), sh(`echo "Task -title {a}" >&3; sleep 10 & exit 0`))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, status.Success(), status.String())
	assert.Equal(t, "Task -title {a}\n", stdout.String())
}

func TestRunForwardFailureWithDescendant(t *testing.T) {
	r, _, _ := newRunner()
	r.Stdout = failWriter{}
	start := time.Now()
	_, err := r.Run(context.Background(), sh(`echo "Task -title {a}" >&3; sleep 10; true`))
	var cerr *ChannelError
	require.True(t, errors.As(err, &cerr), "got %v", err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken stdout")
}

func TestRunForwardFailure(t *testing.T) {
	r, _, _ := newRunner()
	r.Stdout = failWriter{}
	start := time.Now()
	status, err := r.Run(context.Background(), sh(`echo "Task -title {a}" >&3; exec sleep 10`))
	var cerr *ChannelError
	require.True(t, errors.As(err, &cerr), "got %v", err)
	assert.Equal(t, "forward", cerr.Op)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.False(t, status.Success())
}

func TestRunNotFound(t *testing.T) {
	r, _, _ := newRunner()
	_, err := r.Run(context.Background(), []string{"/nonexistent/worker"})
	require.Error(t, err)
	_, err = r.Run(context.Background(), nil)
	require.Error(t, err)
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "exit 2", Status{Code: 2}.String())
	assert.Equal(t, "failed without retry", Status{Code: NoRetryCode}.String())
	assert.Equal(t, 137, Status{Code: -1, Signal: syscall.SIGKILL}.ExitCode())
	assert.Equal(t, "killed by signal 9 (killed)", Status{Code: -1, Signal: syscall.SIGKILL}.String())
	assert.Equal(t, "killed by signal 15 (terminated)", Status{Code: -1, Signal: syscall.SIGTERM}.String())
	assert.Equal(t, 1, Status{Code: -1}.ExitCode())
}
