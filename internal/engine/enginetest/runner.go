// Package enginetest provides a scriptable engine.CommandRunner for tests.
package enginetest

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
)

// Call records one command invocation
type Call struct {
	Cmd  string
	Args []string
}

// Binary returns the base name of the invoked command, e.g. "ffprobe"
func (c Call) Binary() string {
	return filepath.Base(c.Cmd)
}

// Has reports whether any argument contains substr
func (c Call) Has(substr string) bool {
	for _, a := range c.Args {
		if strings.Contains(a, substr) {
			return true
		}
	}
	return false
}

// ArgAfter returns the argument following flag, or "" if absent
func (c Call) ArgAfter(flag string) string {
	for i, a := range c.Args {
		if a == flag && i+1 < len(c.Args) {
			return c.Args[i+1]
		}
	}
	return ""
}

// Output returns the last argument, which is the output path for ffmpeg and the input for ffprobe
func (c Call) Output() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[len(c.Args)-1]
}

// Handler scripts the response to a call
type Handler func(call Call) (stdout, stderr string, err error)

// Runner is a goroutine-safe fake implementing engine.StreamingRunner
type Runner struct {
	Handler Handler

	mu    sync.Mutex
	calls []Call
}

// New creates a Runner with the given handler
func New(h Handler) *Runner {
	return &Runner{Handler: h}
}

// Calls returns a copy of the recorded calls
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsTo returns the recorded calls for one binary
func (r *Runner) CallsTo(binary string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Binary() == binary {
			out = append(out, c)
		}
	}
	return out
}

// Run implements engine.CommandRunner
func (r *Runner) Run(ctx context.Context, cmd string, args ...string) ([]byte, []byte, error) {
	call := Call{Cmd: cmd, Args: append([]string(nil), args...)}
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if r.Handler == nil {
		return nil, nil, nil
	}
	stdout, stderr, err := r.Handler(call)
	return []byte(stdout), []byte(stderr), err
}

// RunStreaming implements engine.StreamingRunner by replaying stdout line by line
func (r *Runner) RunStreaming(ctx context.Context, onLine func(string), cmd string, args ...string) ([]byte, error) {
	stdout, stderr, err := r.Run(ctx, cmd, args...)
	for _, line := range strings.Split(string(stdout), "\n") {
		if line != "" {
			onLine(line)
		}
	}
	return stderr, err
}
