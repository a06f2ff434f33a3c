package engine

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// stderrTailLines bounds how much engine output is kept on an Error
const stderrTailLines = 20

// Error describes a failed engine invocation
type Error struct {
	Command  string // Full command line
	ExitCode int    // Process exit code, -1 if the process never exited normally
	Stderr   string // Last lines of the engine's diagnostic output
	Err      error  // Underlying error from os/exec or the context
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", commandName(e.Command), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + lastLine(e.Stderr)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// newError builds an Error from a failed run
func newError(cmd string, args []string, stderr []byte, err error) *Error {
	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	return &Error{
		Command:  strings.Join(append([]string{cmd}, args...), " "),
		ExitCode: exitCode,
		Stderr:   tail(string(stderr), stderrTailLines),
		Err:      err,
	}
}

// tail returns the last n non-empty lines of s
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

func lastLine(s string) string {
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}

func commandName(command string) string {
	if i := strings.IndexByte(command, ' '); i >= 0 {
		return command[:i]
	}
	return command
}
