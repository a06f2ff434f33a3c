// Package engine runs the external ffmpeg and ffprobe binaries.
package engine

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"
)

// CommandRunner executes a command and returns its stdout and stderr (enables mocking in tests)
type CommandRunner interface {
	Run(ctx context.Context, cmd string, args ...string) (stdout, stderr []byte, err error)
}

// StreamingRunner is a CommandRunner that can also hand stdout to a callback line by line.
// Used for ffmpeg's -progress pipe:1 output.
type StreamingRunner interface {
	CommandRunner
	RunStreaming(ctx context.Context, onLine func(string), cmd string, args ...string) (stderr []byte, err error)
}

// ExecRunner implements StreamingRunner using os/exec
type ExecRunner struct{}

// Run executes a command using os/exec
func (ExecRunner) Run(ctx context.Context, cmd string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, cmd, args...)
	command.Stdout = &stdout
	command.Stderr = &stderr
	err := command.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// RunStreaming executes a command, feeding each stdout line to onLine as it arrives
func (ExecRunner) RunStreaming(ctx context.Context, onLine func(string), cmd string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	command := exec.CommandContext(ctx, cmd, args...)
	command.Stderr = &stderr

	stdout, err := command.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := command.Start(); err != nil {
		return stderr.Bytes(), err
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		onLine(scanner.Text())
	}
	// Drain anything left so the process never blocks on a full pipe
	_, _ = io.Copy(io.Discard, stdout)

	err = command.Wait()
	return stderr.Bytes(), err
}
