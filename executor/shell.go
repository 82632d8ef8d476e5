// Package executor runs external commands for execute-mode modifiers.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/shibukawa/csvsed/modifier"
)

// DefaultShell is the argv prefix used when Shell.Argv is empty.
var DefaultShell = []string{"/bin/sh", "-c"}

const (
	maxStderr = 4 << 10
	// waitDelay bounds how long output pipes stay open after the shell is
	// killed, since grandchildren may still hold them.
	waitDelay = 500 * time.Millisecond
)

// Environment variables exported to every command.
const (
	EnvRow    = "CSVSED_ROW"
	EnvColumn = "CSVSED_COLUMN"
)

// Shell runs each command through a shell, one process per call.
type Shell struct {
	// Argv is the shell invocation; the command is appended as the last argument.
	Argv []string
	// Timeout bounds a single command. Zero means no limit.
	Timeout time.Duration
	// Limiter throttles process spawns. Nil means unlimited.
	Limiter *rate.Limiter
	// Env is added to the inherited environment.
	Env []string
}

var _ modifier.Executor = (*Shell)(nil)

// NewShell builds a Shell. ratePerSecond <= 0 disables spawn throttling.
func NewShell(argv []string, timeout time.Duration, ratePerSecond float64) *Shell {
	s := &Shell{Argv: argv, Timeout: timeout}
	if ratePerSecond > 0 {
		s.Limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}
	return s
}

// Execute runs command with input on stdin and returns its stdout.
func (s *Shell) Execute(ctx context.Context, command string, input string) (string, error) {
	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	runCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	argv := s.Argv
	if len(argv) == 0 {
		argv = DefaultShell
	}
	args := append(append([]string{}, argv[1:]...), command)

	cmd := exec.CommandContext(runCtx, argv[0], args...)
	cmd.WaitDelay = waitDelay
	cmd.Stdin = strings.NewReader(input)
	var stdout bytes.Buffer
	stderr := &boundedBuffer{limit: maxStderr}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr
	cmd.Env = append(append(os.Environ(), s.Env...), cellEnv(ctx)...)

	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("timed out after %s: %w", s.Timeout, context.DeadlineExceeded)
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return "", fmt.Errorf("%w: %s", err, msg)
	}
	return "", err
}

func cellEnv(ctx context.Context) []string {
	cell, ok := modifier.CellFrom(ctx)
	if !ok {
		return nil
	}
	return []string{
		EnvRow + "=" + strconv.Itoa(cell.Row),
		EnvColumn + "=" + cell.Column,
	}
}

// boundedBuffer keeps the first limit bytes written to it and drops the rest.
type boundedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room < len(p) {
		b.truncated = true
		if room > 0 {
			b.buf.Write(p[:room])
		}
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *boundedBuffer) String() string {
	if b.truncated {
		return b.buf.String() + "..."
	}
	return b.buf.String()
}
