// Package toolrunner runs external programs and streams their output to a logger.
package toolrunner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
)

const maxLineSize = 1024 * 1024

type Logger interface {
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// Command describes one invocation. Dir is the working directory; empty
// means the current process directory.
type Command struct {
	Name string
	Args []string
	Dir  string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

type Runner struct {
	logger Logger
}

func New(logger Logger) *Runner {
	return &Runner{logger: logger}
}

// Run starts the command and blocks until it exits. Every stdout line is
// logged at info level and every stderr line at error level as it arrives.
// A missing program or a non-zero exit status is returned as *domain.ToolError.
func (r *Runner) Run(ctx context.Context, c Command) error {
	if _, err := exec.LookPath(c.Name); err != nil {
		return &domain.ToolError{Tool: c.Name, ExitCode: -1, NotFound: true, Err: err}
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return &domain.ToolError{Tool: c.Name, ExitCode: -1, NotFound: true, Err: err}
		}
		return &domain.ToolError{Tool: c.Name, ExitCode: -1, Err: err}
	}

	var g errgroup.Group
	g.Go(func() error { return r.stream(stdout, r.logger.Infof) })
	g.Go(func() error { return r.stream(stderr, r.logger.Errorf) })
	streamErr := g.Wait()

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &domain.ToolError{Tool: c.Name, ExitCode: exitErr.ExitCode(), Err: err}
		}
		return &domain.ToolError{Tool: c.Name, ExitCode: -1, Err: err}
	}

	if streamErr != nil {
		r.logger.Warnf("[%s] output stream: %v", c.Name, streamErr)
	}

	return nil
}

// LookPath reports whether name resolves to an executable.
func LookPath(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return &domain.ToolError{Tool: name, ExitCode: -1, NotFound: true, Err: err}
	}
	return nil
}

func (r *Runner) stream(rd io.Reader, logf func(string, ...interface{})) error {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		logf("%s", line)
	}

	if err := scanner.Err(); err != nil {
		// keep draining so the child never blocks on a full pipe
		_, _ = io.Copy(io.Discard, rd)
		return err
	}
	return nil
}
