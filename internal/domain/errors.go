package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no remote archive matches a source.
	ErrNotFound = errors.New("no archive found")

	// ErrToolNotFound is matched by a ToolError whose program is missing from PATH.
	ErrToolNotFound = errors.New("tool not found")
)

// ToolError reports a failed external program: either it could not be
// located or it exited with a non-zero status.
type ToolError struct {
	Tool     string
	ExitCode int
	NotFound bool
	Err      error
}

func (e *ToolError) Error() string {
	if e.NotFound {
		return fmt.Sprintf("%s: not found on PATH", e.Tool)
	}
	if e.Err != nil && e.ExitCode < 0 {
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
}

func (e *ToolError) Unwrap() error { return e.Err }

func (e *ToolError) Is(target error) bool {
	return target == ErrToolNotFound && e.NotFound
}

// StoreError reports a failed object store call. StatusCode and Body are
// filled when the store produced an HTTP response.
type StoreError struct {
	Op         string
	Key        string
	StatusCode int
	Body       string
	Err        error
}

func (e *StoreError) Error() string {
	msg := "store " + e.Op
	if e.Key != "" {
		msg += " " + e.Key
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error { return e.Err }

// FilesystemError reports a local path that could not be created, opened or
// removed. Op defaults to "remove".
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	op := e.Op
	if op == "" {
		op = "remove"
	}
	return fmt.Sprintf("%s %s: %v", op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// FaultError carries a panic intercepted while a pipeline step was running.
type FaultError struct {
	Step  string
	Value any
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("fault during %s: %v", e.Step, e.Value)
}

func (e *FaultError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
