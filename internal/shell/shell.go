// Package shell runs external system utilities on behalf of collectors and
// notification channels.
package shell

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner locates and executes external commands.
type Runner interface {
	// LookPath reports the resolved path of file, or an error when the
	// command is not installed.
	LookPath(file string) (string, error)

	// Output runs name with args and returns its standard output.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Compile-time interface check.
var _ Runner = Exec{}

// Exec implements Runner with os/exec.
type Exec struct{}

// LookPath wraps exec.LookPath.
func (Exec) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Output runs the command and captures stdout. Stderr is discarded unless
// the command fails, in which case it is folded into the returned error.
func (Exec) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%s: %w: %s", name, err, trim(exitErr.Stderr))
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// ExitCode returns the process exit status carried by err, or -1 when err
// does not come from a process that exited.
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func trim(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}
