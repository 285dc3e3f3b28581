// Package shelltest provides a scripted shell.Runner for tests.
package shelltest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jamesprial/hostwatch/internal/shell"
)

// ErrNotFound mimics exec.ErrNotFound for commands missing from Fake.Installed.
var ErrNotFound = errors.New("executable file not found in $PATH")

// Result is the canned response for one command line.
type Result struct {
	Out []byte
	Err error
}

// Fake is a shell.Runner whose installed commands and outputs are scripted.
// Responses are keyed by the full command line joined with single spaces.
type Fake struct {
	Installed map[string]bool
	Results   map[string]Result

	mu    sync.Mutex
	calls []string
}

var _ shell.Runner = (*Fake)(nil)

// LookPath succeeds for commands marked as installed.
func (f *Fake) LookPath(file string) (string, error) {
	if f.Installed[file] {
		return "/usr/bin/" + file, nil
	}
	return "", fmt.Errorf("exec: %q: %w", file, ErrNotFound)
}

// Output returns the scripted result for the command line, recording the call.
func (f *Fake) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	line := strings.Join(append([]string{name}, args...), " ")

	f.mu.Lock()
	f.calls = append(f.calls, line)
	f.mu.Unlock()

	r, ok := f.Results[line]
	if !ok {
		return nil, fmt.Errorf("shelltest: no result scripted for %q", line)
	}
	return r.Out, r.Err
}

// Calls returns every command line executed so far.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}
