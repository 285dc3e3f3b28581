package facts

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// logSource is one command whose output is scanned for corruption messages.
type logSource struct {
	name string
	tool string
	args []string
}

var logSources = []logSource{
	{name: "journal", tool: "journalctl", args: []string{"-b", "--no-pager"}},
	{name: "kernel", tool: "dmesg", args: nil},
}

// SystemLog scans the boot journal and the kernel ring buffer for lines
// matching CorruptionPattern. Lines present in both are returned twice.
// A source that is missing or fails is skipped; the call only fails when no
// source could be read.
func (h *HostSource) SystemLog(ctx context.Context) ([]LogLine, error) {
	var (
		lines     []LogLine
		errs      []error
		readable  int
		installed int
	)

	for _, src := range logSources {
		if err := h.requireTool(src.tool); err != nil {
			continue
		}
		installed++

		out, err := h.runner.Output(ctx, src.tool, src.args...)
		if err != nil {
			h.logger.Debug("log source failed", zap.String("source", src.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", src.name, err))
			continue
		}
		readable++
		lines = append(lines, matchLines(src.name, out)...)
	}

	if installed == 0 {
		return nil, fmt.Errorf("journalctl, dmesg: %w", ErrUnavailable)
	}
	if readable == 0 {
		return nil, fmt.Errorf("read system log: %w", errors.Join(errs...))
	}
	return lines, nil
}

func matchLines(source string, out []byte) []LogLine {
	var lines []LogLine
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if CorruptionPattern.MatchString(line) {
			lines = append(lines, LogLine{Source: source, Line: line})
		}
	}
	return lines
}
