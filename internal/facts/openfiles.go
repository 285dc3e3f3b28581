package facts

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/jamesprial/hostwatch/internal/shell"
	"go.uber.org/zap"
)

// OpenFiles lists files open beneath path using lsof's field output.
func (h *HostSource) OpenFiles(ctx context.Context, path string) ([]OpenFile, error) {
	if err := h.requireTool("lsof"); err != nil {
		return nil, err
	}

	out, err := h.runner.Output(ctx, "lsof", "-w", "-F", "pcan", "+D", path)
	if err != nil {
		// lsof exits 1 when nothing matched.
		if shell.ExitCode(err) == 1 && len(bytes.TrimSpace(out)) == 0 {
			return nil, nil
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("list open files under %s: %w", path, err)
		}
		// A partial listing is still useful.
		h.logger.Debug("lsof reported errors; using partial output",
			zap.String("path", path), zap.Error(err))
	}
	return parseLsofFields(out), nil
}

// parseLsofFields decodes lsof -F output. Each line starts with a field tag:
// p (pid) and c (command) open a process set, f (fd) opens a file set, and
// a (access) and n (name) describe the current file.
func parseLsofFields(out []byte) []OpenFile {
	var (
		files   []OpenFile
		pid     int
		command string
		mode    string
	)

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		val := line[1:]
		switch line[0] {
		case 'p':
			n, err := strconv.Atoi(val)
			if err != nil {
				pid = 0
				continue
			}
			pid, command = n, ""
		case 'c':
			command = val
		case 'f':
			mode = "unknown"
		case 'a':
			mode = accessMode(val)
		case 'n':
			if pid == 0 || val == "" {
				continue
			}
			files = append(files, OpenFile{
				Path:    val,
				Process: command,
				PID:     pid,
				Mode:    mode,
			})
		}
	}
	return files
}

func accessMode(a string) string {
	switch a {
	case "r":
		return "read"
	case "w":
		return "write"
	case "u":
		return "read/write"
	default:
		return "unknown"
	}
}
