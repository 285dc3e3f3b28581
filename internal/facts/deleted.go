package facts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const deletedSuffix = " (deleted)"

// DeletedOpenFiles scans {procPath}/*/fd/* for links to unlinked files and
// keeps those at least MinDeletedBytes in size, largest first. Processes
// that vanish or deny access mid-scan are skipped.
func (h *HostSource) DeletedOpenFiles(ctx context.Context) ([]DeletedFile, error) {
	entries, err := os.ReadDir(h.procPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", h.procPath, ErrUnavailable, err)
	}

	var results []DeletedFile
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil || pid <= 0 {
			continue
		}

		fdDir := filepath.Join(h.procPath, entry.Name(), "fd")
		fdEntries, err := os.ReadDir(fdDir)
		if err != nil {
			continue
		}

		comm := ""
		for _, fdEntry := range fdEntries {
			linkPath := filepath.Join(fdDir, fdEntry.Name())
			target, err := os.Readlink(linkPath)
			if err != nil || !strings.HasSuffix(target, deletedSuffix) {
				continue
			}
			info, err := os.Stat(linkPath)
			if err != nil || !info.Mode().IsRegular() || info.Size() < h.minDeletedBytes {
				continue
			}
			if comm == "" {
				comm = h.readComm(entry.Name())
			}
			results = append(results, DeletedFile{
				Path:      strings.TrimSuffix(target, deletedSuffix),
				Process:   comm,
				PID:       pid,
				SizeBytes: info.Size(),
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SizeBytes > results[j].SizeBytes
	})
	return results, nil
}

func (h *HostSource) readComm(pid string) string {
	data, err := os.ReadFile(filepath.Join(h.procPath, pid, "comm"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
