package facts

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// MountTable returns every mount, including virtual filesystems.
func (h *HostSource) MountTable(ctx context.Context) ([]Mount, error) {
	ctx = h.hostContext(ctx)
	parts, err := h.partitions(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("read mount table: %w: %w", ErrUnavailable, err)
	}

	mounts := make([]Mount, 0, len(parts))
	for _, p := range parts {
		if p.Mountpoint == "" {
			continue
		}
		mounts = append(mounts, Mount{
			Device:     p.Device,
			Mountpoint: p.Mountpoint,
			FSType:     p.Fstype,
			Options:    p.Opts,
		})
	}
	return mounts, nil
}

// DiskUsage statfs's each physical partition. Partitions that cannot be
// read are skipped.
func (h *HostSource) DiskUsage(ctx context.Context) ([]Usage, error) {
	ctx = h.hostContext(ctx)
	parts, err := h.partitions(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("read partitions: %w: %w", ErrUnavailable, err)
	}

	seen := make(map[string]bool)
	var usages []Usage
	for _, p := range parts {
		if seen[p.Mountpoint] {
			continue
		}
		seen[p.Mountpoint] = true

		u, err := h.usage(ctx, p.Mountpoint)
		if err != nil {
			h.logger.Debug("skipping unreadable filesystem",
				zap.String("mountpoint", p.Mountpoint), zap.Error(err))
			continue
		}
		total := u.Used + u.Free
		if total == 0 {
			continue
		}
		usages = append(usages, Usage{
			Mountpoint:  p.Mountpoint,
			PercentUsed: int((u.Used*100 + total - 1) / total),
		})
	}
	return usages, nil
}

// IdleUtilization is the UtilizationPercent of a device that serviced no
// requests during the sample. IoActivity rounds to two decimals, so busy
// time below 0.005% of the interval also reads as idle.
const IdleUtilization = 0.0

// IoActivity takes two I/O counter samples one interval apart and reports
// the share of wall time each device spent servicing requests. Only mounts
// backed by a /dev node are sampled.
func (h *HostSource) IoActivity(ctx context.Context, mounts []Mount) ([]IoSample, error) {
	byDevice := make(map[string]string)
	var names []string
	for _, m := range mounts {
		if !strings.HasPrefix(m.Device, "/dev/") {
			continue
		}
		name := kernelName(m.Device)
		if _, ok := byDevice[name]; ok {
			continue
		}
		byDevice[name] = m.Mountpoint
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, nil
	}
	sort.Strings(names)

	ctx = h.hostContext(ctx)
	first, err := h.ioCounters(ctx)
	if err != nil {
		return nil, fmt.Errorf("read io counters: %w: %w", ErrUnavailable, err)
	}
	start := h.now()
	if err := h.sleep(ctx, h.sampleInterval); err != nil {
		return nil, err
	}
	second, err := h.ioCounters(ctx)
	if err != nil {
		return nil, fmt.Errorf("read io counters: %w: %w", ErrUnavailable, err)
	}
	elapsedMs := float64(h.now().Sub(start).Milliseconds())
	if elapsedMs <= 0 {
		elapsedMs = float64(h.sampleInterval.Milliseconds())
	}

	samples := make([]IoSample, 0, len(names))
	for _, name := range names {
		a, okA := first[name]
		b, okB := second[name]
		if !okA || !okB || b.IoTime < a.IoTime {
			continue
		}
		util := float64(b.IoTime-a.IoTime) / elapsedMs * 100
		util = math.Min(math.Round(util*100)/100, 100)
		samples = append(samples, IoSample{
			Device:             name,
			Mountpoint:         byDevice[name],
			UtilizationPercent: util,
		})
	}
	return samples, nil
}

// kernelName maps a device path to the name used in /proc/diskstats,
// resolving symlinks such as /dev/mapper/* or /dev/disk/by-uuid/*.
func kernelName(device string) string {
	if resolved, err := filepath.EvalSymlinks(device); err == nil {
		device = resolved
	}
	return filepath.Base(device)
}
