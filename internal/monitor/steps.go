package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jamesprial/hostwatch/internal/check"
	"github.com/jamesprial/hostwatch/internal/facts"
)

func (r *Runner) steps() []step {
	return []step{
		{StepIdlePartitions, r.idlePartitions},
		{StepLowDiskSpace, r.lowDiskSpace},
		{StepExternalDrives, r.externalDrives},
		{StepNetworkShares, r.networkShares},
		{StepWorldWritableFiles, r.worldWritableFiles},
		{StepInsecureMountOptions, r.insecureMountOptions},
		{StepUptime, r.uptime},
		{StepTemperature, r.temperature},
		{StepEditingOnExternal, r.editingOnExternal},
		{StepLargeDeletedOpenFiles, r.largeDeletedOpenFiles},
		{StepFsCorruption, r.fsCorruption},
	}
}

func (r *Runner) idlePartitions(ctx context.Context) ([]check.Finding, error) {
	mounts, err := r.mountTable(ctx)
	if err != nil {
		return nil, err
	}
	samples, err := r.src.IoActivity(ctx, mounts)
	if err != nil {
		return nil, err
	}
	return check.IdlePartitions(mounts, samples), nil
}

func (r *Runner) lowDiskSpace(ctx context.Context) ([]check.Finding, error) {
	usages, err := r.src.DiskUsage(ctx)
	if err != nil {
		return nil, err
	}
	var kept []facts.Usage
	for _, u := range usages {
		if r.mounts.Allows(u.Mountpoint) {
			kept = append(kept, u)
		}
	}
	return check.LowDiskSpace(kept, r.thresholds), nil
}

func (r *Runner) externalDrives(ctx context.Context) ([]check.Finding, error) {
	devices, err := r.src.BlockDevices(ctx)
	if err != nil {
		return nil, err
	}
	var kept []facts.BlockDevice
	for _, d := range devices {
		if d.Mountpoint == "" || r.mounts.Allows(d.Mountpoint) {
			kept = append(kept, d)
		}
	}
	return check.ExternalDrives(kept), nil
}

func (r *Runner) networkShares(ctx context.Context) ([]check.Finding, error) {
	mounts, err := r.mountTable(ctx)
	if err != nil {
		return nil, err
	}
	return check.NetworkShares(mounts), nil
}

func (r *Runner) worldWritableFiles(ctx context.Context) ([]check.Finding, error) {
	mounts, err := r.externalMounts(ctx)
	if err != nil {
		return nil, err
	}
	var files []facts.WritableFile
	for _, m := range mounts {
		found, err := r.src.WorldWritable(ctx, m.Mountpoint)
		if err != nil {
			if errors.Is(err, facts.ErrUnavailable) {
				return nil, err
			}
			// One unreadable mount does not hide the others.
			r.append(fmt.Sprintf("skipped %s on %s: %v", StepWorldWritableFiles, m.Mountpoint, err))
			continue
		}
		files = append(files, found...)
	}
	return check.WorldWritableFiles(files), nil
}

func (r *Runner) insecureMountOptions(ctx context.Context) ([]check.Finding, error) {
	mounts, err := r.mountTable(ctx)
	if err != nil {
		return nil, err
	}
	return check.InsecureMountOptions(mounts), nil
}

func (r *Runner) uptime(ctx context.Context) ([]check.Finding, error) {
	up, err := r.src.Uptime(ctx)
	if err != nil {
		return nil, err
	}
	return check.UptimeExceeded(up, r.thresholds), nil
}

func (r *Runner) temperature(ctx context.Context) ([]check.Finding, error) {
	zones, err := r.src.ThermalZones(ctx)
	if err != nil {
		return nil, err
	}
	return check.TemperatureExceeded(zones, r.thresholds), nil
}

func (r *Runner) editingOnExternal(ctx context.Context) ([]check.Finding, error) {
	mounts, err := r.externalMounts(ctx)
	if err != nil {
		return nil, err
	}
	var files []facts.OpenFile
	for _, m := range mounts {
		open, err := r.src.OpenFiles(ctx, m.Mountpoint)
		if err != nil {
			if errors.Is(err, facts.ErrUnavailable) {
				return nil, err
			}
			r.append(fmt.Sprintf("skipped %s on %s: %v", StepEditingOnExternal, m.Mountpoint, err))
			continue
		}
		files = append(files, open...)
	}
	return check.EditingOnExternal(files), nil
}

func (r *Runner) largeDeletedOpenFiles(ctx context.Context) ([]check.Finding, error) {
	files, err := r.src.DeletedOpenFiles(ctx)
	if err != nil {
		return nil, err
	}
	return check.LargeDeletedOpenFiles(files), nil
}

func (r *Runner) fsCorruption(ctx context.Context) ([]check.Finding, error) {
	lines, err := r.src.SystemLog(ctx)
	if err != nil {
		return nil, err
	}
	return check.FsCorruption(lines), nil
}

// mountTable returns the mount table without ignored mountpoints.
func (r *Runner) mountTable(ctx context.Context) ([]facts.Mount, error) {
	mounts, err := r.src.MountTable(ctx)
	if err != nil {
		return nil, err
	}
	var kept []facts.Mount
	for _, m := range mounts {
		if r.mounts.Allows(m.Mountpoint) {
			kept = append(kept, m)
		}
	}
	return kept, nil
}

// externalMounts returns the mounts under /media or /mnt, each mountpoint
// once. A mount nested inside another returned mount is dropped: the walk
// and lsof +D both descend into it from the outer mountpoint.
func (r *Runner) externalMounts(ctx context.Context) ([]facts.Mount, error) {
	mounts, err := r.mountTable(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var external []facts.Mount
	for _, m := range mounts {
		if !check.IsExternalMount(m.Mountpoint) || seen[m.Mountpoint] {
			continue
		}
		seen[m.Mountpoint] = true
		external = append(external, m)
	}

	var outer []facts.Mount
	for _, m := range external {
		if !nestedInAny(m.Mountpoint, external) {
			outer = append(outer, m)
		}
	}
	return outer, nil
}

func nestedInAny(mountpoint string, mounts []facts.Mount) bool {
	for _, m := range mounts {
		if m.Mountpoint != mountpoint && strings.HasPrefix(mountpoint, m.Mountpoint+"/") {
			return true
		}
	}
	return false
}
