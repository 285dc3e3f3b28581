package check

import (
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jamesprial/hostwatch/internal/config"
	"github.com/jamesprial/hostwatch/internal/facts"
)

const secondsPerDay = 86400

var networkFSPattern = regexp.MustCompile(`(?i)nfs|cifs|smbfs`)

// IsExternalMount reports whether mountpoint is /media, /mnt, or beneath them.
func IsExternalMount(mountpoint string) bool {
	for _, root := range []string{"/media", "/mnt"} {
		if mountpoint == root || strings.HasPrefix(mountpoint, root+"/") {
			return true
		}
	}
	return false
}

// IdlePartitions reports each device-backed mount, other than the root
// filesystem, whose device showed no I/O across the sample. A device mounted
// more than once is reported once; devices without a sample are skipped.
func IdlePartitions(mounts []facts.Mount, samples []facts.IoSample) []Finding {
	byDevice := make(map[string]facts.IoSample, len(samples))
	byMountpoint := make(map[string]facts.IoSample, len(samples))
	for _, s := range samples {
		byDevice[s.Device] = s
		byMountpoint[s.Mountpoint] = s
	}

	reported := make(map[string]bool)
	var findings []Finding
	for _, m := range mounts {
		if m.Mountpoint == "/" || !strings.HasPrefix(m.Device, "/dev/") {
			continue
		}
		// Samples are keyed by kernel name, which differs from the /dev
		// path for symlinked nodes such as /dev/mapper/*.
		s, ok := byMountpoint[m.Mountpoint]
		if !ok {
			s, ok = byDevice[path.Base(m.Device)]
		}
		// The collector rounds to two decimals, so 0 means "reads 0.00".
		if !ok || s.UtilizationPercent != facts.IdleUtilization || reported[s.Device] {
			continue
		}
		reported[s.Device] = true
		findings = append(findings, Finding{
			Category: CategoryIdlePartition,
			Subject:  m.Device,
			Detail:   fmt.Sprintf("Partition %s mounted on %s shows no I/O activity", m.Device, m.Mountpoint),
			Urgency:  UrgencyNormal,
		})
	}
	return findings
}

// LowDiskSpace reports each filesystem whose usage is strictly above the
// threshold.
func LowDiskSpace(usages []facts.Usage, th config.Thresholds) []Finding {
	var findings []Finding
	for _, u := range usages {
		if u.PercentUsed <= th.DiskSpacePercent {
			continue
		}
		findings = append(findings, Finding{
			Category: CategoryLowDiskSpace,
			Subject:  u.Mountpoint,
			Detail:   fmt.Sprintf("Low disk space on %s: %d%% used (threshold %d%%)", u.Mountpoint, u.PercentUsed, th.DiskSpacePercent),
			Urgency:  UrgencyCritical,
		})
	}
	return findings
}

// ExternalDrives reports mounted devices attached over USB.
func ExternalDrives(devices []facts.BlockDevice) []Finding {
	var findings []Finding
	for _, d := range devices {
		if d.Transport != "usb" || d.Mountpoint == "" {
			continue
		}
		findings = append(findings, Finding{
			Category: CategoryExternalDrive,
			Subject:  d.Mountpoint,
			Detail:   fmt.Sprintf("External USB drive %s is mounted on %s", d.Name, d.Mountpoint),
			Urgency:  UrgencyNormal,
		})
	}
	return findings
}

// NetworkShares reports every NFS, CIFS or SMB mount currently present.
func NetworkShares(mounts []facts.Mount) []Finding {
	var findings []Finding
	for _, m := range mounts {
		if !networkFSPattern.MatchString(m.FSType) {
			continue
		}
		findings = append(findings, Finding{
			Category: CategoryNetworkShare,
			Subject:  m.Mountpoint,
			Detail:   fmt.Sprintf("Network share %s (%s) is mounted on %s", m.Device, m.FSType, m.Mountpoint),
			Urgency:  UrgencyNormal,
		})
	}
	return findings
}

// WorldWritableFiles reports world-writable files found on external mounts.
// Records from any other mountpoint are ignored.
func WorldWritableFiles(files []facts.WritableFile) []Finding {
	var findings []Finding
	for _, f := range files {
		if !IsExternalMount(f.Mountpoint) {
			continue
		}
		findings = append(findings, Finding{
			Category: CategoryWorldWritable,
			Subject:  f.Path,
			Detail:   fmt.Sprintf("World-writable file on external drive: %s", f.Path),
			Urgency:  UrgencyNormal,
		})
	}
	return findings
}

// InsecureMountOptions reports external mounts that allow execution.
func InsecureMountOptions(mounts []facts.Mount) []Finding {
	var findings []Finding
	for _, m := range mounts {
		if !IsExternalMount(m.Mountpoint) || slices.Contains(m.Options, "noexec") {
			continue
		}
		findings = append(findings, Finding{
			Category: CategoryInsecureMount,
			Subject:  m.Mountpoint,
			Detail:   fmt.Sprintf("External mount %s (%s) is mounted without noexec", m.Mountpoint, m.Device),
			Urgency:  UrgencyNormal,
		})
	}
	return findings
}

// UptimeExceeded reports once when whole days since boot reach the threshold.
func UptimeExceeded(up facts.Uptime, th config.Thresholds) []Finding {
	days := up.Seconds / secondsPerDay
	if days < uint64(max(th.UptimeDays, 0)) {
		return nil
	}
	return []Finding{{
		Category: CategoryUptime,
		Subject:  "uptime",
		Detail:   fmt.Sprintf("System has been up for %d days (threshold %d); consider a reboot", days, th.UptimeDays),
		Urgency:  UrgencyNormal,
	}}
}

// TemperatureExceeded reports once when the hottest zone reaches the
// threshold. A host without thermal zones never reports.
func TemperatureExceeded(zones []facts.ThermalZone, th config.Thresholds) []Finding {
	if len(zones) == 0 {
		return nil
	}
	var hottest float64
	var subject string
	for i, z := range zones {
		if i == 0 || z.Celsius > hottest {
			hottest = z.Celsius
			subject = fmt.Sprintf("thermal_zone%d", z.ZoneID)
		}
	}
	if hottest < th.TempCelsius {
		return nil
	}
	return []Finding{{
		Category: CategoryTemperature,
		Subject:  subject,
		Detail:   fmt.Sprintf("Temperature is %.1f°C in %s (threshold %.1f°C)", hottest, subject, th.TempCelsius),
		Urgency:  UrgencyCritical,
	}}
}

// EditingOnExternal reports every file held open on an external mount.
func EditingOnExternal(files []facts.OpenFile) []Finding {
	var findings []Finding
	for _, f := range files {
		findings = append(findings, Finding{
			Category: CategoryEditingOnExternal,
			Subject:  f.Path,
			Detail:   fmt.Sprintf("%s is open (%s) by %s[%d] on an external drive", f.Path, f.Mode, f.Process, f.PID),
			Urgency:  UrgencyNormal,
		})
	}
	return findings
}

// LargeDeletedOpenFiles reports each deleted file whose space is still held.
// Size filtering is done by the collector.
func LargeDeletedOpenFiles(files []facts.DeletedFile) []Finding {
	var findings []Finding
	for _, f := range files {
		findings = append(findings, Finding{
			Category: CategoryLargeDeletedOpen,
			Subject:  f.Path,
			Detail: fmt.Sprintf("Deleted file %s (%s) is still held open by %s[%d]",
				f.Path, humanize.IBytes(uint64(max(f.SizeBytes, 0))), f.Process, f.PID),
			Urgency: UrgencyNormal,
		})
	}
	return findings
}

// FsCorruption reports each log line that hints at filesystem damage.
// Identical lines from the journal and the kernel ring buffer are both kept.
func FsCorruption(lines []facts.LogLine) []Finding {
	var findings []Finding
	for _, l := range lines {
		if !facts.CorruptionPattern.MatchString(l.Line) {
			continue
		}
		findings = append(findings, Finding{
			Category: CategoryFsCorruption,
			Subject:  l.Source,
			Detail:   fmt.Sprintf("Possible filesystem corruption (%s): %s", l.Source, strings.TrimSpace(l.Line)),
			Urgency:  UrgencyNormal,
		})
	}
	return findings
}
