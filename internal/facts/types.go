// Package facts collects raw host state for the health checks. Each collector
// wraps one kernel interface or system utility and returns normalized records.
package facts

import (
	"context"
	"errors"
	"regexp"
)

// ErrUnavailable is wrapped by collector errors when the backing utility is
// not installed or the kernel interface cannot be read. Callers treat it as
// a reason to skip a check, not as a failure.
var ErrUnavailable = errors.New("tool unavailable")

// CorruptionPattern matches kernel and journal lines that hint at filesystem
// damage.
var CorruptionPattern = regexp.MustCompile(`(?i)fsck|ext4.*error`)

// Mount is one entry of the kernel mount table.
type Mount struct {
	Device     string
	Mountpoint string
	FSType     string
	Options    []string
}

// Usage is the space consumption of one mounted filesystem.
type Usage struct {
	Mountpoint string
	// PercentUsed is rounded up the way df reports Use%.
	PercentUsed int
}

// BlockDevice is a node of the block device tree.
type BlockDevice struct {
	Name       string
	Transport  string
	Mountpoint string
}

// IoSample is the utilization of one device measured across the sample interval.
type IoSample struct {
	Device             string
	Mountpoint         string
	UtilizationPercent float64
}

// ThermalZone is one thermal_zone reading.
type ThermalZone struct {
	ZoneID  int
	Celsius float64
}

// Uptime is the time since boot.
type Uptime struct {
	Seconds uint64
}

// OpenFile is a file held open by a process.
type OpenFile struct {
	Path    string
	Process string
	PID     int
	// Mode is "read", "write", "read/write" or "unknown".
	Mode string
}

// DeletedFile is an unlinked file whose inode is still held open.
type DeletedFile struct {
	Path      string
	Process   string
	PID       int
	SizeBytes int64
}

// LogLine is one matching line from the boot journal or kernel ring buffer.
type LogLine struct {
	// Source is "journal" or "kernel".
	Source string
	Line   string
}

// WritableFile is a regular file with the world-write bit set.
type WritableFile struct {
	Mountpoint string
	Path       string
}

// Source defines the read-only operations that gather host facts.
type Source interface {
	// MountTable returns every mounted filesystem, virtual ones included.
	MountTable(ctx context.Context) ([]Mount, error)

	// DiskUsage returns usage for each physical filesystem.
	DiskUsage(ctx context.Context) ([]Usage, error)

	// BlockDevices returns the flattened block device tree.
	BlockDevices(ctx context.Context) ([]BlockDevice, error)

	// IoActivity samples utilization for the devices backing mounts.
	IoActivity(ctx context.Context, mounts []Mount) ([]IoSample, error)

	// ThermalZones returns one reading per thermal zone. A host without
	// zones yields an empty slice and no error.
	ThermalZones(ctx context.Context) ([]ThermalZone, error)

	// Uptime returns the time since boot.
	Uptime(ctx context.Context) (Uptime, error)

	// OpenFiles lists files open beneath path.
	OpenFiles(ctx context.Context, path string) ([]OpenFile, error)

	// DeletedOpenFiles lists large unlinked files that are still open.
	DeletedOpenFiles(ctx context.Context) ([]DeletedFile, error)

	// SystemLog returns boot journal and kernel ring buffer lines matching
	// CorruptionPattern.
	SystemLog(ctx context.Context) ([]LogLine, error)

	// WorldWritable walks root for world-writable regular files.
	WorldWritable(ctx context.Context, root string) ([]WritableFile, error)
}
