package facts

import (
	"context"
	"fmt"
	"time"

	"github.com/jamesprial/hostwatch/internal/shell"
	"github.com/shirou/gopsutil/v3/common"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"
)

// Compile-time interface check.
var _ Source = (*HostSource)(nil)

// Options configures a HostSource.
type Options struct {
	// ProcPath and SysPath are the procfs and sysfs roots (normally /proc and /sys).
	ProcPath string
	SysPath  string

	// SampleInterval separates the two I/O counter samples. Defaults to one second.
	SampleInterval time.Duration

	// MinDeletedBytes is the smallest deleted-but-open file reported.
	MinDeletedBytes int64

	// Runner executes lsblk, lsof, journalctl and dmesg. Defaults to shell.Exec.
	Runner shell.Runner

	Logger *zap.Logger
}

// HostSource implements Source against the local machine.
type HostSource struct {
	procPath        string
	sysPath         string
	sampleInterval  time.Duration
	minDeletedBytes int64
	runner          shell.Runner
	logger          *zap.Logger

	// gopsutil entry points, replaced in tests.
	partitions func(ctx context.Context, all bool) ([]disk.PartitionStat, error)
	usage      func(ctx context.Context, path string) (*disk.UsageStat, error)
	ioCounters func(ctx context.Context, names ...string) (map[string]disk.IOCountersStat, error)
	bootTime   func(ctx context.Context) (uint64, error)
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewHostSource returns a HostSource configured by opts.
func NewHostSource(opts Options) *HostSource {
	if opts.ProcPath == "" {
		opts.ProcPath = "/proc"
	}
	if opts.SysPath == "" {
		opts.SysPath = "/sys"
	}
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = time.Second
	}
	if opts.Runner == nil {
		opts.Runner = shell.Exec{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &HostSource{
		procPath:        opts.ProcPath,
		sysPath:         opts.SysPath,
		sampleInterval:  opts.SampleInterval,
		minDeletedBytes: opts.MinDeletedBytes,
		runner:          opts.Runner,
		logger:          opts.Logger.Named("facts"),
		partitions:      disk.PartitionsWithContext,
		usage:           disk.UsageWithContext,
		ioCounters:      disk.IOCountersWithContext,
		bootTime:        host.BootTimeWithContext,
		now:             time.Now,
		sleep:           sleepContext,
	}
}

// Uptime reports the seconds since boot. The boot time comes from the
// configured proc root; host.UptimeWithContext asks the running kernel.
func (h *HostSource) Uptime(ctx context.Context) (Uptime, error) {
	boot, err := h.bootTime(h.hostContext(ctx))
	if err != nil {
		return Uptime{}, fmt.Errorf("read boot time: %w: %w", ErrUnavailable, err)
	}
	now := h.now().Unix()
	if now <= int64(boot) {
		return Uptime{}, nil
	}
	return Uptime{Seconds: uint64(now) - boot}, nil
}

// hostContext points gopsutil at the configured procfs and sysfs roots.
func (h *HostSource) hostContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, common.EnvKey, common.EnvMap{
		common.HostProcEnvKey: h.procPath,
		common.HostSysEnvKey:  h.sysPath,
	})
}

// requireTool fails with ErrUnavailable when name is not installed.
func (h *HostSource) requireTool(name string) error {
	if _, err := h.runner.LookPath(name); err != nil {
		return fmt.Errorf("%s: %w", name, ErrUnavailable)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
