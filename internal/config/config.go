// Package config provides configuration loading and defaults for hostwatch.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Thresholds is the immutable set of limits evaluated during one pass. It is
// passed by value so evaluators cannot mutate the caller's copy.
type Thresholds struct {
	// IdlePartitionMinutes, USBMountMinutes and NetworkShareMinutes are
	// reserved. The checks they name report current state only, so no
	// evaluator compares them against elapsed time.
	IdlePartitionMinutes int `yaml:"idle_partition_minutes"`
	USBMountMinutes      int `yaml:"usb_mount_minutes"`
	NetworkShareMinutes  int `yaml:"network_share_minutes"`

	UptimeDays       int     `yaml:"uptime_days"`
	TempCelsius      float64 `yaml:"temp_celsius"`
	DiskSpacePercent int     `yaml:"disk_space_percent"`

	// LargeDeletedFileBytes is the minimum size of an unlinked but still open
	// file worth reporting.
	LargeDeletedFileBytes int64 `yaml:"large_deleted_file_bytes"`
}

// PathsConfig holds the kernel filesystem roots read by the collectors.
type PathsConfig struct {
	Proc string `yaml:"proc"`
	Sys  string `yaml:"sys"`
}

// LogConfig controls where the session log is written.
type LogConfig struct {
	Dir string `yaml:"dir"`
}

// NotifyConfig controls desktop notification delivery.
type NotifyConfig struct {
	AppName             string `yaml:"app_name"`
	PopupTimeoutSeconds int    `yaml:"popup_timeout_seconds"`
}

// ChecksConfig selects what a pass looks at. Entries are glob patterns.
type ChecksConfig struct {
	Skip         []string `yaml:"skip"`
	IgnoreMounts []string `yaml:"ignore_mounts"`
}

// Config is the top-level configuration structure for hostwatch.
type Config struct {
	Thresholds Thresholds   `yaml:"thresholds"`
	Paths      PathsConfig  `yaml:"paths"`
	Log        LogConfig    `yaml:"log"`
	Notify     NotifyConfig `yaml:"notify"`
	Checks     ChecksConfig `yaml:"checks"`
}

// LoadConfig reads a YAML configuration file from path and overlays it on
// DefaultConfig, so keys absent from the file keep their default values.
// On error, nil is returned for the config pointer.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a new Config populated with default values.
// Each call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		Thresholds: Thresholds{
			IdlePartitionMinutes:  30,
			USBMountMinutes:       60,
			NetworkShareMinutes:   120,
			UptimeDays:            30,
			TempCelsius:           80,
			DiskSpacePercent:      90,
			LargeDeletedFileBytes: 100 << 20,
		},
		Paths: PathsConfig{
			Proc: "/proc",
			Sys:  "/sys",
		},
		Log: LogConfig{
			Dir: os.TempDir(),
		},
		Notify: NotifyConfig{
			AppName:             "hostwatch",
			PopupTimeoutSeconds: 5,
		},
	}
}

// ApplyEnvOverrides updates cfg in place with values from environment variables.
// Recognized variables:
//   - IDLE_PARTITION_THRESHOLD, USB_MOUNT_THRESHOLD, NETWORK_SHARE_THRESHOLD (minutes)
//   - UPTIME_THRESHOLD_DAYS
//   - TEMP_THRESHOLD_CELSIUS
//   - DISK_SPACE_THRESHOLD (percent)
//   - LARGE_DELETED_FILE_BYTES
//   - HOSTWATCH_PROC, HOSTWATCH_SYS, HOSTWATCH_LOG_DIR
//   - HOSTWATCH_SKIP_CHECKS, HOSTWATCH_IGNORE_MOUNTS (comma-separated)
//
// Empty variables are ignored. Values that do not parse leave the field
// unchanged and are reported together in the returned error.
func ApplyEnvOverrides(cfg *Config) error {
	var errs []error

	intVars := []struct {
		name string
		dst  *int
	}{
		{"IDLE_PARTITION_THRESHOLD", &cfg.Thresholds.IdlePartitionMinutes},
		{"USB_MOUNT_THRESHOLD", &cfg.Thresholds.USBMountMinutes},
		{"NETWORK_SHARE_THRESHOLD", &cfg.Thresholds.NetworkShareMinutes},
		{"UPTIME_THRESHOLD_DAYS", &cfg.Thresholds.UptimeDays},
		{"DISK_SPACE_THRESHOLD", &cfg.Thresholds.DiskSpacePercent},
	}
	for _, v := range intVars {
		raw := os.Getenv(v.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", v.name, err))
			continue
		}
		*v.dst = n
	}

	if raw := os.Getenv("TEMP_THRESHOLD_CELSIUS"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("TEMP_THRESHOLD_CELSIUS: %w", err))
		} else {
			cfg.Thresholds.TempCelsius = f
		}
	}
	if raw := os.Getenv("LARGE_DELETED_FILE_BYTES"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("LARGE_DELETED_FILE_BYTES: %w", err))
		} else {
			cfg.Thresholds.LargeDeletedFileBytes = n
		}
	}

	if dir := os.Getenv("HOSTWATCH_PROC"); dir != "" {
		cfg.Paths.Proc = dir
	}
	if dir := os.Getenv("HOSTWATCH_SYS"); dir != "" {
		cfg.Paths.Sys = dir
	}
	if dir := os.Getenv("HOSTWATCH_LOG_DIR"); dir != "" {
		cfg.Log.Dir = dir
	}
	if list := splitList(os.Getenv("HOSTWATCH_SKIP_CHECKS")); list != nil {
		cfg.Checks.Skip = list
	}
	if list := splitList(os.Getenv("HOSTWATCH_IGNORE_MOUNTS")); list != nil {
		cfg.Checks.IgnoreMounts = list
	}

	return errors.Join(errs...)
}

// Validate reports every out-of-range value in cfg.
func (c *Config) Validate() error {
	var errs []error
	t := c.Thresholds

	nonNegative := []struct {
		name string
		val  int64
	}{
		{"idle_partition_minutes", int64(t.IdlePartitionMinutes)},
		{"usb_mount_minutes", int64(t.USBMountMinutes)},
		{"network_share_minutes", int64(t.NetworkShareMinutes)},
		{"uptime_days", int64(t.UptimeDays)},
		{"disk_space_percent", int64(t.DiskSpacePercent)},
		{"large_deleted_file_bytes", t.LargeDeletedFileBytes},
		{"popup_timeout_seconds", int64(c.Notify.PopupTimeoutSeconds)},
	}
	for _, f := range nonNegative {
		if f.val < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", f.name, f.val))
		}
	}
	if t.TempCelsius <= 0 {
		errs = append(errs, fmt.Errorf("temp_celsius must be positive, got %g", t.TempCelsius))
	}
	if t.DiskSpacePercent > 100 {
		errs = append(errs, fmt.Errorf("disk_space_percent must be at most 100, got %d", t.DiskSpacePercent))
	}
	if c.Log.Dir == "" {
		errs = append(errs, errors.New("log dir must not be empty"))
	}

	return errors.Join(errs...)
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
