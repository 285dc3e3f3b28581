package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testdataDir returns the absolute path to the testdata/config directory.
func testdataDir(t *testing.T) string {
	t.Helper()
	// Navigate from internal/config/ up to project root, then into testdata/config.
	dir, err := filepath.Abs(filepath.Join("..", "..", "testdata", "config"))
	require.NoError(t, err, "failed to resolve testdata dir")
	return dir
}

// writeTempFile creates a temporary file with the given content and returns its path.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// clearEnv blanks every variable ApplyEnvOverrides reads so the host
// environment cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"IDLE_PARTITION_THRESHOLD", "USB_MOUNT_THRESHOLD", "NETWORK_SHARE_THRESHOLD",
		"UPTIME_THRESHOLD_DAYS", "TEMP_THRESHOLD_CELSIUS", "DISK_SPACE_THRESHOLD",
		"LARGE_DELETED_FILE_BYTES", "HOSTWATCH_PROC", "HOSTWATCH_SYS", "HOSTWATCH_LOG_DIR",
		"HOSTWATCH_SKIP_CHECKS", "HOSTWATCH_IGNORE_MOUNTS",
	} {
		t.Setenv(name, "")
	}
}

func Test_LoadConfig_Cases(t *testing.T) {
	tests := []struct {
		name        string
		setupPath   func(t *testing.T) string
		wantErr     bool
		errContains string
		validate    func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid config loads all fields",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return filepath.Join(testdataDir(t), "valid.yaml")
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				require.NotNil(t, cfg)
				assert.Equal(t, Thresholds{
					IdlePartitionMinutes:  15,
					USBMountMinutes:       45,
					NetworkShareMinutes:   90,
					UptimeDays:            14,
					TempCelsius:           72.5,
					DiskSpacePercent:      85,
					LargeDeletedFileBytes: 52428800,
				}, cfg.Thresholds)
				assert.Equal(t, PathsConfig{Proc: "/custom/proc", Sys: "/custom/sys"}, cfg.Paths)
				assert.Equal(t, "/var/log/hostwatch", cfg.Log.Dir)
				assert.Equal(t, "host-health", cfg.Notify.AppName)
				assert.Equal(t, 10, cfg.Notify.PopupTimeoutSeconds)
				assert.Equal(t, []string{"fs-corruption"}, cfg.Checks.Skip)
				assert.Equal(t, []string{"/mnt/backup*"}, cfg.Checks.IgnoreMounts)
			},
		},
		{
			name: "partial config keeps defaults for absent keys",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return filepath.Join(testdataDir(t), "partial.yaml")
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				require.NotNil(t, cfg)
				def := DefaultConfig()
				assert.Equal(t, 75, cfg.Thresholds.DiskSpacePercent)
				assert.Equal(t, def.Thresholds.UptimeDays, cfg.Thresholds.UptimeDays)
				assert.Equal(t, def.Thresholds.TempCelsius, cfg.Thresholds.TempCelsius)
				assert.Equal(t, def.Paths, cfg.Paths)
				assert.Equal(t, def.Notify, cfg.Notify)
			},
		},
		{
			name: "missing file returns error",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return "/nonexistent/path/config.yaml"
			},
			wantErr:     true,
			errContains: "no such file",
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Nil(t, cfg)
			},
		},
		{
			name: "invalid YAML returns unmarshal error",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return filepath.Join(testdataDir(t), "invalid.yaml")
			},
			wantErr:     true,
			errContains: "unmarshal",
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Nil(t, cfg)
			},
		},
		{
			name: "empty file returns defaults",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return writeTempFile(t, "empty.yaml", "")
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				require.NotNil(t, cfg)
				assert.Equal(t, DefaultConfig().Thresholds, cfg.Thresholds)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(tt.setupPath(t))

			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, strings.ToLower(err.Error()), strings.ToLower(tt.errContains))
				}
			} else {
				require.NoError(t, err)
			}

			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func Test_DefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, 30, cfg.Thresholds.UptimeDays)
	assert.Equal(t, 80.0, cfg.Thresholds.TempCelsius)
	assert.Equal(t, 90, cfg.Thresholds.DiskSpacePercent)
	assert.Equal(t, int64(100<<20), cfg.Thresholds.LargeDeletedFileBytes)
	assert.Equal(t, "/proc", cfg.Paths.Proc)
	assert.Equal(t, "/sys", cfg.Paths.Sys)
	assert.Equal(t, os.TempDir(), cfg.Log.Dir)
	assert.Equal(t, "hostwatch", cfg.Notify.AppName)
	assert.NoError(t, cfg.Validate())
}

func Test_DefaultConfig_ReturnsNewInstance(t *testing.T) {
	cfg1 := DefaultConfig()
	cfg2 := DefaultConfig()
	assert.NotSame(t, cfg1, cfg2)
}

func Test_ApplyEnvOverrides_Cases(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		wantErr  []string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name: "no variables leaves defaults",
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, DefaultConfig(), cfg)
			},
		},
		{
			name: "every threshold variable is applied",
			env: map[string]string{
				"IDLE_PARTITION_THRESHOLD": "5",
				"USB_MOUNT_THRESHOLD":      "6",
				"NETWORK_SHARE_THRESHOLD":  "7",
				"UPTIME_THRESHOLD_DAYS":    "8",
				"TEMP_THRESHOLD_CELSIUS":   "65.5",
				"DISK_SPACE_THRESHOLD":     "70",
				"LARGE_DELETED_FILE_BYTES": "1024",
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, Thresholds{
					IdlePartitionMinutes:  5,
					USBMountMinutes:       6,
					NetworkShareMinutes:   7,
					UptimeDays:            8,
					TempCelsius:           65.5,
					DiskSpacePercent:      70,
					LargeDeletedFileBytes: 1024,
				}, cfg.Thresholds)
			},
		},
		{
			name: "path variables are applied",
			env: map[string]string{
				"HOSTWATCH_PROC":    "/host/proc",
				"HOSTWATCH_SYS":     "/host/sys",
				"HOSTWATCH_LOG_DIR": "/var/tmp",
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "/host/proc", cfg.Paths.Proc)
				assert.Equal(t, "/host/sys", cfg.Paths.Sys)
				assert.Equal(t, "/var/tmp", cfg.Log.Dir)
			},
		},
		{
			name: "list variables are split on commas",
			env: map[string]string{
				"HOSTWATCH_SKIP_CHECKS":   "uptime, temperature,",
				"HOSTWATCH_IGNORE_MOUNTS": " , ",
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, []string{"uptime", "temperature"}, cfg.Checks.Skip)
				assert.Nil(t, cfg.Checks.IgnoreMounts)
			},
		},
		{
			name: "unparseable values are reported and ignored",
			env: map[string]string{
				"UPTIME_THRESHOLD_DAYS":  "a week",
				"TEMP_THRESHOLD_CELSIUS": "hot",
				"DISK_SPACE_THRESHOLD":   "50",
			},
			wantErr: []string{"UPTIME_THRESHOLD_DAYS", "TEMP_THRESHOLD_CELSIUS"},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				def := DefaultConfig()
				assert.Equal(t, def.Thresholds.UptimeDays, cfg.Thresholds.UptimeDays)
				assert.Equal(t, def.Thresholds.TempCelsius, cfg.Thresholds.TempCelsius)
				assert.Equal(t, 50, cfg.Thresholds.DiskSpacePercent)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := DefaultConfig()
			err := ApplyEnvOverrides(cfg)

			if len(tt.wantErr) == 0 {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				for _, want := range tt.wantErr {
					assert.Contains(t, err.Error(), want)
				}
			}
			tt.validate(t, cfg)
		})
	}
}

func Test_Config_Validate_Cases(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(cfg *Config)
		errContains []string
	}{
		{
			name:   "defaults are valid",
			mutate: func(cfg *Config) {},
		},
		{
			name:   "disk percent at 100 is valid",
			mutate: func(cfg *Config) { cfg.Thresholds.DiskSpacePercent = 100 },
		},
		{
			name:        "disk percent above 100",
			mutate:      func(cfg *Config) { cfg.Thresholds.DiskSpacePercent = 101 },
			errContains: []string{"disk_space_percent"},
		},
		{
			name: "negative values are all reported",
			mutate: func(cfg *Config) {
				cfg.Thresholds.UptimeDays = -1
				cfg.Thresholds.USBMountMinutes = -5
				cfg.Thresholds.LargeDeletedFileBytes = -1
			},
			errContains: []string{"uptime_days", "usb_mount_minutes", "large_deleted_file_bytes"},
		},
		{
			name:        "zero temperature threshold",
			mutate:      func(cfg *Config) { cfg.Thresholds.TempCelsius = 0 },
			errContains: []string{"temp_celsius must be positive"},
		},
		{
			name:        "negative temperature threshold",
			mutate:      func(cfg *Config) { cfg.Thresholds.TempCelsius = -10 },
			errContains: []string{"temp_celsius must be positive, got -10"},
		},
		{
			name:        "empty log dir",
			mutate:      func(cfg *Config) { cfg.Log.Dir = "" },
			errContains: []string{"log dir"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if len(tt.errContains) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.errContains {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}
