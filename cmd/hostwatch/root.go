package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/jamesprial/hostwatch/internal/audit"
	"github.com/jamesprial/hostwatch/internal/config"
	"github.com/jamesprial/hostwatch/internal/facts"
	"github.com/jamesprial/hostwatch/internal/monitor"
	"github.com/jamesprial/hostwatch/internal/notify"
	"github.com/jamesprial/hostwatch/internal/shell"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const configPathEnv = "HOSTWATCH_CONFIG_PATH"

type options struct {
	configPath string
	logDir     string
	only       []string
	skip       []string
	verbose    bool
	list       bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "hostwatch",
		Short: "Check this machine for common health and security problems",
		Long: `Run one pass of host health checks and exit.

Each problem found is sent as a desktop notification (dunstify, then
notify-send, then stderr) and appended to a session log in the log
directory. Checks whose tools are missing are skipped with a notice.

Examples:
  # Run every check
  hostwatch

  # Run selected checks with debug output
  hostwatch --only low-disk-space,temperature --verbose

  # Write the session log elsewhere
  hostwatch --log-dir /var/log/hostwatch`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.list {
				for _, name := range monitor.StepNames() {
					fmt.Fprintln(stdout, name)
				}
				return nil
			}
			err := run(cmd.Context(), opts, stdout, stderr)
			if err != nil {
				fmt.Fprintf(stderr, "%s %v\n", color.RedString("error:"), err)
			}
			return err
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "YAML config file (default $"+configPathEnv+")")
	flags.StringVar(&opts.logDir, "log-dir", "", "directory for the session log (default $HOSTWATCH_LOG_DIR or the temp dir)")
	flags.StringSliceVar(&opts.only, "only", nil, "comma-separated checks to run, globs allowed (see --list)")
	flags.StringSliceVar(&opts.skip, "skip", nil, "comma-separated checks to leave out, globs allowed")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging on stderr")
	flags.BoolVar(&opts.list, "list", false, "print the check names in run order and exit")

	return cmd
}

// run performs setup and one pass. Errors returned here are setup failures;
// problems during the pass are reported through the session log instead.
func run(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(stderr, opts.verbose)
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfig(opts.configPath, logger)
	if err != nil {
		return err
	}
	if err := config.ApplyEnvOverrides(cfg); err != nil {
		logger.Warn("ignoring invalid environment overrides", zap.Error(err))
	}
	if opts.logDir != "" {
		cfg.Log.Dir = opts.logDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	skip := append(append([]string(nil), cfg.Checks.Skip...), opts.skip...)
	if err := monitor.ValidateSteps(append(append([]string(nil), opts.only...), skip...)); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Log.Dir, 0o700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	runner := shell.Exec{}
	src := facts.NewHostSource(facts.Options{
		ProcPath:        cfg.Paths.Proc,
		SysPath:         cfg.Paths.Sys,
		MinDeletedBytes: cfg.Thresholds.LargeDeletedFileBytes,
		Runner:          runner,
		Logger:          logger,
	})
	notifier := notify.NewNotifier(logger, notify.DefaultChannels(
		runner,
		cfg.Notify.AppName,
		time.Duration(cfg.Notify.PopupTimeoutSeconds)*time.Second,
		stderr,
	)...)

	session := audit.NewSessionLog(cfg.Log.Dir, "hostwatch", time.Now())
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("failed to close session log", zap.Error(err))
		}
	}()

	sum := monitor.NewRunner(src, cfg.Thresholds, notifier, session,
		monitor.WithLogger(logger),
		monitor.WithOnly(opts.only...),
		monitor.WithSkip(skip...),
		monitor.WithIgnoreMounts(cfg.Checks.IgnoreMounts...),
	).Run(ctx)

	printSummary(stdout, sum)
	return nil
}

// loadConfig reads the file named by the flag or HOSTWATCH_CONFIG_PATH.
// With neither set it returns the defaults.
func loadConfig(path string, logger *zap.Logger) (*config.Config, error) {
	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path == "" {
		return config.DefaultConfig(), nil
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("could not load config from %q: %w", path, err)
	}
	logger.Debug("loaded config", zap.String("path", path))
	return cfg, nil
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core).Named("hostwatch")
}

func printSummary(w io.Writer, sum monitor.Summary) {
	bold := color.New(color.Bold).SprintFunc()

	switch total := sum.Total(); total {
	case 0:
		fmt.Fprintf(w, "%s no problems found\n", color.GreenString("✓"))
	default:
		fmt.Fprintf(w, "%s %d problem(s) found\n", color.YellowString("!"), total)
	}
	if len(sum.Skipped) > 0 {
		fmt.Fprintf(w, "  skipped: %s\n", strings.Join(sum.Skipped, ", "))
	}
	fmt.Fprintf(w, "%s %s\n", bold("log:"), sum.LogPath)
}
