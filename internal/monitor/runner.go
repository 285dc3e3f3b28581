// Package monitor runs one health-check pass: every step collects its facts,
// evaluates them, and hands each finding to the notifier and the session log.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jamesprial/hostwatch/internal/check"
	"github.com/jamesprial/hostwatch/internal/config"
	"github.com/jamesprial/hostwatch/internal/facts"
	"go.uber.org/zap"
)

// Notifier delivers a finding to the operator. It must not fail the pass.
type Notifier interface {
	Notify(ctx context.Context, f check.Finding)
}

// SessionLog records one line per finding or skip notice.
type SessionLog interface {
	Append(message string) error
	Path() string
}

// Step names, in the fixed order a pass runs them.
const (
	StepIdlePartitions        = "idle-partitions"
	StepLowDiskSpace          = "low-disk-space"
	StepExternalDrives        = "external-drives"
	StepNetworkShares         = "network-shares"
	StepWorldWritableFiles    = "world-writable-files"
	StepInsecureMountOptions  = "insecure-mount-options"
	StepUptime                = "uptime"
	StepTemperature           = "temperature"
	StepEditingOnExternal     = "editing-on-external"
	StepLargeDeletedOpenFiles = "large-deleted-open-files"
	StepFsCorruption          = "fs-corruption"
)

// step pairs a name with the collect-and-evaluate function for it.
type step struct {
	name string
	run  func(ctx context.Context) ([]check.Finding, error)
}

// Summary describes a completed pass.
type Summary struct {
	Findings map[check.Category]int
	Skipped  []string
	LogPath  string
}

// Total returns the number of findings across all categories.
func (s Summary) Total() int {
	total := 0
	for _, n := range s.Findings {
		total += n
	}
	return total
}

// Runner executes the checks against a fact source.
type Runner struct {
	src        facts.Source
	thresholds config.Thresholds
	notifier   Notifier
	log        SessionLog
	logger     *zap.Logger

	only, skip   []string
	ignoreMounts []string
	checks       *Filter
	mounts       *Filter
}

// Option customizes a Runner.
type Option func(*Runner)

// WithLogger sets the diagnostics logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithOnly restricts the pass to steps matching the given glob patterns.
// Order stays fixed.
func WithOnly(patterns ...string) Option {
	return func(r *Runner) { r.only = patterns }
}

// WithSkip drops steps matching the given glob patterns. Skip wins over only.
func WithSkip(patterns ...string) Option {
	return func(r *Runner) { r.skip = patterns }
}

// WithIgnoreMounts hides mountpoints matching the given glob patterns from
// every mount-based step.
func WithIgnoreMounts(patterns ...string) Option {
	return func(r *Runner) { r.ignoreMounts = patterns }
}

// NewRunner returns a Runner. th is copied; later changes by the caller do
// not affect the pass.
func NewRunner(src facts.Source, th config.Thresholds, notifier Notifier, log SessionLog, opts ...Option) *Runner {
	r := &Runner{
		src:        src,
		thresholds: th,
		notifier:   notifier,
		log:        log,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("monitor")
	r.checks = NewFilter(r.only, r.skip)
	r.mounts = NewFilter(nil, r.ignoreMounts)
	return r
}

// StepNames lists every step in run order.
func StepNames() []string {
	return []string{
		StepIdlePartitions,
		StepLowDiskSpace,
		StepExternalDrives,
		StepNetworkShares,
		StepWorldWritableFiles,
		StepInsecureMountOptions,
		StepUptime,
		StepTemperature,
		StepEditingOnExternal,
		StepLargeDeletedOpenFiles,
		StepFsCorruption,
	}
}

// ValidateSteps returns an error naming every pattern that matches no step.
func ValidateSteps(patterns []string) error {
	var errs []error
	for _, p := range patterns {
		if !slices.ContainsFunc(StepNames(), func(name string) bool { return matchGlob(p, name) }) {
			errs = append(errs, fmt.Errorf("unknown check %q", p))
		}
	}
	return errors.Join(errs...)
}

// Run executes every selected step in order. A step that fails or whose tool
// is missing is skipped with a notice in the session log; the remaining steps
// still run. Run always completes.
func (r *Runner) Run(ctx context.Context) Summary {
	sum := Summary{
		Findings: make(map[check.Category]int),
		LogPath:  r.log.Path(),
	}

	for _, s := range r.steps() {
		if !r.checks.Allows(s.name) {
			continue
		}

		r.logger.Debug("running check", zap.String("check", s.name))
		findings, err := r.runStep(ctx, s)
		if err != nil {
			sum.Skipped = append(sum.Skipped, s.name)
			r.skipped(s.name, err)
			continue
		}

		for _, f := range findings {
			r.notifier.Notify(ctx, f)
			r.append(f.Detail)
			sum.Findings[f.Category]++
		}
	}

	return sum
}

// runStep isolates a panicking step from the rest of the pass.
func (r *Runner) runStep(ctx context.Context, s step) (findings []check.Finding, err error) {
	defer func() {
		if p := recover(); p != nil {
			findings, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()
	return s.run(ctx)
}

func (r *Runner) skipped(name string, err error) {
	if errors.Is(err, facts.ErrUnavailable) {
		r.logger.Info("check skipped: tool unavailable", zap.String("check", name), zap.Error(err))
		r.append(fmt.Sprintf("skipped %s: tool unavailable", name))
		return
	}
	r.logger.Warn("check skipped", zap.String("check", name), zap.Error(err))
	r.append(fmt.Sprintf("skipped %s: %v", name, err))
}

func (r *Runner) append(message string) {
	if err := r.log.Append(message); err != nil {
		r.logger.Warn("session log write failed", zap.String("path", r.log.Path()), zap.Error(err))
	}
}
