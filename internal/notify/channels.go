package notify

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/jamesprial/hostwatch/internal/shell"
)

// Compile-time interface checks.
var (
	_ Channel = (*PopupChannel)(nil)
	_ Channel = (*DesktopChannel)(nil)
	_ Channel = (*StderrChannel)(nil)
)

// PopupChannel shows a popup through dunstify that dismisses itself after
// Timeout.
type PopupChannel struct {
	runner  shell.Runner
	appName string
	timeout time.Duration
}

// NewPopupChannel returns a PopupChannel run through runner.
func NewPopupChannel(runner shell.Runner, appName string, timeout time.Duration) *PopupChannel {
	return &PopupChannel{runner: runner, appName: appName, timeout: timeout}
}

func (c *PopupChannel) Name() string { return "dunstify" }

func (c *PopupChannel) Available() bool {
	_, err := c.runner.LookPath("dunstify")
	return err == nil
}

func (c *PopupChannel) Send(ctx context.Context, msg Message) error {
	_, err := c.runner.Output(ctx, "dunstify",
		"-a", c.appName,
		"-u", string(msg.Urgency),
		"-t", strconv.FormatInt(c.timeout.Milliseconds(), 10),
		msg.Title, msg.Body,
	)
	return err
}

// DesktopChannel sends a freedesktop notification through notify-send.
type DesktopChannel struct {
	runner  shell.Runner
	appName string
}

// NewDesktopChannel returns a DesktopChannel run through runner.
func NewDesktopChannel(runner shell.Runner, appName string) *DesktopChannel {
	return &DesktopChannel{runner: runner, appName: appName}
}

func (c *DesktopChannel) Name() string { return "notify-send" }

func (c *DesktopChannel) Available() bool {
	_, err := c.runner.LookPath("notify-send")
	return err == nil
}

func (c *DesktopChannel) Send(ctx context.Context, msg Message) error {
	_, err := c.runner.Output(ctx, "notify-send",
		"-a", c.appName,
		"-u", string(msg.Urgency),
		msg.Title, msg.Body,
	)
	return err
}

// StderrChannel prints "WARNING: <body>" lines. It is always available.
type StderrChannel struct {
	w      io.Writer
	prefix *color.Color
}

// NewStderrChannel returns a StderrChannel writing to w. The prefix is
// colored only when fatih/color detects a terminal.
func NewStderrChannel(w io.Writer) *StderrChannel {
	return &StderrChannel{w: w, prefix: color.New(color.FgYellow, color.Bold)}
}

func (c *StderrChannel) Name() string { return "stderr" }

func (c *StderrChannel) Available() bool { return true }

func (c *StderrChannel) Send(_ context.Context, msg Message) error {
	_, err := fmt.Fprintf(c.w, "%s %s\n", c.prefix.Sprint("WARNING:"), msg.Body)
	return err
}

// DefaultChannels returns the popup, desktop and stderr channels in priority order.
func DefaultChannels(runner shell.Runner, appName string, popupTimeout time.Duration, stderr io.Writer) []Channel {
	return []Channel{
		NewPopupChannel(runner, appName, popupTimeout),
		NewDesktopChannel(runner, appName),
		NewStderrChannel(stderr),
	}
}
