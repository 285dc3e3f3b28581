// Package notify delivers findings to the operator through the best
// available desktop channel, degrading to standard error.
package notify

import (
	"context"

	"github.com/jamesprial/hostwatch/internal/check"
	"go.uber.org/zap"
)

// Message is the rendered form of a Finding.
type Message struct {
	Title   string
	Body    string
	Urgency check.Urgency
}

// Channel is one notification transport.
type Channel interface {
	// Name identifies the channel in logs.
	Name() string

	// Available reports whether the channel can be used right now.
	Available() bool

	// Send delivers msg.
	Send(ctx context.Context, msg Message) error
}

// Notifier tries its channels in order for every call. Availability is
// checked per call and nothing is remembered between calls.
type Notifier struct {
	channels []Channel
	logger   *zap.Logger
}

// NewNotifier returns a Notifier over channels in priority order.
func NewNotifier(logger *zap.Logger, channels ...Channel) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{channels: channels, logger: logger.Named("notify")}
}

// Notify delivers f on the first available channel that accepts it. A
// delivery failure falls through to the next available channel for this
// call only. Notify never fails.
func (n *Notifier) Notify(ctx context.Context, f check.Finding) {
	msg := Message{
		Title:   f.Category.Title(),
		Body:    f.Detail,
		Urgency: f.Urgency,
	}

	for _, ch := range n.channels {
		if !ch.Available() {
			continue
		}
		err := ch.Send(ctx, msg)
		if err == nil {
			return
		}
		n.logger.Debug("notification channel failed",
			zap.String("channel", ch.Name()),
			zap.String("category", string(f.Category)),
			zap.Error(err))
	}
	n.logger.Warn("finding was not delivered by any channel", zap.String("category", string(f.Category)))
}
