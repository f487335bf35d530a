package notification

import (
	"context"
	"log/slog"
)

const (
	// KindTokenIssued indicates a successful token purchase.
	KindTokenIssued = "token_issued"
	// KindBalanceDepleted indicates a meter balance at or below zero after a
	// consumption event. Depletion is reported, never acted on here; supply
	// cutoff is the supply controller's call.
	KindBalanceDepleted = "balance_depleted"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier builds a logger-backed notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send logs the notification.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	n.logger.Info("notification",
		slog.String("kind", message.Kind),
		slog.String("destination", message.Destination),
		slog.String("body", message.Body),
	)
	return nil
}
