package checkout

import (
	"context"
	"log/slog"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// Launcher performs the best-effort hand-off of a placed order. Nothing waits
// for delivery; a failed launch never undoes the order.
type Launcher interface {
	Launch(ctx context.Context, event domain.OrderPlacedEvent) error
}

// Publisher is satisfied by messaging.Producer.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// EventLauncher publishes the order to the notification topic so a worker
// can forward it to the business.
type EventLauncher struct {
	publisher Publisher
}

func NewEventLauncher(publisher Publisher) *EventLauncher {
	return &EventLauncher{publisher: publisher}
}

func (l *EventLauncher) Launch(ctx context.Context, event domain.OrderPlacedEvent) error {
	return l.publisher.Publish(ctx, event.OrderNumber, event)
}

// LogLauncher only records the deep link. Used when no broker is configured;
// the client still receives the link in the receipt.
type LogLauncher struct {
	logger *slog.Logger
}

func NewLogLauncher(logger *slog.Logger) *LogLauncher {
	return &LogLauncher{logger: logger}
}

func (l *LogLauncher) Launch(_ context.Context, event domain.OrderPlacedEvent) error {
	l.logger.Info("order hand-off ready", "order_number", event.OrderNumber, "deep_link", event.DeepLink)
	return nil
}
