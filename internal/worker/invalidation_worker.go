package worker

import (
	"context"
	"log/slog"

	"cashbook/internal/amqp"
)

// Consumer delivers source change events until ctx is done.
type Consumer interface {
	ConsumeSourceChanged(ctx context.Context, handler amqp.Handler) error
}

// Invalidator drops cached ledger data derived from a source.
type Invalidator interface {
	Invalidate(ctx context.Context, source string) int
}

// InvalidationWorker keeps the ledger caches of this process in step with
// imports done elsewhere.
type InvalidationWorker struct {
	consumer    Consumer
	invalidator Invalidator
}

func NewInvalidationWorker(consumer Consumer, invalidator Invalidator) *InvalidationWorker {
	return &InvalidationWorker{consumer: consumer, invalidator: invalidator}
}

// Start consumes change events until ctx is cancelled.
func (w *InvalidationWorker) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "Starting cache invalidation worker", "component", "worker")
	return w.consumer.ConsumeSourceChanged(ctx, w.HandleSourceChanged)
}

// HandleSourceChanged processes a single change event.
func (w *InvalidationWorker) HandleSourceChanged(ctx context.Context, msg *amqp.SourceChangedMessage) error {
	slog.InfoContext(ctx, "Processing source changed message",
		"component", "worker",
		"id", msg.ID,
		"source", msg.Source,
		"store", msg.StoreCode)

	dropped := w.invalidator.Invalidate(ctx, msg.Source)

	slog.DebugContext(ctx, "Source change applied", "component", "worker", "id", msg.ID, "dropped", dropped)
	return nil
}
