package worker

import (
	"context"
	"errors"
	"testing"

	"cashbook/internal/amqp"
)

type fakeInvalidator struct {
	sources []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, source string) int {
	f.sources = append(f.sources, source)
	return 2
}

// fakeConsumer replays its messages, then reports the context error.
type fakeConsumer struct {
	msgs    []*amqp.SourceChangedMessage
	handled int
}

func (f *fakeConsumer) ConsumeSourceChanged(ctx context.Context, handler amqp.Handler) error {
	for _, m := range f.msgs {
		if err := handler(ctx, m); err != nil {
			return err
		}
		f.handled++
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestInvalidationWorker_HandleSourceChanged(t *testing.T) {
	inv := &fakeInvalidator{}
	w := NewInvalidationWorker(nil, inv)

	msg := amqp.NewSourceChangedMessage(amqp.SourceReceipts, "HN")
	if err := w.HandleSourceChanged(context.Background(), msg); err != nil {
		t.Fatalf("HandleSourceChanged() error = %v", err)
	}
	if len(inv.sources) != 1 || inv.sources[0] != amqp.SourceReceipts {
		t.Errorf("invalidated %v, want [receipts]", inv.sources)
	}
}

func TestInvalidationWorker_Start(t *testing.T) {
	inv := &fakeInvalidator{}
	consumer := &fakeConsumer{msgs: []*amqp.SourceChangedMessage{
		amqp.NewSourceChangedMessage(amqp.SourceOrders, ""),
		amqp.NewSourceChangedMessage(amqp.SourceSettings, ""),
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewInvalidationWorker(consumer, inv).Start(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Start() error = %v, want context.Canceled", err)
	}
	if consumer.handled != 2 || len(inv.sources) != 2 {
		t.Errorf("handled %d messages, invalidated %v", consumer.handled, inv.sources)
	}
}
