package cli

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	applog "cashbook/internal/log"
)

func bufferLogger(buf *bytes.Buffer) *applog.Logger {
	return applog.New(applog.Config{Level: slog.LevelDebug, Component: applog.ComponentApp, Output: buf})
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger("warn", "json")
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !logger.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn should be enabled")
	}
	if logger.Component() != applog.ComponentApp {
		t.Errorf("component = %q", logger.Component())
	}
}

func TestRunCleanup(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		cleanup func(ctx context.Context)
		want    string
	}{
		{
			name:    "completes",
			timeout: time.Second,
			cleanup: func(context.Context) {},
			want:    "Shutdown complete",
		},
		{
			name:    "nil cleanup",
			timeout: time.Second,
			want:    "Shutdown complete",
		},
		{
			name:    "times out",
			timeout: time.Millisecond,
			cleanup: func(ctx context.Context) { <-ctx.Done() },
			want:    "Shutdown timeout reached",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			runCleanup(bufferLogger(&buf), tt.timeout, tt.cleanup)
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("log %q missing %q", buf.String(), tt.want)
			}
		})
	}
}

func TestWaitForShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	returned := make(chan struct{})
	go func() {
		WaitForShutdown(ctx, done)
		close(returned)
	}()

	cancel()
	select {
	case <-returned:
		t.Fatal("returned before cleanup finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(done)
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("did not return after cleanup")
	}
}
