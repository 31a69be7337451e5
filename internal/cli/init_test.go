package cli

import (
	"context"
	"log/slog"
	"testing"

	"saldo/internal/config"
	applog "saldo/internal/log"
)

func TestConfigureLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := ConfigureLogger(&config.Config{LogLevel: "warn", LogFormat: "json"}, applog.ComponentWorker)

	if logger.Component() != applog.ComponentWorker {
		t.Errorf("Component() = %q, want %q", logger.Component(), applog.ComponentWorker)
	}
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !slog.Default().Enabled(context.Background(), slog.LevelWarn) {
		t.Error("default logger was not replaced")
	}
}

func TestSignalContextCancel(t *testing.T) {
	ctx, cancel := SignalContext()
	cancel()

	select {
	case <-ctx.Done():
	default:
		t.Fatal("context not cancelled")
	}
}
