package cli

import (
	"context"
	"log/slog"
	"syscall"
	"testing"
	"time"

	"studentspend/internal/config"
)

func TestSetupLoggerInstallsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, "test")
	if logger == nil {
		t.Fatal("nil logger")
	}
	if slog.Default() != logger {
		t.Fatal("logger not installed as default")
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug level not applied")
	}
}

func TestGracefulShutdownRunsCleanup(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	cleaned := make(chan struct{})
	ctx, done := GracefulShutdown(logger, time.Second, func(context.Context) { close(cleaned) })

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("send signal: %v", err)
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	if ctx.Err() == nil {
		t.Fatal("context not cancelled")
	}
	select {
	case <-cleaned:
	default:
		t.Fatal("cleanup not run")
	}
}
