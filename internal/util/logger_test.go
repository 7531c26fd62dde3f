package util

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevels(t *testing.T) {
	logger, err := NewLogger("debug", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug level not enabled")
	}

	logger, err = NewLogger("bogus", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("unknown level should fall back to info")
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info level not enabled after fallback")
	}
}

func TestNewLoggerFileSink(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "app.log")

	logger, err := NewLogger("info", logFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info("hello")
	logger.Sync()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file empty")
	}
}
