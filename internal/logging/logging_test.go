package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewHonoursLevel(t *testing.T) {
	t.Parallel()

	logger, err := New("warn")
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("info should be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatal("error should be enabled at warn level")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	if _, err := New("loud"); err == nil {
		t.Fatal("New() expected error for unknown level")
	}
	if _, err := NewFile("loud", filepath.Join(t.TempDir(), "view.log")); err == nil {
		t.Fatal("NewFile() expected error for unknown level")
	}
}

func TestNewFileWritesToPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "view.log")
	logger, err := NewFile("info", path)
	if err != nil {
		t.Fatalf("NewFile() unexpected error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("catalog reloaded")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "catalog reloaded") {
		t.Fatalf("log = %q, want the info line", data)
	}
	if strings.Contains(string(data), "hidden") {
		t.Fatalf("log = %q, debug should be filtered", data)
	}
}
