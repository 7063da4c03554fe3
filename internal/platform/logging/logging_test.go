package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_ConsoleOnly(t *testing.T) {
	logger, err := New(Config{Level: "DEBUG"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer logger.Close()

	if logger.Slog() == nil {
		t.Error("Slog() should not be nil")
	}
	if logger.logFile != nil {
		t.Error("no log file should be opened without a directory")
	}

	// Exercise the printf helpers.
	logger.Debug("debug %d", 1)
	logger.Info("[TTS] tagged message")
	logger.Warn("warn")
	logger.Error("error: %v", os.ErrNotExist)
}

func TestNew_FileOutput(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Config{Level: "INFO", Dir: dir, Filename: "test.log"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Info("hello from the file logger")
	if err := logger.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "test.log"))
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if !strings.Contains(string(data), "hello from the file logger") {
		t.Errorf("log file does not contain the message: %s", data)
	}
}

func TestConfigLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "DEBUG", want: "DEBUG"},
		{in: "debug", want: "DEBUG"},
		{in: "warn", want: "WARN"},
		{in: "bogus", want: "INFO"},
		{in: "", want: "INFO"},
	}

	for _, tt := range tests {
		if got := configLevel(tt.in).String(); got != tt.want {
			t.Errorf("configLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
