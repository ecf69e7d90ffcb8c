package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/habitthemes/internal/constants"
)

func TestInit(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")

	err := Init(Config{
		Debug:  false,
		LogDir: logDir,
	})
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	t.Cleanup(func() { Logger = nil })

	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		t.Errorf("Log directory was not created: %s", logDir)
	}

	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}

	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message", "key", "value")
	Error("Test error message")

	data, err := os.ReadFile(filepath.Join(logDir, constants.AppName+".log"))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "Test warning message") {
		t.Error("warning was not written to the log file")
	}
	if strings.Contains(string(data), "Test debug message") {
		t.Error("debug message should be filtered in normal mode")
	}
}

func TestInitDebugMode(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")

	if err := Init(Config{Debug: true, LogDir: logDir}); err != nil {
		t.Fatalf("Failed to initialize logger in debug mode: %v", err)
	}
	t.Cleanup(func() { Logger = nil })

	Debug("Test debug message in debug mode")

	data, err := os.ReadFile(filepath.Join(logDir, constants.AppName+".log"))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "Test debug message in debug mode") {
		t.Error("debug message should be written in debug mode")
	}
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil

	// These should not panic when Logger is nil
	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")
}
