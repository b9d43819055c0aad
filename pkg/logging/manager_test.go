package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLoggingManager(t *testing.T) {
	t.Run("Initialization", func(t *testing.T) {
		manager := NewLoggingManager()
		if manager.GetLogLevel() != LogLevelINFO {
			t.Error("Expected default log level to be INFO")
		}
	})

	t.Run("GetLogger creates and caches loggers", func(t *testing.T) {
		manager := NewLoggingManagerWithOutput(&bytes.Buffer{})
		logger1 := manager.GetLogger("test")
		logger2 := manager.GetLogger("test")

		if logger1 != logger2 {
			t.Error("Expected GetLogger to return cached logger")
		}
	})

	t.Run("SetLogLevel", func(t *testing.T) {
		manager := NewLoggingManager()
		manager.SetLogLevel("debug")
		if manager.GetLogLevel() != LogLevelDEBUG {
			t.Error("Expected log level to be DEBUG")
		}

		manager.SetLogLevel("invalid")
		if manager.GetLogLevel() != LogLevelINFO {
			t.Error("Expected invalid log level to default to INFO")
		}
	})

	t.Run("SetGlobalContext", func(t *testing.T) {
		manager := NewLoggingManagerWithOutput(&bytes.Buffer{})
		manager.SetGlobalContext("service", "pattern-atlas-service")

		logger := manager.GetLogger("test")
		if logger.context["service"] != "pattern-atlas-service" {
			t.Error("Expected global context to be applied to new loggers")
		}
	})

	t.Run("shouldLog respects log level", func(t *testing.T) {
		manager := NewLoggingManager()
		manager.SetLogLevel("WARN")

		if manager.shouldLog(LogLevelDEBUG) {
			t.Error("Expected DEBUG to be filtered when level is WARN")
		}
		if manager.shouldLog(LogLevelINFO) {
			t.Error("Expected INFO to be filtered when level is WARN")
		}
		if !manager.shouldLog(LogLevelERROR) {
			t.Error("Expected ERROR to pass when level is WARN")
		}
	})
}

func TestLoggingManager_FilteringAndStats(t *testing.T) {
	var buf bytes.Buffer
	manager := NewLoggingManagerWithOutput(&buf)
	manager.SetLogLevel("WARN")

	logger := manager.GetLogger("registry")
	logger.Info("dropped")
	logger.Warn("kept")
	logger.WithContext("pattern_id", "singleton").Error("also kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log lines, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[1]), &entry); err != nil {
		t.Fatalf("Expected JSON log line: %v", err)
	}
	if entry["component"] != "registry" || entry["pattern_id"] != "singleton" {
		t.Errorf("Unexpected log entry: %v", entry)
	}

	stats := manager.GetStats()
	if stats.TotalMessages != 2 {
		t.Errorf("Expected 2 counted messages, got %d", stats.TotalMessages)
	}
	if stats.ErrorCount != 1 {
		t.Errorf("Expected 1 error, got %d", stats.ErrorCount)
	}
	if stats.MessagesByLogger["registry"] != 2 {
		t.Errorf("Expected 2 messages for registry, got %d", stats.MessagesByLogger["registry"])
	}

	manager.ResetStats()
	if manager.GetStats().TotalMessages != 0 {
		t.Error("Expected stats to reset")
	}
}

func TestLoggingManager_CatalogHelpers(t *testing.T) {
	var buf bytes.Buffer
	manager := NewLoggingManagerWithOutput(&buf)

	manager.LogCatalogLoad("builtin", 3, nil, 5*time.Millisecond)
	manager.LogCatalogLoad("dir", 1, []string{"a", "b", "c", "d", "e", "f"}, time.Millisecond)
	manager.LogCatalogRefresh([]string{"catalog/observer.yaml"}, 4, time.Millisecond, true)

	output := buf.String()
	for _, expected := range []string{
		"Catalog load completed successfully",
		"Catalog load completed with errors",
		"Catalog refresh completed",
		"catalog/observer.yaml",
	} {
		if !strings.Contains(output, expected) {
			t.Errorf("Expected output to contain %q", expected)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"DEBUG":   LogLevelDEBUG,
		"info":    LogLevelINFO,
		"Warning": LogLevelWARN,
		"error":   LogLevelERROR,
		"":        LogLevelINFO,
	}
	for input, expected := range tests {
		if got := ParseLogLevel(input); got != expected {
			t.Errorf("ParseLogLevel(%q) = %s, want %s", input, got, expected)
		}
	}
}
