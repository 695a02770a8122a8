package log

import (
	"context"
	"fmt"
	"testing"
)

func TestTestLoggerLevels(t *testing.T) {
	logger, buffer := NewTestLogger(LevelDebug)

	logger.Debug("debug message", ChainKey, 0)
	logger.Info("info message", PhaseKey, "warmup")
	logger.Warn("warning message", DivergencesKey, 3)
	logger.Error("error message", "error", fmt.Errorf("bad init"))

	if buffer.String() == "" {
		t.Fatal("expected log output, got empty string")
	}

	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		if !logger.ContainsMessage(msg) {
			t.Errorf("%q not found in output", msg)
		}
	}

	if !logger.ContainsField(PhaseKey, "warmup") {
		t.Errorf("expected field %s=warmup", PhaseKey)
	}
	// JSON numbers come back as float64.
	if !logger.ContainsField(DivergencesKey, 3.0) {
		t.Errorf("expected field %s=3", DivergencesKey)
	}
}

func TestTestLoggerLevelFiltering(t *testing.T) {
	logger, _ := NewTestLogger(LevelWarn)

	logger.Debug("too quiet")
	logger.Info("still too quiet")
	logger.Warn("loud enough")

	if logger.ContainsMessage("too quiet") {
		t.Error("debug record should be filtered")
	}
	if !logger.ContainsMessage("loud enough") {
		t.Error("warn record should pass")
	}

	if logger.Enabled(context.Background(), LevelInfo) {
		t.Error("Enabled(info) should be false at warn level")
	}
	if !logger.Enabled(context.Background(), LevelError) {
		t.Error("Enabled(error) should be true at warn level")
	}
}

func TestTestLoggerWith(t *testing.T) {
	logger, _ := NewTestLogger(LevelInfo)
	chainLogger := logger.With(ChainKey, 2, VariantKey, "screening")

	chainLogger.Info("sampling started")

	if !logger.ContainsField(ChainKey, 2.0) {
		t.Error("With fields should appear on subsequent records")
	}
	if !logger.ContainsField(VariantKey, "screening") {
		t.Error("With fields should appear on subsequent records")
	}

	entries, err := logger.GetLogEntries()
	if err != nil {
		t.Fatalf("GetLogEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
	}
	for _, tt := range tests {
		if got := ToLogLevel(tt.in); got != tt.want {
			t.Errorf("ToLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetDefault(t *testing.T) {
	orig := GetLogger()
	defer SetDefault(orig)

	testLogger, _ := NewTestLogger(LevelInfo)
	SetDefault(testLogger)

	GetLogger().Info("hello from default")
	if !testLogger.ContainsMessage("hello from default") {
		t.Error("default logger was not replaced")
	}

	SetDefault(nil)
	if GetLogger() == Logger(testLogger) {
		t.Error("SetDefault(nil) should restore the slog default")
	}
}
