package log

import (
	"log/slog"
	"strings"
	"testing"
)

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		if got := ToLogLevel(tt.level); got != tt.want {
			t.Errorf("ToLogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestToLogLevelPanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("ToLogLevel should panic on an unknown level")
		}
	}()
	ToLogLevel("verbose")
}

func TestTestLoggerCapturesOutput(t *testing.T) {
	logger, buffer := NewTestLogger(LevelInfo)

	logger.Info("fitting model", SamplesKey, 60, ClassesKey, 3)
	logger.Debug("should be filtered")

	output := buffer.String()
	if !strings.Contains(output, "INFO fitting model") {
		t.Errorf("output %q should contain the info record", output)
	}
	if !strings.Contains(output, SamplesKey+"=60") {
		t.Errorf("output %q should contain the samples field", output)
	}
	if strings.Contains(output, "should be filtered") {
		t.Errorf("output %q should not contain debug records below the level", output)
	}
}

func TestTestLoggerWith(t *testing.T) {
	logger, buffer := NewTestLogger(LevelDebug)
	named := logger.With(ComponentKey, "plda")

	named.Warn("cache refresh failed")

	output := buffer.String()
	if !strings.Contains(output, ComponentKey+"=plda") {
		t.Errorf("output %q should carry the bound component field", output)
	}
}

func TestProviderSwap(t *testing.T) {
	provider, buffer := NewTestLoggerProvider(LevelDebug)
	SetLoggerProvider(provider)
	defer SetLoggerProvider(NewSlogProvider())

	logger := GetLoggerWithName("metrics")
	logger.Info("computing detection costs")

	output := buffer.String()
	if !strings.Contains(output, "computing detection costs") {
		t.Errorf("output %q should contain the record", output)
	}
	if !strings.Contains(output, ComponentKey+"=metrics") {
		t.Errorf("output %q should carry the logger name", output)
	}
}
