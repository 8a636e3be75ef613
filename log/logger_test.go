package log

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLevelForVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{0, zapcore.WarnLevel},
		{1, zapcore.InfoLevel},
		{2, zapcore.DebugLevel},
		{5, zapcore.DebugLevel},
		{-1, zapcore.WarnLevel},
	}
	for _, tt := range tests {
		if got := LevelForVerbosity(tt.verbosity); got != tt.want {
			t.Errorf("LevelForVerbosity(%d) = %v, want %v", tt.verbosity, got, tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(zapcore.WarnLevel, &buf)

	logger.Info("should be filtered", nil)
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %s", buf.String())
	}

	logger.Warn("kept", map[string]any{"offset": 42})
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("warn output missing message: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Errorf("output missing level field: %s", buf.String())
	}
}

func TestWithFile(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(zapcore.InfoLevel, &buf).WithFile("game.slp", 2048)

	logger.Info("decoding", nil)
	out := buf.String()
	if !strings.Contains(out, `"file":"game.slp"`) {
		t.Errorf("output missing file field: %s", out)
	}
	if !strings.Contains(out, `"size_bytes":2048`) {
		t.Errorf("output missing size field: %s", out)
	}
}

func TestSugaredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(zapcore.InfoLevel, &buf)

	logger.Sugar().Infof("converted %d frames", 9000)
	if !strings.Contains(buf.String(), "converted 9000 frames") {
		t.Errorf("sugared output wrong: %s", buf.String())
	}
}

func TestNopLoggerIsSilent(t *testing.T) {
	// Must not panic and must not write anywhere.
	Nop().Warn("dropped", map[string]any{"code": 0x7F})
}
