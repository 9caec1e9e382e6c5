package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dart-digest/pkg/config"
)

type stage string

func (s stage) String() string { return string(s) }

func newBufferLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg := &config.Config{Env: "test", LogLevel: level, LogFormat: "json"}
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })
	return NewWithWriter(cfg, &buf), &buf
}

// lines decodes one JSON object per log line
func lines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		out = append(out, entry)
	}
	return out
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestNewWithWriter_ServiceFields(t *testing.T) {
	log, buf := newBufferLogger(t, "info")
	log.Info("Starting digest run")

	entries := lines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "dart-digest", entries[0]["service"])
	assert.Equal(t, "test", entries[0]["env"])
	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "Starting digest run", entries[0]["message"])
	assert.Contains(t, entries[0], "time")
}

func TestLevelFiltering(t *testing.T) {
	log, buf := newBufferLogger(t, "warn")
	log.Debug("debug")
	log.Info("info")
	log.Warn("warn")
	log.Error("error")

	entries := lines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "warn", entries[0]["level"])
	assert.Equal(t, "error", entries[1]["level"])
}

func TestRunAndStageFields(t *testing.T) {
	log, buf := newBufferLogger(t, "debug")

	runLog := log.WithRun("run-1", "2025-01-10")
	runLog.WithStage(stage("SCORE")).WithField("count", 3).Info("Stage completed")
	runLog.WithReceipt("20250110000123").WithError(errors.New("timeout")).Warn("Related news lookup failed")

	entries := lines(t, buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "run-1", entries[0]["run_id"])
	assert.Equal(t, "2025-01-10", entries[0]["date"])
	assert.Equal(t, "SCORE", entries[0]["stage"])
	assert.Equal(t, float64(3), entries[0]["count"])

	assert.Equal(t, "run-1", entries[1]["run_id"])
	assert.Equal(t, "20250110000123", entries[1]["receipt_no"])
	assert.Equal(t, "timeout", entries[1]["error"])
	assert.NotContains(t, entries[1], "stage")
}

func TestWithFields_DoesNotMutateParent(t *testing.T) {
	log, buf := newBufferLogger(t, "info")

	log.WithFields(map[string]interface{}{"markets": []string{"KOSPI", "KOSDAQ"}, "force": true}).Info("child")
	log.Info("parent")

	entries := lines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, []interface{}{"KOSPI", "KOSDAQ"}, entries[0]["markets"])
	assert.Equal(t, true, entries[0]["force"])
	assert.NotContains(t, entries[1], "markets")
}

func TestConsoleFormat(t *testing.T) {
	cfg := &config.Config{Env: "development", LogLevel: "info", LogFormat: "console"}
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })
	assert.NotNil(t, New(cfg))
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	assert.NotPanics(t, func() {
		log.WithRun("r", "d").WithStage(stage("FETCH")).Error("discarded")
	})
}
