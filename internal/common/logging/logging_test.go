package logging

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"WARN", WarnLevel},
		{"WARNING", WarnLevel},
		{"ERROR", ErrorLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.name))
		})
	}
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", DebugLevel.String())
	assert.Equal(t, "INFO", InfoLevel.String())
	assert.Equal(t, "WARN", WarnLevel.String())
	assert.Equal(t, "ERROR", ErrorLevel.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func newBufferLogger(t *testing.T, level Level) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := NewZapLogger(Config{Level: level, Output: &buf})
	require.NoError(t, err)
	return logger, &buf
}

func TestZapLogger_Levels(t *testing.T) {
	logger, buf := newBufferLogger(t, DebugLevel)

	logger.Debug("Evaluating dialplan rule", String("rule", "intl-prefix"))
	logger.Info("Deploy completed", String("tenant_id", "ten-1"))
	logger.Warn("Trunk over capacity", String("trunk", "carrier-a"))
	logger.Error("Reload failed", errors.New("socket closed"), String("tenant_id", "ten-1"))

	out := buf.String()
	assert.Contains(t, out, "DEBUG")
	assert.Contains(t, out, "intl-prefix")
	assert.Contains(t, out, "Deploy completed")
	assert.Contains(t, out, "carrier-a")
	assert.Contains(t, out, "socket closed")
}

func TestZapLogger_FiltersBelowConfiguredLevel(t *testing.T) {
	logger, buf := newBufferLogger(t, WarnLevel)

	logger.Debug("Evaluating time condition")
	logger.Info("Resolved inbound call")
	logger.Warn("Queue has no logged-in agents", String("queue", "support"))

	out := buf.String()
	assert.NotContains(t, out, "Evaluating time condition")
	assert.NotContains(t, out, "Resolved inbound call")
	assert.Contains(t, out, "support")
}

func TestZapLogger_ErrorAttachesCause(t *testing.T) {
	logger, buf := newBufferLogger(t, InfoLevel)

	logger.Error("Rollback failed", errors.New("backup unreadable"),
		String("tenant_id", "ten-1"), String("backup", "/var/backups/ten-1"))

	out := buf.String()
	assert.Contains(t, out, "Rollback failed")
	assert.Contains(t, out, "backup unreadable")
	assert.Contains(t, out, "/var/backups/ten-1")
}

func TestZapLogger_WithFields(t *testing.T) {
	logger, buf := newBufferLogger(t, DebugLevel)

	scoped := logger.
		WithFields(String("component", "deploy")).
		WithFields(String("tenant_id", "ten-1"))
	scoped.Info("Writing configuration", String("file", "dialplan.xml"))

	out := buf.String()
	assert.Contains(t, out, "deploy")
	assert.Contains(t, out, "ten-1")
	assert.Contains(t, out, "dialplan.xml")
}

func TestZapLogger_Named(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewZapLogger(Config{Level: InfoLevel, Output: &buf, Name: "esl"})
	require.NoError(t, err)

	logger.Info("Switch responded")

	assert.Contains(t, buf.String(), "esl")
}

func TestZapLogger_TypedFields(t *testing.T) {
	logger, buf := newBufferLogger(t, InfoLevel)

	logger.Info("Offer round finished",
		String("queue", "support"),
		Int("agents_tried", 3),
		Duration("elapsed", 1500*time.Millisecond),
		Err(errors.New("no agent answered")),
	)

	out := buf.String()
	assert.Contains(t, out, "support")
	assert.Contains(t, out, "3")
	assert.Contains(t, out, "no agent answered")
}

func TestGlobalLogger(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	var buf bytes.Buffer
	logger, err := NewZapLogger(Config{Level: DebugLevel, Output: &buf})
	require.NoError(t, err)
	SetGlobalLogger(logger)

	assert.Equal(t, logger, GetGlobalLogger())

	Debug("Roster loaded", String("queue", "support"))
	Info("Server started", String("port", "8080"))
	Warn("Switch status check slow")
	Error("Deploy failed", errors.New("lock held"), String("tenant_id", "ten-1"))

	out := buf.String()
	assert.Contains(t, out, "Roster loaded")
	assert.Contains(t, out, "8080")
	assert.Contains(t, out, "Switch status check slow")
	assert.Contains(t, out, "lock held")
}
