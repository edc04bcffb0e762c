package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG", slog.LevelInfo))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning", slog.LevelInfo))
	assert.Equal(t, slog.LevelError, ParseLevel(" error ", slog.LevelInfo))
	assert.Equal(t, slog.LevelInfo, ParseLevel("", slog.LevelInfo))
}

func TestInitializeWithWriter_Production(t *testing.T) {
	var buf bytes.Buffer
	log := InitializeWithWriter("production", "info", &buf)

	log.Debug("hidden")
	log.Info("parsed file", slog.String("path", "a.raw"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"parsed file"`)
	assert.Contains(t, out, `"path":"a.raw"`)
}

func TestNewServiceLogger(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter("development", "debug", &buf)

	NewServiceLogger("assembler").Info("hello")
	assert.Contains(t, buf.String(), "service=assembler")
}
