package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/contoso/jobsite-api/internal/config"
	"github.com/contoso/jobsite-api/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerTo_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.NewLoggerTo(zapcore.AddSync(&buf),
		&config.LoggingConfig{Level: "info", Format: "json"},
		&config.AppConfig{Name: "jobsite", Environment: "test"})
	require.NoError(t, err)

	logger.WithJob(log, 7).Info("photo uploaded", zap.String("key", "k"))
	log.Debug("dropped")
	require.NoError(t, log.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "photo uploaded", entry["msg"])
	assert.Equal(t, "jobsite", entry["app"])
	assert.Equal(t, "test", entry["environment"])
	assert.Equal(t, float64(7), entry["job_id"])
	assert.Equal(t, "k", entry["key"])
}

func TestNewLoggerTo_ConsoleDebug(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.NewLoggerTo(zapcore.AddSync(&buf),
		&config.LoggingConfig{Level: "debug", Format: "console"},
		&config.AppConfig{Environment: "development"})
	require.NoError(t, err)

	logger.WithRequest(log, "GET", "/jobs", "req-1").Debug("listing")
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.Contains(t, out, "listing")
	assert.Contains(t, out, `"request_id": "req-1"`)
}

func TestNewLoggerTo_InvalidLevel(t *testing.T) {
	_, err := logger.NewLoggerTo(zapcore.AddSync(&bytes.Buffer{}),
		&config.LoggingConfig{Level: "loud"},
		&config.AppConfig{})
	assert.ErrorContains(t, err, "invalid log level")
}
