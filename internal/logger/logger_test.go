package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		redacted bool
	}{
		{name: "client secret", key: "clientSecret", redacted: true},
		{name: "access key", key: "accessKey", redacted: true},
		{name: "password", key: "password", redacted: true},
		{name: "api key mixed case", key: "ApiKey", redacted: true},
		{name: "authorization header", key: "authorization", redacted: true},
		{name: "dotted path uses final segment", key: "sierra.apiKey", redacted: true},
		{name: "plain attribute passes", key: "systemId", redacted: false},
		{name: "substring does not match", key: "passwordHint", redacted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Redact(slog.String(tt.key, "s3cret"))
			if tt.redacted {
				assert.Equal(t, "[REDACTED]", got.Value.String())
			} else {
				assert.Equal(t, "s3cret", got.Value.String())
			}
			assert.Equal(t, tt.key, got.Key)
		})
	}
}

func TestJSONHandlerRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer:      &buf,
		Format:      "json",
		Environment: "production",
		Level:       slog.LevelInfo,
	})

	log.Info("token fetched", "systemId", "chinook", "clientSecret", "hunter2")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "chinook", entry["systemId"])
	assert.Equal(t, "[REDACTED]", entry["clientSecret"])
	assert.NotContains(t, buf.String(), "hunter2")
}

func TestPrettyHandlerRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer:      &buf,
		Environment: "development",
		Level:       slog.LevelInfo,
	})

	log.Info("auth", "password", "hunter2")

	assert.Contains(t, buf.String(), "[REDACTED]")
	assert.NotContains(t, buf.String(), "hunter2")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestFormatDefaults(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer:      &buf,
		Environment: "production",
	})

	log.Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "production should default to JSON output")
	assert.Equal(t, "hello", entry["msg"])
}
