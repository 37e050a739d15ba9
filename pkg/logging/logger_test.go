package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lines decodes the JSON entries written to buf.
func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		out = append(out, entry)
	}
	return out
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, LevelInfo, cfg.Level)
	assert.False(t, cfg.Pretty)
	assert.NotNil(t, cfg.Output)
}

func TestLogLevel_Zerolog(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.level.Zerolog())
		})
	}
}

func TestSetup_Fields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{
		Level:   LevelInfo,
		Output:  buf,
		Service: "nomad-proxy",
		Version: "1.2.0",
	})

	logger.Info().Str("request_id", "req_1_1").Msg("Cache hit")

	entries := lines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "nomad-proxy", entries[0]["service"])
	assert.Equal(t, "1.2.0", entries[0]["version"])
	assert.Equal(t, "req_1_1", entries[0]["request_id"])
	assert.Equal(t, "info", entries[0]["level"])
	assert.Contains(t, entries[0], "time")
}

func TestSetup_Pretty(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelInfo, Output: buf, Pretty: true})

	logger.Info().Msg("Starting Nomad proxy")

	assert.Contains(t, buf.String(), "Starting Nomad proxy")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())), "console output is not JSON")
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelWarn, Output: buf})
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	logger := NewLogger("nomad-client")
	logger.Debug().Msg("Executing request")
	logger.Info().Msg("Replaying request after session refresh")
	logger.Warn().Msg("Rate limited, retrying")
	logger.Error().Msg("Request failed")

	entries := lines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "Rate limited, retrying", entries[0]["message"])
	assert.Equal(t, "Request failed", entries[1]["message"])
	for _, e := range entries {
		assert.Equal(t, "nomad-client", e["component"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"trace", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}
}
