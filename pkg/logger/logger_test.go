package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Format: "json", Output: &buf})

	l.Info().Msg("hidden")
	l.Warn().Str("collection", "doctors").Msg("slow")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "slow", line["message"])
	assert.Equal(t, "doctors", line["collection"])
	assert.Equal(t, "clinic-console", line["service"])
}

func TestNewDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "nonsense", Format: "json", Output: &buf})
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}
