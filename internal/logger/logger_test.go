package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New(Options{Level: "debug", Format: "json", Output: &buf}), "movies")

	log.Info().Int64("written", 1000).Msg("批次已提交")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "movies", entry["component"])
	assert.Equal(t, "info", entry["level"])
	assert.EqualValues(t, 1000, entry["written"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", Format: "json", Output: &buf})

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "loud", Format: "json", Output: &buf})

	log.Debug().Msg("hidden")
	log.Info().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
