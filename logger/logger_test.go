package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	initTo(&buf, "info", "json")

	log.Info().Str("site_id", "abc").Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "abc", line["site_id"])
	assert.Equal(t, "hello", line["message"])
}

func TestInit_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	initTo(&buf, "warn", "json")

	log.Info().Msg("dropped")
	assert.Empty(t, buf.String())

	log.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestInit_BadLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	initTo(&buf, "loud", "json")

	log.Debug().Msg("dropped")
	log.Info().Msg("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}
