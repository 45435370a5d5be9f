package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/config"
)

func TestNewLogger_ServiceField(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Config{ServiceName: "dashboard-api", LogLevel: "info"})

	logger.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "dashboard-api", entry["service"])
	assert.Equal(t, "hello", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Config{LogLevel: "warn"})

	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
	logger.Info().Msg("dropped")
	assert.Empty(t, buf.String())
}

func TestNewLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	logger := newLogger(&bytes.Buffer{}, &config.Config{LogLevel: "chatty"})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
