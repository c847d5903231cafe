package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"

	"github.com/zhouzirui/agent-chat/backend/internal/config"
)

func TestSetupWriterLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWriter(config.LogConfig{Level: "warn"}, &buf)

	logger.Info().Msg("hidden")
	log.Warn().Str("component", "store").Msg("visible")

	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"component":"store"`)
}

func TestSetupWriterFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWriter(config.LogConfig{Level: "chatty"}, &buf)

	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
