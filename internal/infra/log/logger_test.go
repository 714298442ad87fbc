package log

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer

	require.Equal(t, zerolog.DebugLevel, newLogger(&buf, "dev", "", "").GetLevel())
	require.Equal(t, zerolog.InfoLevel, newLogger(&buf, "prod", "", "").GetLevel())
	require.Equal(t, zerolog.WarnLevel, newLogger(&buf, "dev", "", "warn").GetLevel())
	require.Equal(t, zerolog.InfoLevel, newLogger(&buf, "prod", "", "nonsense").GetLevel())
}

func TestNewLoggerAddsService(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "prod", "agent-api", "")

	logger.Info().Msg("hello")

	require.Contains(t, buf.String(), `"service":"agent-api"`)
}
