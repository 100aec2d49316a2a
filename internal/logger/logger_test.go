package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithWriter(t *testing.T) {
	t.Run("defaults_to_info_and_console", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "")
		t.Setenv("LOG_FORMAT", "")

		var buf bytes.Buffer
		InitWithWriter(&buf)

		assert.Equal(t, "info", Logger.GetLevel().String())
		assert.Equal(t, "info", zlog.Logger.GetLevel().String())

		Logger.Info().Msg("hello")
		assert.Contains(t, buf.String(), "hello")
		assert.False(t, strings.HasPrefix(strings.TrimSpace(buf.String()), "{"))
	})

	t.Run("json_format_emits_service_field", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("LOG_FORMAT", "json")

		var buf bytes.Buffer
		InitWithWriter(&buf)
		zlog.Debug().Str("event_id", "evt-1").Msg("cache miss")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "booking-service", line["service"])
		assert.Equal(t, "evt-1", line["event_id"])
		assert.Equal(t, "debug", line["level"])
	})

	t.Run("invalid_level_falls_back_to_info", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "loud")
		t.Setenv("LOG_FORMAT", "json")

		var buf bytes.Buffer
		InitWithWriter(&buf)
		assert.Equal(t, "info", Logger.GetLevel().String())
	})
}
