package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("desconocido"))
}

func TestNamed_AddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := FromWriter(&buf, "info").Named("allocation")

	l.Info().Str("product", "ovo cru").Msg("asignación completada")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "allocation", entry["component"])
	assert.Equal(t, "ovo cru", entry["product"])
	assert.Equal(t, "asignación completada", entry["message"])
}

func TestFromWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := FromWriter(&buf, "error")

	l.Info().Msg("ignorado")
	assert.Zero(t, buf.Len())
}
