package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_DebugOnlyInDev(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("prod", &buf).Debug("hidden")
	assert.Empty(t, buf.String())

	NewWithWriter("dev", &buf).Debug("shown", "wc", 7)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "shopfloor", rec["service"])
	assert.Equal(t, float64(7), rec["wc"])
}
