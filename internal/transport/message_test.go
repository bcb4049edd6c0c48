package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTriggerValid(t *testing.T) {
	c, err := NewCodec("105-x")
	require.NoError(t, err)

	trig, err := c.ParseTrigger("{BC}&20250810120000&105-x&payload")
	require.NoError(t, err)
	assert.Equal(t, "20250810120000", trig.Timestamp)
	assert.Equal(t, "105-x", trig.Channel)
	assert.Equal(t, "payload", trig.Payload)
}

func TestParseTriggerEmptyPayload(t *testing.T) {
	c, err := NewCodec("105-x")
	require.NoError(t, err)

	trig, err := c.ParseTrigger("{BC}&123&105-x&")
	require.NoError(t, err)
	assert.Empty(t, trig.Payload)
}

func TestParseTriggerRejectsOtherChannels(t *testing.T) {
	c, err := NewCodec("105-x")
	require.NoError(t, err)

	tests := []string{
		"{BC}&123&106-x&payload",
		"{BC}&abc&105-x&payload",
		"{CHJG}&123&105-x&payload",
		"garbage",
		"",
	}
	for _, raw := range tests {
		_, err := c.ParseTrigger(raw)
		assert.Error(t, err, raw)
	}
}

func TestNewCodecEmptyChannel(t *testing.T) {
	_, err := NewCodec("")
	assert.Error(t, err)
}

func TestFormatResult(t *testing.T) {
	msg := FormatResult("20250810120000", "2", "1", "2144", 6, "#1&21441")
	assert.Equal(t, "{CHJG}&20250810120000&2&1&2144&6&#1&21441", msg)
}

func TestFormatEmptyResult(t *testing.T) {
	msg := FormatEmptyResult("20250810120000", "2")
	assert.Equal(t, "{CHJG}&20250810120000&2&0&NULL&0&NULL", msg)
}
