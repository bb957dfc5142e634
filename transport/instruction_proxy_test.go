package transport

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSessionHex(t *testing.T) {
	raw := make([]byte, 16)
	for i := range raw {
		raw[i] = byte(i)
	}
	frame := string(raw) + "trailing payload"

	got, ok := extractSessionHex(frame)
	assert.True(t, ok)
	assert.Equal(t, hex.EncodeToString(raw), got)
	assert.Equal(t, sessionIDLen*2, len(got))
}

func TestExtractSessionHex_ShortFrame(t *testing.T) {
	_, ok := extractSessionHex("short")
	assert.False(t, ok, "frames shorter than 16 bytes carry no session id")
}

func TestExtractSessionHex_ExactlySessionIDLen(t *testing.T) {
	frame := string(make([]byte, sessionIDLen))
	_, ok := extractSessionHex(frame)
	assert.True(t, ok)
}
