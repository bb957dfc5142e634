package transport

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCreateArgs_Success(t *testing.T) {
	user := base64.StdEncoding.EncodeToString([]byte("user"))
	pass := base64.StdEncoding.EncodeToString([]byte("pass"))

	username, password, width, height, keyboard, params, err := parseCreateArgs(
		[]string{user, pass, "1920", "1080", "gb", "frameRate=30"},
	)
	require.NoError(t, err)
	assert.Equal(t, "user", username)
	assert.Equal(t, "pass", password)
	assert.Equal(t, 1920, width)
	assert.Equal(t, 1080, height)
	assert.Equal(t, "gb", keyboard)
	assert.Equal(t, map[string]string{"frameRate": "30"}, params)
}

func TestParseCreateArgs_TooFewFields(t *testing.T) {
	user := base64.StdEncoding.EncodeToString([]byte("user"))
	pass := base64.StdEncoding.EncodeToString([]byte("pass"))

	_, _, _, _, _, _, err := parseCreateArgs([]string{user, pass, "800"})
	assert.Error(t, err, "create with fewer than 5 positional fields must be rejected")
}

func TestParseCreateArgs_BadWidth(t *testing.T) {
	user := base64.StdEncoding.EncodeToString([]byte("user"))
	pass := base64.StdEncoding.EncodeToString([]byte("pass"))

	_, _, _, _, _, _, err := parseCreateArgs([]string{user, pass, "not-a-number", "1080", "gb"})
	assert.Error(t, err)
}
