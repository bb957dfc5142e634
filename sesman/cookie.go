package sesman

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/ILLGrenoble/webx-router/errors"
)

// createCookie produces a 32-character lowercase-hex xauth cookie, per
// spec §8's "create_cookie() produces 32 chars from [0-9a-f]".
func createCookie() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.System(err, "generate xauth cookie")
	}
	return hex.EncodeToString(buf), nil
}
