package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_Root(t *testing.T) {
	acct, err := Lookup("root")
	require.NoError(t, err)
	assert.Equal(t, "root", acct.Username)
	assert.Equal(t, uint32(0), acct.UID)
	assert.NotEmpty(t, acct.HomeDir)
}

func TestLookup_UnknownUser(t *testing.T) {
	_, err := Lookup("no-such-webx-router-test-user")
	assert.Error(t, err)
}

func TestLoginShell_UnknownUser(t *testing.T) {
	assert.Empty(t, loginShell("no-such-webx-router-test-user"))
}
