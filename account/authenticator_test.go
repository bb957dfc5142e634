package account

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePAM struct {
	env []EnvVar
	err error
}

func (f *fakePAM) Authenticate(service, username, password string) ([]EnvVar, error) {
	return f.env, f.err
}

func TestAuthenticator_CredentialsFile_RejectsInsecureMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "creds")
	require.NoError(t, os.WriteFile(path, []byte("secret\n"), 0o644))

	a := NewAuthenticator(&fakePAM{}, "login")
	_, err := a.Authenticate(path, "secret")
	assert.Error(t, err, "world-readable credentials file must be rejected")
}

func TestAuthenticator_CredentialsFile_RejectsWorldWritableParent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o777))
	path := filepath.Join(dir, "creds")
	require.NoError(t, os.WriteFile(path, []byte("secret\n"), 0o600))

	a := NewAuthenticator(&fakePAM{}, "login")
	_, err := a.Authenticate(path, "secret")
	assert.Error(t, err, "world-writable parent directory must be rejected")
}

func TestAuthenticator_CredentialsFile_RejectsWrongPassword(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o700))
	path := filepath.Join(dir, "creds")
	require.NoError(t, os.WriteFile(path, []byte("secret\n"), 0o600))

	a := NewAuthenticator(&fakePAM{}, "login")
	_, err := a.Authenticate(path, "wrong")
	assert.Error(t, err)
}
