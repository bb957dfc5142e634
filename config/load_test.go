package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8787, cfg.Transport.Ports.Connector)
	assert.Greater(t, cfg.Sesman.Xorg.DisplayOffset, 0)
	assert.NotEmpty(t, cfg.Sesman.Xorg.WindowManager)
	assert.NotEmpty(t, cfg.Engine.Path)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	t.Setenv("WEBX_ROUTER_TRANSPORT_PORTS_CONNECTOR", "9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Transport.Ports.Connector)
}

func TestLoad_RejectsInvalidPort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("transport:\n  ports:\n    connector: 0\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
