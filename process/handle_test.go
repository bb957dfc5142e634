package process

import (
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle_IsRunning_AndKill(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	require.NoError(t, cmd.Start())
	h := New(cmd)

	assert.Equal(t, Running, h.IsRunning())
	assert.Equal(t, cmd.Process.Pid, h.PID())

	require.NoError(t, h.Kill())

	// Reap the process so IsRunning observes the exit rather than racing
	// the kernel's delivery of SIGTERM.
	_ = cmd.Wait()
	assert.Equal(t, Exited, h.IsRunning())
}

func TestHandle_Kill_Idempotent(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	require.NoError(t, cmd.Start())
	h := New(cmd)

	require.NoError(t, h.Kill())
	_ = cmd.Wait()
	require.NoError(t, h.Kill(), "killing an already-exited process must be a no-op")
}

func TestHandle_IsRunning_AlreadyExited(t *testing.T) {
	cmd := exec.Command("true")
	require.NoError(t, cmd.Start())
	h := New(cmd)
	_ = cmd.Wait()

	// Allow the kernel a moment to finish reaping before the signal-0
	// liveness probe runs.
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, Exited, h.IsRunning())
}
