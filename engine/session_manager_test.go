package engine

import (
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ILLGrenoble/webx-router/account"
	"github.com/ILLGrenoble/webx-router/process"
	"github.com/ILLGrenoble/webx-router/sesman"
)

func newTestHandle(t *testing.T) *process.Handle {
	t.Helper()
	cmd := exec.Command("sleep", "30")
	require.NoError(t, cmd.Start())
	t.Cleanup(func() { _ = cmd.Process.Kill(); _ = cmd.Wait() })
	return process.New(cmd)
}

func newTestSession(t *testing.T, secret, username string) *EngineSession {
	t.Helper()
	x11 := &sesman.X11Session{
		ID:         "x11-" + secret,
		Account:    account.Account{Username: username, UID: 42},
		DisplayID:  ":10",
		Xorg:       newTestHandle(t),
		Resolution: sesman.ScreenResolution{Width: 1024, Height: 768},
	}
	eng := &Engine{Process: newTestHandle(t), IPCPath: t.TempDir() + "/engine.ipc"}
	return NewEngineSession(secret, x11, eng)
}

func TestManager_UpdateActivity_MatchesDashStrippedHex(t *testing.T) {
	m := NewManager(sesman.NewManager(nil), nil, 0)
	session := newTestSession(t, "0123abcd-0000-0000-0000-000000000000", "alice")
	m.sessions = append(m.sessions, session)

	before := session.LastActivityS()
	session.lastActivityS = before - 1000

	m.UpdateActivity("0123abcd000000000000000000000000")

	assert.Greater(t, session.LastActivityS(), before-1000)
}

func TestManager_UpdateActivity_UnknownIDIgnored(t *testing.T) {
	m := NewManager(sesman.NewManager(nil), nil, 0)
	session := newTestSession(t, "0123abcd-0000-0000-0000-000000000000", "alice")
	session.lastActivityS = 1
	m.sessions = append(m.sessions, session)

	m.UpdateActivity("deadbeefdeadbeefdeadbeefdeadbeef")

	assert.Equal(t, int64(1), session.LastActivityS())
}

func TestManager_Status_And_List(t *testing.T) {
	m := NewManager(sesman.NewManager(nil), nil, 0)
	session := newTestSession(t, "secret-1", "alice")
	session.SetStatus(Ready)
	m.sessions = append(m.sessions, session)

	status, ok := m.Status("secret-1")
	require.True(t, ok)
	assert.Equal(t, Ready, status)

	_, ok = m.Status("no-such-secret")
	assert.False(t, ok)

	list := m.List()
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].Username)
	assert.Equal(t, uint32(42), list[0].UID)
	assert.Equal(t, 1024, list[0].Width)
}

func TestManager_EvictInactive_RemovesStaleSessions(t *testing.T) {
	x11 := sesman.NewManager(nil)
	m := NewManager(x11, nil, 5)

	fresh := newTestSession(t, "fresh", "bob")
	stale := newTestSession(t, "stale", "alice")
	stale.lastActivityS = time.Now().Unix() - 1000

	m.sessions = append(m.sessions, fresh, stale)

	m.evictInactive()

	require.Len(t, m.sessions, 1)
	assert.Equal(t, "fresh", m.sessions[0].Secret)
}

func TestManager_EvictInactive_DisabledWhenAutoLogoutNonPositive(t *testing.T) {
	m := NewManager(sesman.NewManager(nil), nil, 0)
	stale := newTestSession(t, "stale", "alice")
	stale.lastActivityS = time.Now().Unix() - 1000
	m.sessions = append(m.sessions, stale)

	m.evictInactive()

	assert.Len(t, m.sessions, 1)
}
