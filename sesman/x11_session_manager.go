package sesman

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ILLGrenoble/webx-router/account"
	"github.com/ILLGrenoble/webx-router/logger"
)

// settleDelay is the pause between spawning Xorg and spawning the window
// manager, giving the X server time to start accepting connections,
// per spec §4.3.
var settleDelay = time.Second

// Manager deduplicates per-user X11 sessions and orchestrates their
// two-step startup, per spec §4.3.
type Manager struct {
	mu       sync.Mutex
	sessions []*X11Session
	xorg     *XorgService
}

// NewManager builds a Manager backed by xorg.
func NewManager(xorg *XorgService) *Manager {
	return &Manager{xorg: xorg}
}

// CreateSession returns the existing session for acct.UID if one exists,
// otherwise spawns Xorg, publishes the partial (no-WM) session, sleeps for
// the server to settle, then spawns the window manager and attaches it.
// The sessions lock is released during the settle sleep so other callers
// are not blocked on it, per spec §4.3 and §5.
func (m *Manager) CreateSession(acct account.Account, resolution ScreenResolution, env []account.EnvVar) (*X11Session, error) {
	m.mu.Lock()
	if existing := m.findByUID(acct.UID); existing != nil {
		m.mu.Unlock()
		return existing, nil
	}
	m.mu.Unlock()

	sessionID := uuid.New().String()
	display, xauthPath, xorgHandle, err := m.xorg.Execute(acct, resolution, env, sessionID)
	if err != nil {
		return nil, err
	}

	session := &X11Session{
		ID:                 sessionID,
		Account:            acct,
		DisplayID:          displayName(display),
		XauthorityFilePath: xauthPath,
		Xorg:               xorgHandle,
		Resolution:         resolution,
	}

	m.mu.Lock()
	m.sessions = append(m.sessions, session)
	m.mu.Unlock()

	time.Sleep(settleDelay)

	wmHandle, err := m.xorg.SpawnWindowManager(acct, display, xauthPath, env, sessionID)
	if err != nil {
		m.removeByID(sessionID)
		_ = xorgHandle.Kill()
		return nil, err
	}

	m.mu.Lock()
	session.WindowManager = wmHandle
	m.mu.Unlock()

	return session, nil
}

// ByUID returns the live session for uid, if any.
func (m *Manager) ByUID(uid uint32) *X11Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findByUID(uid)
}

// findByUID must be called with m.mu held.
func (m *Manager) findByUID(uid uint32) *X11Session {
	for _, s := range m.sessions {
		if s.Account.UID == uid {
			return s
		}
	}
	return nil
}

// RemoveByUsername kills and removes the session owned by username, if
// any. It is idempotent per spec §8: a second call is a no-op.
func (m *Manager) RemoveByUsername(username string) {
	m.mu.Lock()
	var target *X11Session
	idx := -1
	for i, s := range m.sessions {
		if s.Account.Username == username {
			target, idx = s, i
			break
		}
	}
	if idx >= 0 {
		m.sessions = append(m.sessions[:idx], m.sessions[idx+1:]...)
	}
	m.mu.Unlock()

	if target != nil {
		killSession(target)
	}
}

func (m *Manager) removeByID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.sessions {
		if s.ID == id {
			m.sessions = append(m.sessions[:i], m.sessions[i+1:]...)
			return
		}
	}
}

// KillAll terminates every live session: window manager first, then
// Xorg, best-effort, per spec §4.3. Errors are logged, never propagated,
// so shutdown always drains every process.
func (m *Manager) KillAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = nil
	m.mu.Unlock()

	for _, s := range sessions {
		killSession(s)
	}
}

func killSession(s *X11Session) {
	if s.WindowManager != nil {
		if err := s.WindowManager.Kill(); err != nil {
			logger.Warnw("failed to kill window manager", "session", s.ID, "error", err)
		}
	}
	if err := s.Xorg.Kill(); err != nil {
		logger.Warnw("failed to kill xorg", "session", s.ID, "error", err)
	}
}

func displayName(n int) string {
	return fmt.Sprintf(":%d", n)
}
