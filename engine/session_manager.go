package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ILLGrenoble/webx-router/account"
	"github.com/ILLGrenoble/webx-router/errors"
	"github.com/ILLGrenoble/webx-router/logger"
	"github.com/ILLGrenoble/webx-router/process"
	"github.com/ILLGrenoble/webx-router/sesman"
)

// createTimeout bounds the synchronous create path, per spec §4.6 and §5.
const createTimeout = 15 * time.Second

// sweepInterval is how often the startup-sweep / inactivity-eviction
// goroutine wakes, per spec §4.6 ("every 500 ms") and §5.
const sweepInterval = 500 * time.Millisecond

// spawnTries is the retry budget for multiTrySpawnEngine and
// ValidateEngine, per spec §4.6.
const spawnTries = 3

// Manager is the heart of the system: it maps secret -> (X11Session,
// Engine), enforces one session per user, drives the async-start state
// machine, and evicts inactive sessions, per spec §4.6.
type Manager struct {
	mu       sync.Mutex
	sessions []*EngineSession

	creationMu sync.Mutex
	inFlight   []*SessionCreationProcess

	x11         *sesman.Manager
	engineSvc   *Service
	autoLogoutS int64

	cancel context.CancelFunc
}

// NewManager builds a Manager backed by x11 and engineSvc. autoLogoutS <= 0
// disables the inactivity eviction sweep, per spec §4.6.
func NewManager(x11 *sesman.Manager, engineSvc *Service, autoLogoutS int64) *Manager {
	return &Manager{x11: x11, engineSvc: engineSvc, autoLogoutS: autoLogoutS}
}

// Start launches the background startup/eviction sweep goroutine, tracked
// on wg so callers can join it during shutdown.
func (m *Manager) Start(ctx context.Context, wg *sync.WaitGroup) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.drainStartupQueue()
				m.evictInactive()
			}
		}
	}()
}

// Stop cancels the background sweep goroutine; callers should still join
// via the WaitGroup passed to Start.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

// GetOrCreate is the synchronous create path (spec §4.6): it blocks the
// caller for up to createTimeout while the engine starts and validates.
func (m *Manager) GetOrCreate(acct account.Account, resolution sesman.ScreenResolution, env []account.EnvVar, cfg SessionConfig) (string, error) {
	type result struct {
		secret string
		err    error
	}
	done := make(chan result, 1)

	go func() {
		secret, err := m.createSync(acct, resolution, env, cfg)
		done <- result{secret, err}
	}()

	select {
	case r := <-done:
		return r.secret, r.err
	case <-time.After(createTimeout):
		return "", errors.EngineSession(errors.New("timed out waiting for engine session"), "get_or_create")
	}
}

func (m *Manager) createSync(acct account.Account, resolution sesman.ScreenResolution, env []account.EnvVar, cfg SessionConfig) (string, error) {
	x11Session, existingSecret, found, err := m.prepare(acct, resolution, env)
	if err != nil {
		return "", err
	}
	if found {
		return existingSecret, nil
	}

	secret := uuid.New().String()
	eng, err := m.multiTrySpawnEngine(x11Session, secret, cfg)
	if err != nil {
		return "", err
	}
	if err := ValidateEngine(eng, spawnTries); err != nil {
		_ = eng.Close()
		return "", err
	}

	session := NewEngineSession(secret, x11Session, eng)
	session.SetStatus(Ready)
	m.mu.Lock()
	m.sessions = append(m.sessions, session)
	m.mu.Unlock()

	return secret, nil
}

// CreateAsync implements the asynchronous create path: it performs steps
// 1-3 of §4.6 synchronously (X11 session creation, existing/stale
// dedup), then enqueues a SessionCreationProcess and returns immediately
// with status Starting. The background sweep started by Start drives the
// rest of the state machine to completion.
func (m *Manager) CreateAsync(acct account.Account, resolution sesman.ScreenResolution, env []account.EnvVar, cfg SessionConfig) (string, Status, error) {
	x11Session, existingSecret, found, err := m.prepare(acct, resolution, env)
	if err != nil {
		return "", Starting, err
	}
	if found {
		m.mu.Lock()
		status := Starting
		for _, s := range m.sessions {
			if s.Secret == existingSecret {
				status = s.GetStatus()
				break
			}
		}
		m.mu.Unlock()
		return existingSecret, status, nil
	}

	secret := uuid.New().String()
	m.creationMu.Lock()
	m.inFlight = append(m.inFlight, &SessionCreationProcess{
		X11SessionID:  x11Session.ID,
		Username:      acct.Username,
		DisplayID:     x11Session.DisplayID,
		SessionConfig: cfg,
		Secret:        secret,
	})
	m.creationMu.Unlock()

	return secret, Starting, nil
}

// prepare implements spec §4.6 steps 1-3: create/reuse the X11 session,
// then check for an existing engine session (return its secret) or a
// stale one for the same user (stop it and remove it).
func (m *Manager) prepare(acct account.Account, resolution sesman.ScreenResolution, env []account.EnvVar) (*sesman.X11Session, string, bool, error) {
	x11Session, err := m.x11.CreateSession(acct, resolution, env)
	if err != nil {
		return nil, "", false, err
	}

	m.mu.Lock()
	for _, s := range m.sessions {
		if s.X11Session.Account.Username == acct.Username &&
			s.X11Session.ID == x11Session.ID &&
			s.X11Session.DisplayID == x11Session.DisplayID {
			secret := s.Secret
			m.mu.Unlock()
			return x11Session, secret, true, nil
		}
	}

	var stale *EngineSession
	staleIdx := -1
	for i, s := range m.sessions {
		if s.X11Session.Account.Username == acct.Username {
			stale, staleIdx = s, i
			break
		}
	}
	if staleIdx >= 0 {
		m.sessions = append(m.sessions[:staleIdx], m.sessions[staleIdx+1:]...)
	}
	m.mu.Unlock()

	if stale != nil {
		_ = stale.Engine.Close()
	}

	return x11Session, "", false, nil
}

// multiTrySpawnEngine attempts to spawn and settle an engine up to
// spawnTries times, per spec §4.6: each attempt sleeps attempt*1s then
// checks liveness; a permanent spawn failure aborts immediately.
func (m *Manager) multiTrySpawnEngine(x11Session *sesman.X11Session, secret string, cfg SessionConfig) (*Engine, error) {
	var lastErr error
	for attempt := 1; attempt <= spawnTries; attempt++ {
		eng, err := m.engineSvc.SpawnEngine(x11Session, secret, cfg)
		if err != nil {
			return nil, err
		}
		time.Sleep(time.Duration(attempt) * time.Second)
		if eng.Process.IsRunning() == process.Running {
			return eng, nil
		}
		lastErr = errors.EngineSession(errors.New("engine exited before settling"), "spawn engine")
		_ = eng.Close()
	}
	return nil, lastErr
}

// drainStartupQueue is the background half of CreateAsync: it completes
// every in-flight SessionCreationProcess the same way createSync does,
// transitioning each to status Ready.
func (m *Manager) drainStartupQueue() {
	m.creationMu.Lock()
	pending := m.inFlight
	m.inFlight = nil
	m.creationMu.Unlock()

	for _, rec := range pending {
		x11Session := m.x11.ByUID(m.uidFor(rec))
		if x11Session == nil || x11Session.ID != rec.X11SessionID {
			logger.Warnw("abandoning session creation: x11 session gone", "secret", rec.Secret)
			continue
		}

		eng, err := m.multiTrySpawnEngine(x11Session, rec.Secret, rec.SessionConfig)
		if err != nil {
			logger.Warnw("abandoning session creation: spawn failed", "secret", rec.Secret, "error", err)
			continue
		}
		if err := ValidateEngine(eng, spawnTries); err != nil {
			logger.Warnw("abandoning session creation: validate failed", "secret", rec.Secret, "error", err)
			_ = eng.Close()
			continue
		}

		session := NewEngineSession(rec.Secret, x11Session, eng)
		session.SetStatus(Ready)
		m.mu.Lock()
		m.sessions = append(m.sessions, session)
		m.mu.Unlock()
	}
}

// uidFor resolves the uid behind an in-flight record's username. Looked up
// fresh each sweep tick since account.Lookup is cheap relative to the
// 500ms cadence.
func (m *Manager) uidFor(rec *SessionCreationProcess) uint32 {
	acct, err := account.Lookup(rec.Username)
	if err != nil {
		return 0
	}
	return acct.UID
}

// Ping sends "ping" through secret's engine communicator, evicting the
// session on any non-"pong" reply or transport failure, per spec §4.6.
// The send happens while holding the sessions mutex, per spec §9's design
// note that the lock already serializes Engine request/reply adequately.
func (m *Manager) Ping(secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, session := m.findLocked(secret)
	if session == nil {
		return errors.EngineSession(errors.New("no such engine session"), secret)
	}

	comm, err := session.Engine.communicator()
	if err == nil {
		reply, sendErr := comm.Send("ping")
		if sendErr == nil && reply == "pong" {
			return nil
		}
		err = sendErr
		if err == nil {
			err = errors.Newf("unexpected reply %q", reply)
		}
	}

	m.sessions = append(m.sessions[:idx], m.sessions[idx+1:]...)
	_ = session.Engine.Close()
	return errors.EngineSession(err, "ping failed, session evicted")
}

// SendRequest forwards an arbitrary command (connect/disconnect) to
// secret's engine and returns the raw reply, per spec §4.6.
func (m *Manager) SendRequest(secret, request string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, session := m.findLocked(secret)
	if session == nil {
		return "", errors.EngineSession(errors.New("no such engine session"), secret)
	}
	comm, err := session.Engine.communicator()
	if err != nil {
		return "", err
	}
	return comm.Send(request)
}

// UpdateActivity stamps the session identified by sessionHex's
// last-activity time to now, per spec §4.6 and §9 ("session-id extraction
// from instruction frames"). sessionHex is the lowercase, unseparated hex
// encoding of a secret's raw 16 bytes, as published by the Instruction
// Proxy; secrets are compared with their dashes stripped to match it.
// Unknown ids are silently ignored: the instruction proxy fires this on
// every forwarded frame and cannot know in advance whether the embedded
// session id is still live.
func (m *Manager) UpdateActivity(sessionHex string) {
	m.mu.Lock()
	var session *EngineSession
	for _, s := range m.sessions {
		if strings.ReplaceAll(s.Secret, "-", "") == sessionHex {
			session = s
			break
		}
	}
	m.mu.Unlock()
	if session != nil {
		session.Touch()
	}
}

// Status returns the lifecycle status for secret.
func (m *Manager) Status(secret string) (Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, session := m.findLocked(secret)
	if session == nil {
		return Starting, false
	}
	return session.GetStatus(), true
}

// Info is the externally visible shape of one engine session, per the
// `list` command's reply row in spec §4.10.
type Info struct {
	Secret   string
	Width    int
	Height   int
	Username string
	UID      uint32
}

// List returns a snapshot of every live engine session.
func (m *Manager) List() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, Info{
			Secret:   s.Secret,
			Width:    s.X11Session.Resolution.Width,
			Height:   s.X11Session.Resolution.Height,
			Username: s.X11Session.Account.Username,
			UID:      s.X11Session.Account.UID,
		})
	}
	return out
}

// evictInactive stops and removes every engine session idle for more
// than autoLogoutS seconds, per spec §4.6. Indices are collected first
// and removed in reverse order so earlier removals don't invalidate later
// indices, per spec §4.6 and the testable property in spec §8.
func (m *Manager) evictInactive() {
	if m.autoLogoutS <= 0 {
		return
	}
	now := time.Now()

	m.mu.Lock()
	var staleIdx []int
	for i, s := range m.sessions {
		if s.IdleFor(now) > m.autoLogoutS {
			staleIdx = append(staleIdx, i)
		}
	}
	var stale []*EngineSession
	for i := len(staleIdx) - 1; i >= 0; i-- {
		idx := staleIdx[i]
		stale = append(stale, m.sessions[idx])
		m.sessions = append(m.sessions[:idx], m.sessions[idx+1:]...)
	}
	m.mu.Unlock()

	for _, s := range stale {
		if err := s.Engine.Close(); err != nil {
			logger.Warnw("failed to stop inactive engine", "secret", s.Secret, "error", err)
		}
		m.x11.RemoveByUsername(s.X11Session.Account.Username)
	}
}

// Shutdown stops every engine and kills every X11 session, per spec
// §4.10 ("engine_session_manager.shutdown()").
func (m *Manager) Shutdown() {
	m.Stop()

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = nil
	m.mu.Unlock()

	for _, s := range sessions {
		if err := s.Engine.Close(); err != nil {
			logger.Warnw("failed to stop engine during shutdown", "secret", s.Secret, "error", err)
		}
	}
	m.x11.KillAll()
}

// findLocked must be called with m.mu held.
func (m *Manager) findLocked(secret string) (int, *EngineSession) {
	for i, s := range m.sessions {
		if s.Secret == secret {
			return i, s
		}
	}
	return -1, nil
}
