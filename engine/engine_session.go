package engine

import (
	"sync/atomic"
	"time"

	"github.com/ILLGrenoble/webx-router/sesman"
)

// Status is the lifecycle state of an EngineSession.
type Status int

const (
	Starting Status = iota
	Ready
)

// EngineSession is the (X11 Session, Engine) tuple addressed externally
// by Secret, per spec §3. The Engine Session Manager exclusively owns all
// EngineSessions behind its mutex; this struct has no lock of its own.
type EngineSession struct {
	Secret        string
	X11Session    *sesman.X11Session
	Engine        *Engine
	lastActivityS int64 // monotonic-ish wall clock seconds, atomic
	status        int32 // Status, atomic
}

// NewEngineSession builds a Starting EngineSession with activity stamped
// to now.
func NewEngineSession(secret string, x11 *sesman.X11Session, eng *Engine) *EngineSession {
	s := &EngineSession{Secret: secret, X11Session: x11, Engine: eng}
	s.Touch()
	s.SetStatus(Starting)
	return s
}

// Touch records the current wall-clock second as the last-activity time,
// per spec §4.6's update_activity.
func (s *EngineSession) Touch() {
	atomic.StoreInt64(&s.lastActivityS, time.Now().Unix())
}

// LastActivityS returns the last recorded activity time.
func (s *EngineSession) LastActivityS() int64 {
	return atomic.LoadInt64(&s.lastActivityS)
}

// GetStatus returns the current lifecycle status.
func (s *EngineSession) GetStatus() Status {
	return Status(atomic.LoadInt32(&s.status))
}

// SetStatus transitions the lifecycle status.
func (s *EngineSession) SetStatus(status Status) {
	atomic.StoreInt32(&s.status, int32(status))
}

// IdleFor reports how many seconds have elapsed since the last recorded
// activity, as of now.
func (s *EngineSession) IdleFor(now time.Time) int64 {
	return now.Unix() - s.LastActivityS()
}
