package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ILLGrenoble/webx-router/sesman"
)

func TestEngineSession_TouchAndIdleFor(t *testing.T) {
	session := NewEngineSession("secret-1", &sesman.X11Session{}, &Engine{})
	assert.Equal(t, Starting, session.GetStatus())

	now := time.Now()
	assert.LessOrEqual(t, session.IdleFor(now), int64(1))

	session.SetStatus(Ready)
	assert.Equal(t, Ready, session.GetStatus())
}

func TestEngineSession_IdleFor_Future(t *testing.T) {
	session := NewEngineSession("secret-1", &sesman.X11Session{}, &Engine{})
	future := time.Now().Add(90 * time.Second)
	assert.GreaterOrEqual(t, session.IdleFor(future), int64(89))
}
