// Package engine implements the per-session Engine process, its request/
// reply communicator, the Engine Service that spawns and validates it, and
// the Engine Session Manager that ties an X11 session to a running Engine,
// per spec §4.5 and §4.6.
package engine

import (
	"os"
	"sync"

	"github.com/ILLGrenoble/webx-router/process"
)

// Engine owns a spawned webx-engine child process and its IPC address.
// Dropping it must not leak the request socket or the IPC socket file;
// Close handles both, per spec §3.
type Engine struct {
	Process *process.Handle
	IPCPath string

	mu   sync.Mutex
	comm *Communicator
}

// communicator lazily creates and caches the request/reply socket to this
// engine. Engine request/reply is strictly lock-step (spec §4.5), so
// access must already be serialized by the caller (the Engine Session
// Manager's mutex, per spec §5); this method itself only guards the
// create-once semantics.
func (e *Engine) communicator() (*Communicator, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.comm == nil {
		c, err := NewCommunicator(e.IPCPath)
		if err != nil {
			return nil, err
		}
		e.comm = c
	}
	return e.comm, nil
}

// Close kills the Engine process and disconnects the communicator,
// leaving no IPC socket file owned by this Engine behind.
func (e *Engine) Close() error {
	e.mu.Lock()
	comm := e.comm
	e.comm = nil
	e.mu.Unlock()

	if comm != nil {
		comm.Close()
	}
	if err := e.Process.Kill(); err != nil {
		return err
	}
	// The engine binds the ipc socket on startup; remove the file so no
	// socket created under this session outlives the session itself.
	_ = os.Remove(e.IPCPath)
	return nil
}
