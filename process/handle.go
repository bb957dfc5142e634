// Package process wraps spawned child processes with an owning handle
// that supports pid lookup, idempotent kill, and a tri-state liveness
// check, per spec §3 "Process Handle".
package process

import (
	"os"
	"os/exec"
	"sync"
	"syscall"

	gopsutilprocess "github.com/shirou/gopsutil/v3/process"

	"github.com/ILLGrenoble/webx-router/errors"
)

// RunState is the tri-state result of Handle.IsRunning.
type RunState int

const (
	// Unknown means liveness could not be determined (e.g. permission
	// denied reading /proc for a uid-dropped child).
	Unknown RunState = iota
	Running
	Exited
)

// Handle owns a spawned child process. Multiple owners may hold a Handle;
// Kill is idempotent and safe to call from any of them.
type Handle struct {
	mu  sync.Mutex
	cmd *exec.Cmd
	pid int
}

// New wraps an already-started *exec.Cmd.
func New(cmd *exec.Cmd) *Handle {
	return &Handle{cmd: cmd, pid: cmd.Process.Pid}
}

// PID returns the process id captured at spawn time.
func (h *Handle) PID() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pid
}

// Kill sends SIGTERM, and falls back to SIGKILL only when SIGTERM cannot
// be delivered. It does not wait for the process to exit, and sends no
// SIGKILL to a process that receives SIGTERM but keeps running. It is
// idempotent: killing an already-exited process is a no-op, not an error.
func (h *Handle) Kill() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cmd == nil || h.cmd.Process == nil {
		return nil
	}
	if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		if err == syscall.ESRCH || err == os.ErrProcessDone {
			return nil
		}
		if err2 := h.cmd.Process.Kill(); err2 != nil && err2 != syscall.ESRCH && err2 != os.ErrProcessDone {
			return errors.System(err2, "kill process")
		}
	}
	return nil
}

// IsRunning reports whether the process is still alive. It first tries
// the cheap local liveness check (signal 0 to the pid); when that check
// is inconclusive (e.g. EPERM against a process running under a dropped
// uid) it falls back to gopsutil's /proc inspection, which reads process
// state without requiring signal permission.
func (h *Handle) IsRunning() RunState {
	h.mu.Lock()
	pid := h.pid
	proc := h.cmd.Process
	h.mu.Unlock()

	if proc == nil {
		return Exited
	}

	switch err := proc.Signal(syscall.Signal(0)); err {
	case nil:
		return Running
	case syscall.ESRCH, os.ErrProcessDone:
		return Exited
	}

	gp, err := gopsutilprocess.NewProcess(int32(pid))
	if err != nil {
		return Unknown
	}
	running, err := gp.IsRunning()
	if err != nil {
		return Unknown
	}
	if running {
		return Running
	}
	return Exited
}

// Wait blocks until the process exits, reaping it. Callers that only want
// to avoid zombies and don't care about the exit status should discard
// the error.
func (h *Handle) Wait() error {
	h.mu.Lock()
	cmd := h.cmd
	h.mu.Unlock()
	return cmd.Wait()
}
