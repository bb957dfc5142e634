package engine

import (
	"time"

	zmq "github.com/pebbe/zmq4"

	"github.com/ILLGrenoble/webx-router/errors"
)

// pingTimeout bounds how long a health ping or forwarded request waits
// for a reply before the call is treated as a transport failure, per
// spec §4.5 ("1000 ms receive timeout, linger 0").
const pingTimeout = time.Second

// Communicator owns the request/reply socket to one Engine's IPC path.
// It is not safe for concurrent use: Engine request/reply is strictly
// lock-step, and callers must serialize access externally (the Engine
// Session Manager's mutex does this), per spec §4.5 and §5.
type Communicator struct {
	sock *zmq.Socket
}

// NewCommunicator connects a REQ socket to ipcPath.
func NewCommunicator(ipcPath string) (*Communicator, error) {
	sock, err := zmq.NewSocket(zmq.REQ)
	if err != nil {
		return nil, errors.Transport(err, "create engine req socket")
	}
	if err := sock.SetLinger(0); err != nil {
		sock.Close()
		return nil, errors.Transport(err, "set linger")
	}
	if err := sock.SetRcvtimeo(pingTimeout); err != nil {
		sock.Close()
		return nil, errors.Transport(err, "set recv timeout")
	}
	if err := sock.Connect("ipc://" + ipcPath); err != nil {
		sock.Close()
		return nil, errors.Transport(err, "connect to "+ipcPath)
	}
	return &Communicator{sock: sock}, nil
}

// Send transmits request and waits up to pingTimeout for a reply. Any
// transport failure (including a timeout) is returned as an error; the
// caller decides whether that counts against a retry budget.
func (c *Communicator) Send(request string) (string, error) {
	if _, err := c.sock.Send(request, 0); err != nil {
		return "", errors.Transport(err, "send to engine")
	}
	reply, err := c.sock.Recv(0)
	if err != nil {
		return "", errors.Transport(err, "recv from engine")
	}
	return reply, nil
}

// Close disconnects the socket. Safe to call once; the owning Engine
// clears its cached reference before calling this.
func (c *Communicator) Close() {
	c.sock.Close()
}
