package bus

import (
	"time"

	zmq "github.com/pebbe/zmq4"

	"github.com/ILLGrenoble/webx-router/errors"
)

// Subscriber reads frames from the bus's fan-out socket, filtered by a
// topic prefix. Not safe for concurrent use.
type Subscriber struct {
	sock *zmq.Socket
}

// NewSubscriber connects a SUB socket to the fan-out endpoint, filtered
// to frames beginning with topicPrefix (e.g. bus.TopicApp). An empty
// prefix subscribes to everything.
func NewSubscriber(topicPrefix string) (*Subscriber, error) {
	sock, err := zmq.NewSocket(zmq.SUB)
	if err != nil {
		return nil, errors.Transport(err, "create bus subscriber socket")
	}
	if err := sock.SetSubscribe(topicPrefix); err != nil {
		sock.Close()
		return nil, errors.Transport(err, "set subscribe filter")
	}
	if err := sock.Connect(FanoutEndpoint); err != nil {
		sock.Close()
		return nil, errors.Transport(err, "connect bus subscriber")
	}
	return &Subscriber{sock: sock}, nil
}

// Socket exposes the underlying zmq socket so callers can register it
// with their own zmq.Poller alongside other sockets.
func (s *Subscriber) Socket() *zmq.Socket { return s.sock }

// Recv blocks until a frame arrives, per the spec §5 "infinite timeout"
// default; callers needing a bounded wait should poll Socket() directly.
func (s *Subscriber) Recv() (string, error) {
	frame, err := s.sock.Recv(0)
	if err != nil {
		return "", errors.Transport(err, "recv from bus")
	}
	return frame, nil
}

// RecvTimeout sets the socket's receive timeout, so that Recv returns an
// error instead of blocking once d has passed without a frame.
func (s *Subscriber) RecvTimeout(d time.Duration) error {
	if err := s.sock.SetRcvtimeo(d); err != nil {
		return errors.Transport(err, "set subscriber recv timeout")
	}
	return nil
}

// Close disconnects the subscriber socket.
func (s *Subscriber) Close() { s.sock.Close() }
