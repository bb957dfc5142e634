package bus

import (
	zmq "github.com/pebbe/zmq4"

	"github.com/ILLGrenoble/webx-router/errors"
)

// Publisher pushes frames onto the bus's aggregator socket. Not safe for
// concurrent use; each owning goroutine should create its own.
type Publisher struct {
	sock *zmq.Socket
}

// NewPublisher connects a PUSH socket to the aggregator endpoint.
func NewPublisher() (*Publisher, error) {
	sock, err := zmq.NewSocket(zmq.PUSH)
	if err != nil {
		return nil, errors.Transport(err, "create bus publisher socket")
	}
	if err := sock.Connect(AggregatorEndpoint); err != nil {
		sock.Close()
		return nil, errors.Transport(err, "connect bus publisher")
	}
	return &Publisher{sock: sock}, nil
}

// Publish sends topic:payload as a single frame, e.g. "app:shutdown" or
// "session:"+hex.
func (p *Publisher) Publish(topic, payload string) error {
	if _, err := p.sock.Send(topic+":"+payload, 0); err != nil {
		return errors.Transport(err, "publish "+topic)
	}
	return nil
}

// Close disconnects the publisher socket.
func (p *Publisher) Close() { p.sock.Close() }
