package transport

import (
	"context"
	"sync"

	zmq "github.com/pebbe/zmq4"

	"github.com/ILLGrenoble/webx-router/bus"
	"github.com/ILLGrenoble/webx-router/config"
	"github.com/ILLGrenoble/webx-router/errors"
	"github.com/ILLGrenoble/webx-router/logger"
	"github.com/ILLGrenoble/webx-router/wireproto"
)

// commRequest is the only recognized request on the connector port, per
// spec §4.9.
const commRequest = "comm"

// ClientConnector answers the unencrypted handshake that tells clients
// which ports to use and the session port's curve public key, per spec
// §4.9.
type ClientConnector struct {
	ports     config.Ports
	publicKey string
}

// NewClientConnector builds a ClientConnector. publicKey is the session
// proxy's ephemeral curve public key, Z85-encoded.
func NewClientConnector(ports config.Ports, publicKey string) *ClientConnector {
	return &ClientConnector{ports: ports, publicKey: publicKey}
}

// Run binds the reply socket and serves requests until app:shutdown.
func (c *ClientConnector) Run(ctx context.Context, wg *sync.WaitGroup) error {
	rep, err := zmq.NewSocket(zmq.REP)
	if err != nil {
		return errors.Transport(err, "create client connector socket")
	}
	if err := rep.Bind(tcpAddr(c.ports.Connector)); err != nil {
		rep.Close()
		return errors.Transport(err, "bind client connector")
	}

	sub, err := bus.NewSubscriber(bus.TopicApp)
	if err != nil {
		rep.Close()
		return err
	}

	poller := zmq.NewPoller()
	poller.Add(rep, zmq.POLLIN)
	poller.Add(sub.Socket(), zmq.POLLIN)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer rep.Close()
		defer sub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			polled, err := poller.Poll(proxyPollTimeout)
			if err != nil {
				logger.Warnw("client connector poll failed", "error", err)
				continue
			}

			for _, p := range polled {
				switch p.Socket {
				case rep:
					c.handle(rep)
				case sub.Socket():
					frame, err := sub.Recv()
					if err != nil {
						continue
					}
					if frame == bus.CmdShutdown {
						return
					}
					logger.Warnw("client connector: unexpected bus message", "frame", frame)
				}
			}
		}
	}()

	return nil
}

func (c *ClientConnector) handle(rep *zmq.Socket) {
	request, err := rep.Recv(0)
	if err != nil {
		logger.Warnw("client connector recv failed", "error", err)
		return
	}

	reply := ""
	if request == commRequest {
		reply = wireproto.Join(
			itoaPort(c.ports.Publisher),
			itoaPort(c.ports.Collector),
			itoaPort(c.ports.Session),
			c.publicKey,
		)
	} else {
		logger.Warnw("client connector: unknown request", "request", request)
	}

	if _, err := rep.Send(reply, 0); err != nil {
		logger.Warnw("client connector send failed", "error", err)
	}
}
