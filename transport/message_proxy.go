package transport

import (
	"context"
	"sync"

	zmq "github.com/pebbe/zmq4"

	"github.com/ILLGrenoble/webx-router/account"
	"github.com/ILLGrenoble/webx-router/bus"
	"github.com/ILLGrenoble/webx-router/config"
	"github.com/ILLGrenoble/webx-router/errors"
	"github.com/ILLGrenoble/webx-router/logger"
)

// MessageProxy forwards opaque engine-produced frames to the publisher
// port verbatim, per spec §4.7. It does no per-session demultiplexing;
// the Relay routes by topic on its side.
type MessageProxy struct {
	publisherPort  int
	ipcPath        string
	serviceAccount account.Account
}

// NewMessageProxy builds a MessageProxy. serviceAccount owns the IPC
// socket file after bind, per spec §5.
func NewMessageProxy(ports config.Ports, ipc config.IPCPaths, serviceAccount account.Account) *MessageProxy {
	return &MessageProxy{publisherPort: ports.Publisher, ipcPath: ipc.MessageProxy, serviceAccount: serviceAccount}
}

// Run binds both sockets and forwards frames until app:shutdown.
func (m *MessageProxy) Run(ctx context.Context, wg *sync.WaitGroup) error {
	publisher, err := zmq.NewSocket(zmq.PUB)
	if err != nil {
		return errors.Transport(err, "create message proxy publisher socket")
	}
	if err := publisher.Bind(tcpAddr(m.publisherPort)); err != nil {
		publisher.Close()
		return errors.Transport(err, "bind message proxy publisher")
	}

	aggregator, err := zmq.NewSocket(zmq.SUB)
	if err != nil {
		publisher.Close()
		return errors.Transport(err, "create message proxy aggregator socket")
	}
	if err := aggregator.SetSubscribe(""); err != nil {
		publisher.Close()
		aggregator.Close()
		return errors.Transport(err, "subscribe message proxy aggregator")
	}
	if err := aggregator.Bind("ipc://" + m.ipcPath); err != nil {
		publisher.Close()
		aggregator.Close()
		return errors.Transport(err, "bind message proxy aggregator")
	}
	if err := securizeIPC(m.ipcPath, m.serviceAccount.UID, m.serviceAccount.GID); err != nil {
		publisher.Close()
		aggregator.Close()
		return err
	}

	appSub, err := bus.NewSubscriber(bus.TopicApp)
	if err != nil {
		publisher.Close()
		aggregator.Close()
		return err
	}

	poller := zmq.NewPoller()
	poller.Add(aggregator, zmq.POLLIN)
	poller.Add(appSub.Socket(), zmq.POLLIN)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer publisher.Close()
		defer aggregator.Close()
		defer appSub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			polled, err := poller.Poll(proxyPollTimeout)
			if err != nil {
				logger.Warnw("message proxy poll failed", "error", err)
				continue
			}

			for _, p := range polled {
				switch p.Socket {
				case aggregator:
					frame, err := aggregator.Recv(0)
					if err != nil {
						logger.Warnw("message proxy recv failed", "error", err)
						continue
					}
					if _, err := publisher.Send(frame, 0); err != nil {
						logger.Warnw("message proxy send failed", "error", err)
					}
				case appSub.Socket():
					frame, err := appSub.Recv()
					if err != nil {
						continue
					}
					if frame == bus.CmdShutdown {
						return
					}
					logger.Warnw("message proxy: unexpected bus message", "frame", frame)
				}
			}
		}
	}()

	return nil
}
