package transport

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	zmq "github.com/pebbe/zmq4"

	"github.com/ILLGrenoble/webx-router/account"
	"github.com/ILLGrenoble/webx-router/bus"
	"github.com/ILLGrenoble/webx-router/config"
	"github.com/ILLGrenoble/webx-router/errors"
	"github.com/ILLGrenoble/webx-router/logger"
)

// sessionIDLen is the length of the raw session identifier prefixed to
// every instruction frame, per spec §4.8 and §9.
const sessionIDLen = 16

// instructionSendTimeout bounds how long forwarding an instruction to
// engines may block a slow subscriber before the frame is dropped, per
// spec §9 (open question 2): back-pressure drops frames rather than
// blocking the Relay.
const instructionSendTimeout = 100 * time.Millisecond

// InstructionProxy forwards Relay-originated instructions to engines,
// publishing a "session:{hex}" activity ping on the bus for each frame
// long enough to carry a session id, per spec §4.8.
type InstructionProxy struct {
	collectorPort  int
	ipcPath        string
	serviceAccount account.Account
}

// NewInstructionProxy builds an InstructionProxy.
func NewInstructionProxy(ports config.Ports, ipc config.IPCPaths, serviceAccount account.Account) *InstructionProxy {
	return &InstructionProxy{collectorPort: ports.Collector, ipcPath: ipc.InstructionProxy, serviceAccount: serviceAccount}
}

// Run binds both sockets and forwards instructions until app:shutdown.
func (ip *InstructionProxy) Run(ctx context.Context, wg *sync.WaitGroup) error {
	collector, err := zmq.NewSocket(zmq.SUB)
	if err != nil {
		return errors.Transport(err, "create instruction proxy collector socket")
	}
	if err := collector.SetSubscribe(""); err != nil {
		collector.Close()
		return errors.Transport(err, "subscribe instruction proxy collector")
	}
	if err := collector.Bind(tcpAddr(ip.collectorPort)); err != nil {
		collector.Close()
		return errors.Transport(err, "bind instruction proxy collector")
	}

	publisher, err := zmq.NewSocket(zmq.PUB)
	if err != nil {
		collector.Close()
		return errors.Transport(err, "create instruction proxy publisher socket")
	}
	if err := publisher.SetSndtimeo(instructionSendTimeout); err != nil {
		collector.Close()
		publisher.Close()
		return errors.Transport(err, "set instruction proxy send timeout")
	}
	if err := publisher.Bind("ipc://" + ip.ipcPath); err != nil {
		collector.Close()
		publisher.Close()
		return errors.Transport(err, "bind instruction proxy publisher")
	}
	if err := securizeIPC(ip.ipcPath, ip.serviceAccount.UID, ip.serviceAccount.GID); err != nil {
		collector.Close()
		publisher.Close()
		return err
	}

	pub, err := bus.NewPublisher()
	if err != nil {
		collector.Close()
		publisher.Close()
		return err
	}
	appSub, err := bus.NewSubscriber(bus.TopicApp)
	if err != nil {
		collector.Close()
		publisher.Close()
		pub.Close()
		return err
	}

	poller := zmq.NewPoller()
	poller.Add(collector, zmq.POLLIN)
	poller.Add(appSub.Socket(), zmq.POLLIN)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer collector.Close()
		defer publisher.Close()
		defer pub.Close()
		defer appSub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			polled, err := poller.Poll(proxyPollTimeout)
			if err != nil {
				logger.Warnw("instruction proxy poll failed", "error", err)
				continue
			}

			for _, p := range polled {
				switch p.Socket {
				case collector:
					ip.forward(collector, publisher, pub)
				case appSub.Socket():
					frame, err := appSub.Recv()
					if err != nil {
						continue
					}
					if frame == bus.CmdShutdown {
						return
					}
					logger.Warnw("instruction proxy: unexpected bus message", "frame", frame)
				}
			}
		}
	}()

	return nil
}

// forward hex-encodes the leading session id (if present) and publishes
// it on the bus exactly once, before forwarding the full frame. Send
// failures are logged and the frame is dropped; the proxy never blocks
// the Relay, per spec §4.8.
func (ip *InstructionProxy) forward(collector, publisher *zmq.Socket, pub *bus.Publisher) {
	frame, err := collector.Recv(0)
	if err != nil {
		logger.Warnw("instruction proxy recv failed", "error", err)
		return
	}

	if sessionHex, ok := extractSessionHex(frame); ok {
		if err := pub.Publish(bus.TopicSession, sessionHex); err != nil {
			logger.Warnw("instruction proxy: failed to publish activity", "error", err)
		}
	}

	if _, err := publisher.Send(frame, 0); err != nil {
		logger.Warnw("instruction proxy: dropped frame", "error", err)
	}
}

// extractSessionHex returns the lowercase hex encoding of frame's leading
// 16-byte session id, per spec §4.8 and §9: the first 16 bytes are a raw
// UUID, hex-encoded with no separators. Frames shorter than that carry no
// session id.
func extractSessionHex(frame string) (string, bool) {
	if len(frame) < sessionIDLen {
		return "", false
	}
	return hex.EncodeToString([]byte(frame[:sessionIDLen])), true
}
