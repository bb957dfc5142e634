package transport

import (
	"context"
	"sync"

	"github.com/ILLGrenoble/webx-router/account"
	"github.com/ILLGrenoble/webx-router/config"
	"github.com/ILLGrenoble/webx-router/engine"
)

// Transport owns the four long-lived proxy tasks (Client Connector,
// Message Proxy, Instruction Proxy, Session Proxy), per spec §2's control
// flow and §5's "one thread per long-lived component".
type Transport struct {
	ClientConnector  *ClientConnector
	MessageProxy     *MessageProxy
	InstructionProxy *InstructionProxy
	SessionProxy     *SessionProxy
}

// New wires the four proxies together. serviceAccount is the "webx"
// account the IPC sockets are secured to; sessions is the already-built
// Engine Session Manager the Session Proxy commands.
func New(cfg config.TransportConfig, serviceAccount account.Account, authenticator *account.Authenticator, sessions *engine.Manager) (*Transport, error) {
	keyPair, err := NewKeyPair()
	if err != nil {
		return nil, err
	}

	return &Transport{
		ClientConnector:  NewClientConnector(cfg.Ports, keyPair.Public),
		MessageProxy:     NewMessageProxy(cfg.Ports, cfg.IPC, serviceAccount),
		InstructionProxy: NewInstructionProxy(cfg.Ports, cfg.IPC, serviceAccount),
		SessionProxy:     NewSessionProxy(cfg.Ports, keyPair, authenticator, sessions),
	}, nil
}

// Run starts every proxy task, each tracked on wg, stopping at the first
// bind failure (spec §6: "unrecoverable socket bind errors terminate the
// process immediately").
func (t *Transport) Run(ctx context.Context, wg *sync.WaitGroup) error {
	if err := t.MessageProxy.Run(ctx, wg); err != nil {
		return err
	}
	if err := t.InstructionProxy.Run(ctx, wg); err != nil {
		return err
	}
	if err := t.SessionProxy.Run(ctx, wg); err != nil {
		return err
	}
	if err := t.ClientConnector.Run(ctx, wg); err != nil {
		return err
	}
	return nil
}
