package transport

import (
	zmq "github.com/pebbe/zmq4"

	"github.com/ILLGrenoble/webx-router/errors"
)

// KeyPair is a CurveZMQ server identity, Z85-encoded.
type KeyPair struct {
	Public string
	Secret string
}

// NewKeyPair generates a fresh ephemeral CurveZMQ keypair. Per spec §9
// (open question 3), the router never persists this: a new pair is
// generated on every process start, and clients re-fetch the public half
// from the Client Connector after each restart.
func NewKeyPair() (KeyPair, error) {
	public, secret, err := zmq.NewCurveKeypair()
	if err != nil {
		return KeyPair{}, errors.Transport(err, "generate curve keypair")
	}
	return KeyPair{Public: public, Secret: secret}, nil
}
