// Package bus implements the Event Bus: a single background task that
// aggregates frames published by any component and re-emits them
// verbatim to every subscriber, per spec §4.1.
package bus

import (
	"context"
	"sync"
	"time"

	zmq "github.com/pebbe/zmq4"

	"github.com/ILLGrenoble/webx-router/errors"
	"github.com/ILLGrenoble/webx-router/logger"
)

// pollTimeout bounds how long the bus loop blocks in Poll before
// re-checking ctx, so shutdown is prompt even with no traffic.
const pollTimeout = 500 * time.Millisecond

// Run binds the aggregator and fan-out sockets and loops forwarding one
// frame at a time until it reads CmdShutdown on the app topic, at which
// point it forwards that frame too and returns. wg tracks the goroutine
// for a clean shutdown join, per SPEC_FULL §5.
func Run(ctx context.Context, wg *sync.WaitGroup) error {
	aggregator, err := zmq.NewSocket(zmq.PULL)
	if err != nil {
		return errors.Transport(err, "create bus aggregator socket")
	}
	if err := aggregator.Bind(AggregatorEndpoint); err != nil {
		aggregator.Close()
		return errors.Transport(err, "bind bus aggregator")
	}

	fanout, err := zmq.NewSocket(zmq.PUB)
	if err != nil {
		aggregator.Close()
		return errors.Transport(err, "create bus fanout socket")
	}
	if err := fanout.Bind(FanoutEndpoint); err != nil {
		aggregator.Close()
		fanout.Close()
		return errors.Transport(err, "bind bus fanout")
	}

	poller := zmq.NewPoller()
	poller.Add(aggregator, zmq.POLLIN)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer aggregator.Close()
		defer fanout.Close()

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			polled, err := poller.Poll(pollTimeout)
			if err != nil {
				logger.Warnw("bus poll failed", "error", err)
				continue
			}
			if len(polled) == 0 {
				continue
			}

			frame, err := aggregator.Recv(0)
			if err != nil {
				logger.Warnw("bus recv failed", "error", err)
				continue
			}
			if _, err := fanout.Send(frame, 0); err != nil {
				logger.Warnw("bus fanout send failed", "error", err)
				continue
			}
			if frame == CmdShutdown {
				return
			}
		}
	}()

	return nil
}
