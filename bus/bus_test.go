package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	require.NoError(t, Run(ctx, &wg))

	sub, err := NewSubscriber(TopicSession)
	require.NoError(t, err)
	defer sub.Close()
	require.NoError(t, sub.RecvTimeout(2*time.Second))

	// Give the subscriber's inproc connect a moment to land before the
	// aggregator forwards anything, per the well-known "slow joiner"
	// behavior of PUB/SUB sockets.
	time.Sleep(100 * time.Millisecond)

	pub, err := NewPublisher()
	require.NoError(t, err)
	defer pub.Close()

	require.NoError(t, pub.Publish(TopicSession, "deadbeef"))

	frame, err := sub.Recv()
	require.NoError(t, err)
	require.Equal(t, "session:deadbeef", frame)

	// Stop the bus deterministically (rather than relying on ctx
	// cancellation timing) so its sockets are closed before the next
	// test rebinds the same well-known endpoints.
	require.NoError(t, pub.Publish(TopicApp, "shutdown"))
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("bus goroutine did not exit after app:shutdown")
	}
	cancel()
}

func TestBus_Shutdown_StopsAfterForwarding(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	require.NoError(t, Run(ctx, &wg))

	sub, err := NewSubscriber(TopicApp)
	require.NoError(t, err)
	defer sub.Close()
	require.NoError(t, sub.RecvTimeout(2*time.Second))
	time.Sleep(100 * time.Millisecond)

	pub, err := NewPublisher()
	require.NoError(t, err)
	defer pub.Close()

	require.NoError(t, pub.Publish(TopicApp, "shutdown"))

	frame, err := sub.Recv()
	require.NoError(t, err)
	require.Equal(t, CmdShutdown, frame)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("bus goroutine did not exit after app:shutdown")
	}
}
