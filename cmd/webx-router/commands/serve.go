package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ILLGrenoble/webx-router/account"
	"github.com/ILLGrenoble/webx-router/bus"
	"github.com/ILLGrenoble/webx-router/engine"
	"github.com/ILLGrenoble/webx-router/logger"
	"github.com/ILLGrenoble/webx-router/sesman"
	"github.com/ILLGrenoble/webx-router/transport"
)

// serviceAccountName is the system account IPC sockets and Engine
// processes are owned by, per spec §4.5 and §5.
const serviceAccountName = "webx"

// ServeCmd starts the router: the event bus, the X11 and engine session
// managers, and the four transport proxies, blocking until app:shutdown.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webx-router daemon",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if syscall.Geteuid() != 0 {
		return fmt.Errorf("webx-router must run as root to provision X11 sessions and drop privileges")
	}

	serviceAccount, err := account.Lookup(serviceAccountName)
	if err != nil {
		return fmt.Errorf("resolve service account %q: %w", serviceAccountName, err)
	}

	authenticator := account.NewAuthenticator(account.UnimplementedPAM{}, cfg.Sesman.Authentication.Service)

	xorgService := sesman.NewXorgService(cfg.Sesman.Xorg, serviceAccount.GID)
	x11Manager := sesman.NewManager(xorgService)

	engineService := engine.NewService(cfg.Engine, cfg.Transport.IPC, serviceAccount)
	engineManager := engine.NewManager(x11Manager, engineService, cfg.Sesman.AutoLogoutS)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	var wg sync.WaitGroup

	if err := bus.Run(ctx, &wg); err != nil {
		return fmt.Errorf("start event bus: %w", err)
	}

	engineManager.Start(ctx, &wg)

	t, err := transport.New(cfg.Transport, serviceAccount, authenticator, engineManager)
	if err != nil {
		return fmt.Errorf("build transport: %w", err)
	}
	if err := t.Run(ctx, &wg); err != nil {
		return fmt.Errorf("start transport: %w", err)
	}

	logger.Infow("webx-router started",
		"connector_port", cfg.Transport.Ports.Connector,
		"session_port", cfg.Transport.Ports.Session,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Infow("shutting down")
	if err := publishShutdown(); err != nil {
		logger.Warnw("failed to publish shutdown, cancelling directly", "error", err)
		cancel()
	}

	// Cancellation is cooperative via app:shutdown (spec §5); cancel() here
	// is only a backstop if a component fails to drain its shutdown
	// subscription within the grace period.
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownGrace):
		logger.Warnw("graceful shutdown timed out, forcing cancellation")
		cancel()
		<-done
	}

	logger.Sync()
	return nil
}

// shutdownGrace bounds how long serve waits for every component to drain
// its app:shutdown subscription before forcing cancellation.
const shutdownGrace = 10 * time.Second

// publishShutdown pushes app:shutdown onto the bus so the bus loop itself
// and each transport proxy wind down cooperatively, per spec §4.1 and §5.
// The engine session manager's sweep stops when the Session Proxy, on
// receiving it, calls Manager.Shutdown.
func publishShutdown() error {
	pub, err := bus.NewPublisher()
	if err != nil {
		return err
	}
	defer pub.Close()
	return pub.Publish(bus.TopicApp, "shutdown")
}
