package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
)

// Timeout bounds how long a server gets to drain once shutdown starts.
const Timeout = 10 * time.Second

func WithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(ch)
		select {
		case <-ctx.Done():
			return
		case <-ch:
			cancel()
		}
	}()

	return ctx, cancel
}

// HTTP returns an errgroup-friendly func that serves srv until ctx is done
// and then shuts it down gracefully.
func HTTP(ctx context.Context, log *slog.Logger, srv *http.Server) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			log.Info("http server starting", slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
				return
			}
			errCh <- nil
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		stopCtx, cancel := context.WithTimeout(context.Background(), Timeout)
		defer cancel()

		if err := srv.Shutdown(stopCtx); err != nil {
			log.Error("http shutdown error", slog.Any("err", err))
			return err
		}
		return <-errCh
	}
}

// GRPC serves srv on lis until ctx is done, then stops it gracefully and
// forces a stop when draining exceeds Timeout.
func GRPC(ctx context.Context, log *slog.Logger, srv *grpc.Server, lis net.Listener) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			log.Info("grpc starting", slog.String("addr", lis.Addr().String()))
			errCh <- srv.Serve(lis)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()

		select {
		case <-time.After(Timeout):
			log.Warn("graceful stop timeout, forcing stop")
			srv.Stop()
		case <-stopped:
		}
		return nil
	}
}
