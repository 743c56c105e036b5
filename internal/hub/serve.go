package hub

import (
	"context"
	"errors"
	"net/http"
	"time"

	appLog "github.com/sadopc/asap/internal/log"
)

// ListenAndServe serves h on addr until ctx is cancelled, then closes all
// client connections.
func ListenAndServe(ctx context.Context, addr string, h *Hub) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("hub listening", "hub", h.name, "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
