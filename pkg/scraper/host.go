package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"
)

// Host is the runtime the scraper runs in: it binds the inbound router to a
// port, reads environment variables and ends the process on fatal errors.
type Host interface {
	Serve(ctx context.Context, port int, handler http.Handler) error
	Getenv(key string) string
	Exit(code int)
}

// OSHost runs the router on net/http and uses the process environment.
type OSHost struct {
	// ShutdownTimeout bounds graceful shutdown once the serve context ends.
	ShutdownTimeout time.Duration
}

var _ Host = OSHost{}

// Serve listens on port until ctx is cancelled, then shuts down gracefully.
func (h OSHost) Serve(ctx context.Context, port int, handler http.Handler) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(port)),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on port %d: %w", port, err)
	case <-ctx.Done():
		timeout := h.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// Getenv reads an environment variable.
func (OSHost) Getenv(key string) string {
	return os.Getenv(key)
}

// Exit terminates the process.
func (OSHost) Exit(code int) {
	os.Exit(code)
}
