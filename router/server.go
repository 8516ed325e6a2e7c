package router

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/yeremiapane/practice-app/utils"
)

const shutdownTimeout = 15 * time.Second

// Serve runs handler on port until SIGINT/SIGTERM, then drains in-flight
// requests.
func Serve(port string, handler http.Handler) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := Run(ctx, srv); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

// Run serves srv until ctx is done and shuts it down gracefully. A listen
// failure is returned as is.
func Run(ctx context.Context, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	utils.InfoLogger.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Printf("Server forced to shutdown: %v", err)
		return err
	}
	return nil
}
