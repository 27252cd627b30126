package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Tyrowin/gochat/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config := server.NewConfigFromEnv()
	logger := server.NewLogger(*config)

	if err := run(config, logger); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}
}

func run(config *server.Config, logger *logrus.Logger) error {
	logger.Info("Starting GoChat Server...")

	chatServer := server.New(config, logger)
	httpServer := server.CreateServer(config.Port, server.SetupRoutes(chatServer))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.StartServer(httpServer, logger)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-stop:
		logger.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Streams hold requests open, so end them before the HTTP server waits
	// for in-flight requests.
	if err := chatServer.Shutdown(ctx); err != nil {
		logger.Warnf("Hub shutdown: %v", err)
	}
	return server.ShutdownServer(httpServer, shutdownTimeout, logger)
}
