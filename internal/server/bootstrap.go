package server

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Serve listens on port until ctx is cancelled, then shuts the app down.
// The shutdown watcher exits as soon as Listen returns.
func Serve(ctx context.Context, app *fiber.App, port int, logger *logrus.Logger) error {
	return serve(ctx, app, logger, port, func() error {
		return app.Listen(fmt.Sprintf(":%d", port))
	})
}

func serve(ctx context.Context, app *fiber.App, logger *logrus.Logger, port int, listen func() error) error {
	stopped := make(chan struct{})
	watcher := make(chan struct{})
	go func() {
		defer close(watcher)
		select {
		case <-ctx.Done():
			if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
				logger.WithError(err).WithField("action", "shutdown").Warn("fiber_shutdown_failed")
			}
		case <-stopped:
		}
	}()

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("fiber_listen")
	err := listen()
	close(stopped)
	<-watcher
	return err
}
