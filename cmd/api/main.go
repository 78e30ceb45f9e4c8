// Package main provides the entry point for the Zettel server application.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/zettelapp/zettel-server/internal/di"
	"github.com/zettelapp/zettel-server/internal/logger"
)

func main() {
	injector := di.NewContainer()

	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// The container shuts services down in reverse dependency order, so the
	// HTTP server drains before the database closes.
	if err := injector.Shutdown(); err != nil {
		log.WithError(err).Error("Shutdown error")
	}

	log.Info("Goodbye")
}
