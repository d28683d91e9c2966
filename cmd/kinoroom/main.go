package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kinoroom/kinoroom/internal/config"
	"github.com/kinoroom/kinoroom/internal/gateway"
	"github.com/kinoroom/kinoroom/internal/room"
	"github.com/kinoroom/kinoroom/internal/server"
	"github.com/kinoroom/kinoroom/internal/ws"
	"github.com/kinoroom/kinoroom/pkg/logger"
)

func main() {
	// Initializing and validating config
	cm, err := config.NewConfigManager("internal/config/config.yaml")
	if err != nil {
		fmt.Printf("Error getting config file: %v", err)
		os.Exit(1)
	}
	c := cm.GetConfig()
	if err := c.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v", err)
		os.Exit(1)
	}

	// Initializing logger
	log, err := logger.New(logger.Config{
		Env:       c.GeneralParams.Env,
		AddSource: false,
	})
	if err != nil {
		fmt.Printf("Error creating logger: %v", err)
		os.Exit(1)
	}

	log.Info(
		"Config loaded successfully!",
		"env", c.GeneralParams.Env,
		"http_server_port", c.HttpServerParams.Port,
		"http_server_address", c.HttpServerParams.Address,
		"base_url", c.GeneralParams.BaseURL,
		"telegram_enabled", c.TelegramParams.Enabled,
	)

	// Global context with cancel
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Rooms live entirely in memory; the registry dies with the process
	registry := room.NewRegistry(log)
	manager := ws.NewManager(registry, log)

	// Creates HTTP server
	HTTPserver := server.New(
		c.HttpServerParams.GetAddress(),
		c.GeneralParams.BaseURL,
		registry,
		manager,
		log,
	)

	serverErrors := make(chan error, 2)

	go func() {
		serverErrors <- HTTPserver.Start()
	}()

	// Telegram gateway is optional; the HTTP API covers the same flows
	if c.TelegramParams.Enabled {
		gw, err := gateway.New(
			c.TelegramParams.BotToken,
			c.GeneralParams.BaseURL,
			registry,
			manager,
			log,
		)
		if err != nil {
			log.Error("Failed to start telegram gateway", "error", err)
			os.Exit(1)
		}

		go func() {
			serverErrors <- gw.Run(ctx)
		}()
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we recieve a signal or error
	select {
	case err := <-serverErrors:
		if err != nil {
			log.Error("Server error", "error", err)
			os.Exit(1)
		}

	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		log.Info("Shutting down HTTP server...")
		if err := HTTPserver.Shutdown(shutdownCtx); err != nil {
			log.Error("Graceful shutdown failed", "error", err)
		}

		manager.Shutdown()
	}
}
