package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cce-cloud/src/config"
	"cce-cloud/src/interfaces"
	"cce-cloud/src/logger"
	"cce-cloud/src/server"
	"cce-cloud/src/store"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	// State store starts with placeholder defaults; everything the hub
	// serves lives in memory and resets on restart.
	var stateStore interfaces.IStateStore = store.NewStateStore(cfg.MConfig, appLogger)

	// HTTP surface
	srv := server.NewDashboardServer(cfg.MConfig, appLogger, stateStore)

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	srv.Stop()
}
