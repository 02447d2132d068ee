package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"cce-cloud/src/config"
	"cce-cloud/src/logger"
	"cce-cloud/src/producer"
)

// -----------------------------------------------------------------------------
// One-shot sync push. Scheduling (cron, a process manager) lives outside
// this binary; a non-zero exit signals the run failed.
// -----------------------------------------------------------------------------

func main() {

	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewLogger(cfg.LogLevel, "syncagent")

	if err := cfg.ValidateProducer(); err != nil {
		appLogger.Critical("Producer config invalid: %v", err)
	}

	agent, err := producer.NewSyncAgent(cfg.MConfig, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init sync agent: %v", err)
	}
	defer agent.Close()

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Producer.TimeoutSeconds)*time.Second)
	defer cancel()

	if err := agent.Run(ctx); err != nil {
		os.Exit(1)
	}
}
