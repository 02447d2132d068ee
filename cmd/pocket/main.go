package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"cce-cloud/src/analytics"
	"cce-cloud/src/client"
	"cce-cloud/src/config"
	"cce-cloud/src/logger"
)

// -----------------------------------------------------------------------------
// Pocket dashboard: a terminal rendering of the hub's snapshot plus the
// derived analytics. When the hub is unreachable the last cached snapshot
// is rendered with an OFFLINE marker.
// -----------------------------------------------------------------------------

func main() {

	configPath := flag.String("config", "config/default.yaml", "path to config file")
	csvPath := flag.String("csv", "", "write the CSV export to this file and exit")
	flag.Parse()

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewLogger(cfg.LogLevel, "pocket")
	dc := client.NewDashboardClient(cfg.MConfig, appLogger)

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Producer.TimeoutSeconds)*time.Second)
	defer cancel()

	snap, offline, err := dc.FetchSnapshot(ctx)
	if err != nil {
		appLogger.Critical("No dashboard data available: %v", err)
	}

	if *csvPath != "" {
		if err := os.WriteFile(*csvPath, []byte(analytics.ExportCSV(snap)), 0644); err != nil {
			appLogger.Critical("Failed to write CSV export: %v", err)
		}
		appLogger.Info("CSV export written to %s", *csvPath)
		return
	}

	// Header
	title := fmt.Sprintf("%s [%s]", cfg.Name, snap.System.Mode)
	if offline {
		title += " (OFFLINE - cached data)"
	}
	fmt.Println(title)
	fmt.Printf("Last sync: %s\n\n", orDash(snap.LastUpdated))

	// Current stats
	fmt.Printf("State:          %s (%d days)\n", snap.Stats.CurrentState, snap.Stats.DaysInState)
	fmt.Printf("Portfolio:      $%.2f (%+.2f%%)\n", snap.Stats.PortfolioValue, snap.Stats.TotalReturnPct)
	fmt.Printf("Fear & Greed:   %s\n\n", analytics.FormatFearGreed(snap.Stats.FearGreed))

	// Derived analytics
	fmt.Printf("Transitions:    %d\n", analytics.CountTransitions(snap.History))
	fmt.Printf("Days running:   %d\n", analytics.DaysRunning(snap.History))
	fmt.Printf("Time in market: %.1f%%\n\n", analytics.TimeInMarket(snap.History, cfg.Analytics.ActiveStates))

	fmt.Println("State distribution:")
	for _, share := range analytics.StateDistribution(snap.History) {
		fmt.Printf("  %-12s %5.1f%% (%d)\n", share.State, share.Percent, share.Count)
	}

	transitions := analytics.ExtractTransitions(snap.History)
	if len(transitions) > 0 {
		fmt.Println("\nRecent transitions (newest first):")
		for i := len(transitions) - 1; i >= 0; i-- {
			t := transitions[i]
			fmt.Printf("  %s  %s -> %s  ($%.2f)\n", t.Timestamp, t.From, t.To, t.PortfolioValue)
		}
	}

	if len(snap.Trades) > 0 {
		fmt.Println("\nRecent trades:")
		for _, trade := range snap.Trades {
			fmt.Printf("  %s  %-4s %-10s $%.2f (amount %s)\n",
				trade.Timestamp, trade.Side, trade.Symbol, trade.Value,
				analytics.FormatAmount(trade.Amount))
		}
	}
}

// -----------------------------------------------------------------------------

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
