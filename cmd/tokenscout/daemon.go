package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tokenscout/tokenscout/internal/app"
	"github.com/tokenscout/tokenscout/internal/discovery"
	"github.com/tokenscout/tokenscout/internal/metrics"
	"github.com/tokenscout/tokenscout/internal/scheduler"
)

var flagLiveEventURL string

// daemonCmd runs recurring scan cycles on the configured schedule, feeding
// each cycle from the live-event stream buffer.
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run recurring scan cycles on a schedule",
	Long: `Run the engine as a long-lived process. Cycles fire on the configured cron
schedule; a cycle that would overlap a running one is skipped. When a
live-event websocket URL is set, streamed tokens are buffered between cycles
and injected as discovery input.`,
	RunE: runDaemon,
}

func init() {
	daemonCmd.Flags().StringVar(&flagLiveEventURL, "live-events", "", "websocket URL for the live token event stream")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	engine := app.New(cfg, collector)

	if cfg.Metrics.Addr != "" {
		srv := metrics.Serve(cfg.Metrics.Addr, registry)
		defer srv.Close()
	}

	var feed *discovery.LiveEventFeed
	if flagLiveEventURL != "" {
		feed = discovery.NewLiveEventFeed(flagLiveEventURL, 256)
		go feed.Run(ctx)
	}

	sched := scheduler.New(cfg.Cycle.Schedule, func(ctx context.Context) error {
		var records []discovery.Record
		if feed != nil {
			records = feed.Drain()
		}
		candidates, dropped := discovery.Normalize(records, time.Now().UTC())
		if dropped > 0 {
			engine.Controller.Cost().AddPrefilterDrops(dropped)
		}

		result, err := engine.Controller.TryRunCycle(ctx, candidates)
		if err != nil {
			return err
		}
		engine.MarkAlerted(ctx, result)
		log.Info().Int("emitted", len(result.Ranked)).
			Float64("savings_pct", result.Cost.SavingsPct).
			Msg("scheduled cycle finished")
		return nil
	})

	return sched.Start(ctx)
}
