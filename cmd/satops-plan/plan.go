package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"satops-plan/internal/admin"
	"satops-plan/internal/config"
	"satops-plan/internal/logging"
	"satops-plan/internal/plan"
	"satops-plan/internal/platform"
	"satops-plan/internal/report"
	"satops-plan/internal/session"
	"satops-plan/internal/target"
)

var (
	planPrintOnly  bool
	planNoTUI      bool
	planConfigPath string
	planSchemaPath string
	planInterval   time.Duration
	planStep       time.Duration
	planLogFile    string
	planAdminAddr  string
	planSeed       int64
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Run the rolling planning loop",
	Long:  "plan starts the cycle engine: collect targets, distribute observation tasks, await discussions, and report.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(planConfigPath, planSchemaPath)
		if err != nil {
			return err
		}

		cw, aw, gw, tui, cleanup, err := newWriters(cfg, planPrintOnly, planNoTUI, planLogFile)
		if err != nil {
			return err
		}
		defer cleanup()
		if tui != nil {
			defer tui.Close()
		}

		logger := logging.New()
		if tui != nil {
			// keep slog output away from the alternate screen
			logger = logging.NewJSON(os.Stderr)
		}
		ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), logger))
		defer cancel()

		store := session.NewMemoryStore()
		registry := platform.NewMemoryRegistry()
		for _, p := range cfg.Platforms {
			registry.Register(platform.NewSimPlatform(p, store, cfg.Discussion.MaxIterations, planStep))
		}

		seed := planSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		spawner := target.NewSpawner(cfg, seed)
		collect := func(ctx context.Context) []*target.Target {
			return spawner.Spawn(time.Now())
		}

		pollInterval := time.Duration(cfg.Discussion.PollIntervalS * float64(time.Second))
		monitor := session.NewMonitor(store, pollInterval)
		sink := report.NewSink(cfg.Reporting.OutputDir)

		engine := plan.NewEngine(cfg, registry, store, monitor, collect, cw, aw, gw, sink)

		trigger := make(chan struct{}, 1)
		srv := admin.NewServer(engine, store, func() {
			select {
			case trigger <- struct{}{}:
			default:
			}
		})
		go func() {
			logger.Info("admin UI listening", "addr", planAdminAddr)
			if err := srv.Start(planAdminAddr); err != nil {
				logger.Error("admin server failed", "error", err)
			}
		}()
		if tui != nil {
			tui.SetAdminStatus(true)
			go pushSessions(ctx, tui, store)
		}

		go func() {
			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
			<-sigs
			cancel()
		}()

		ticker := time.NewTicker(planInterval)
		defer ticker.Stop()

		for {
			cycle := engine.CheckAndExecuteCycle(ctx)
			if cycle == nil {
				logger.Info("cycle limit reached, stopping", "max_cycles", cfg.MaxCycles)
				return nil
			}

			select {
			case <-ctx.Done():
				logger.Info("planning loop stopped")
				return nil
			case <-trigger:
			case <-ticker.C:
			}
		}
	},
}

// pushSessions feeds discussion snapshots to the TUI session panel.
func pushSessions(ctx context.Context, tui *plan.TUIWriter, store *session.MemoryStore) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tui.SetSessions(store.Snapshot())
		}
	}
}

func init() {
	planCmd.Flags().BoolVar(&planPrintOnly, "print-only", false, "Print rows to STDOUT instead of writing to DB")
	planCmd.Flags().BoolVar(&planNoTUI, "no-tui", false, "Disable the interactive terminal view")
	planCmd.Flags().StringVar(&planConfigPath, "config", "config/planning.yaml", "Path to planning configuration YAML")
	planCmd.Flags().StringVar(&planSchemaPath, "schema", "schemas/planning.cue", "Path to CUE schema file")
	planCmd.Flags().DurationVar(&planInterval, "interval", 30*time.Second, "Pause between planning cycles (e.g. 30s, 2m)")
	planCmd.Flags().DurationVar(&planStep, "step", 2*time.Second, "Discussion iteration interval for simulated platforms")
	planCmd.Flags().StringVar(&planLogFile, "log-file", "", "Path to export cycle/assignment/geometry logs (JSONL)")
	planCmd.Flags().StringVar(&planAdminAddr, "admin-addr", ":8080", "Listen address for the admin UI")
	planCmd.Flags().Int64Var(&planSeed, "seed", 0, "Seed for the detection feed (0 = time-based)")
}
