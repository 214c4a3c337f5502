// cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/drover/api/schemas"
	"github.com/xkilldash9x/drover/internal/browser"
	"github.com/xkilldash9x/drover/internal/control"
	"github.com/xkilldash9x/drover/internal/engine"
	"github.com/xkilldash9x/drover/internal/observability"
)

var (
	runScenario string
	runStartURL string
	runServe    bool
	runSlow     bool
	runHeadless bool
)

// statusPollInterval is how often the run command checks for session
// completion.
const statusPollInterval = 1 * time.Second

var runCmd = &cobra.Command{
	Use:   "run <website-config.json>",
	Short: "Run one scenario from a website configuration to completion.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading website config: %w", err)
		}
		doc, err := schemas.ParseWebsiteConfig(data)
		if err != nil {
			return err
		}

		scenarioID := runScenario
		if scenarioID == "" {
			if len(doc.Scenarios) != 1 {
				return fmt.Errorf("config declares %d scenarios; pick one with --scenario", len(doc.Scenarios))
			}
			for id := range doc.Scenarios {
				scenarioID = id
			}
		}

		if cmd.Flags().Changed("slow") {
			appCfg.Engine.SlowMode = runSlow
		}
		if cmd.Flags().Changed("headless") {
			appCfg.Browser.Headless = runHeadless
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b := browser.New(appCfg.Browser, logger)
		if err := b.Start(ctx); err != nil {
			return err
		}
		defer b.Shutdown()
		tab := b.Tab()

		eng, err := engine.New(engine.Deps{
			Config:  appCfg.Engine,
			Logger:  logger,
			Page:    tab,
			Surface: tab,
			Capture: browser.NewFileCapture(appCfg.Browser.ScreenshotDir, logger),
			Actions: browser.NewZapActionLogger(logger),
		})
		if err != nil {
			return err
		}
		defer eng.Close()

		if runStartURL != "" {
			if err := tab.Navigate(ctx, runStartURL); err != nil {
				return err
			}
		}

		sessionID, err := eng.Start(ctx, scenarioID, doc)
		if err != nil {
			return err
		}
		logger.Info("Session running",
			zap.String("session_id", sessionID),
			zap.String("scenario", scenarioID))

		g, gctx := errgroup.WithContext(ctx)
		if runServe {
			srv := control.New(appCfg.Control, eng, logger)
			g.Go(func() error { return srv.Run(gctx) })
		}
		g.Go(func() error { return waitForCompletion(gctx, eng, logger) })

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		status := eng.Status()
		logger.Info("Session finished",
			zap.String("status", status.Status),
			zap.Float64("progress", status.Progress),
			zap.Int64("duration_ms", status.DurationMs))
		if status.Status == string(engine.StateError) {
			return fmt.Errorf("session failed: %s", status.LastError)
		}
		return nil
	},
}

// waitForCompletion polls engine status until the session reaches a terminal
// state or the context is canceled. Its return unwinds the errgroup, which
// also stops an embedded control server.
func waitForCompletion(ctx context.Context, eng *engine.Engine, logger *zap.Logger) error {
	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			st := engine.State(eng.Status().Status)
			if st.Terminal() {
				return context.Canceled
			}
		}
	}
}

func init() {
	runCmd.Flags().StringVarP(&runScenario, "scenario", "s", "", "scenario id to run (required when the config declares several)")
	runCmd.Flags().StringVarP(&runStartURL, "url", "u", "", "URL to open before the session starts")
	runCmd.Flags().BoolVar(&runServe, "serve", false, "also expose the control API while the session runs")
	runCmd.Flags().BoolVar(&runSlow, "slow", false, "double every resolved duration")
	runCmd.Flags().BoolVar(&runHeadless, "headless", true, "run the browser headless")
	rootCmd.AddCommand(runCmd)
}
