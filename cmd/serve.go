// cmd/serve.go
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/drover/internal/browser"
	"github.com/xkilldash9x/drover/internal/control"
	"github.com/xkilldash9x/drover/internal/engine"
	"github.com/xkilldash9x/drover/internal/observability"
)

var serveStartURL string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the control API and wait for sessions to be started remotely.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()

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

		if serveStartURL != "" {
			if err := tab.Navigate(ctx, serveStartURL); err != nil {
				return err
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		srv := control.New(appCfg.Control, eng, logger)
		g.Go(func() error { return srv.Run(gctx) })
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveStartURL, "url", "u", "", "URL to open before serving")
	rootCmd.AddCommand(serveCmd)
}
