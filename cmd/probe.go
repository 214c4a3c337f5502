// cmd/probe.go
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/drover/internal/browser"
	"github.com/xkilldash9x/drover/internal/engine"
	"github.com/xkilldash9x/drover/internal/observability"
)

var probeURL string

var probeCmd = &cobra.Command{
	Use:   "probe <selector>",
	Short: "Resolve a selector against a live page and report what it matches.",
	Args:  cobra.ExactArgs(1),
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
		})
		if err != nil {
			return err
		}

		if probeURL != "" {
			if err := tab.Navigate(ctx, probeURL); err != nil {
				return err
			}
		}

		result := eng.TestSelector(ctx, args[0])
		if !result.Found {
			fmt.Printf("selector %q: no match\n", args[0])
			return nil
		}
		fmt.Printf("selector %q: matched %s\n", args[0], result.Element)
		return nil
	},
}

func init() {
	probeCmd.Flags().StringVarP(&probeURL, "url", "u", "", "URL to open before probing")
	rootCmd.AddCommand(probeCmd)
}
