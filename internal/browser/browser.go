// internal/browser/browser.go

// Package browser drives a real Chromium instance over CDP and exposes it
// through the page capability surface. Everything above this package is
// browser-agnostic; everything chromedp-specific lives here.
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/drover/internal/config"
)

// Browser owns the Chromium process lifecycle and the single automation tab.
type Browser struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCancel context.CancelFunc
	tabCancel   context.CancelFunc
	tab         *Tab
}

// New creates a browser manager. The process launches on Start.
func New(cfg config.BrowserConfig, logger *zap.Logger) *Browser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Browser{
		cfg:    cfg,
		logger: logger.Named("browser"),
	}
}

// execOptions translates the browser config into allocator options.
func (b *Browser) execOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		// Required on hardened and containerized hosts.
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(b.cfg.WindowWidth, b.cfg.WindowHeight),
	)
	if !b.cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if b.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.cfg.UserAgent))
	}
	return opts
}

// Start launches Chromium and connects the automation tab. The returned
// error is fatal; there is no degraded mode without a browser.
func (b *Browser) Start(ctx context.Context) error {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, b.execOptions()...)
	b.allocCancel = allocCancel

	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			b.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	b.tabCancel = tabCancel

	// The first Run starts the process and attaches the target.
	if err := chromedp.Run(tabCtx); err != nil {
		b.Shutdown()
		return fmt.Errorf("browser: launching chromium: %w", err)
	}

	b.tab = NewTab(tabCtx, b.cfg, b.logger)
	b.logger.Info("Browser launched",
		zap.Bool("headless", b.cfg.Headless),
		zap.Int("width", b.cfg.WindowWidth),
		zap.Int("height", b.cfg.WindowHeight))
	return nil
}

// Tab returns the automation tab. Nil before Start.
func (b *Browser) Tab() *Tab {
	return b.tab
}

// Shutdown tears the tab and the browser process down. Safe to call
// repeatedly and before Start.
func (b *Browser) Shutdown() {
	if b.tabCancel != nil {
		b.tabCancel()
		b.tabCancel = nil
	}
	if b.allocCancel != nil {
		b.allocCancel()
		b.allocCancel = nil
	}
	b.tab = nil
	b.logger.Info("Browser shut down")
}
