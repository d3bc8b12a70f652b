// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/zyclicker/internal/config"
)

// Manager owns the Chrome process. Every Session is a tab derived from it.
type Manager struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	// browserCtx owns the Chrome process; sessions are tabs derived from it.
	browserCtx context.Context
	cancel     context.CancelFunc

	// wg tracks open sessions for a graceful shutdown.
	wg sync.WaitGroup
}

// NewManager launches Chrome and checks that it responds.
func NewManager(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (*Manager, error) {
	m := &Manager{
		logger: logger.Named("browser_manager"),
		cfg:    cfg,
	}
	if err := m.launchBrowser(ctx); err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return m, nil
}

func (m *Manager) launchBrowser(ctx context.Context) error {
	m.logger.Info("Initializing browser allocator...",
		zap.Bool("headless", m.cfg.Headless),
		zap.String("user_data_dir", m.cfg.UserDataDir))

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, buildAllocatorOptions(m.cfg)...)
	// The first context owns the browser process: cancelling it closes Chrome,
	// so the launch deadline is enforced with a timer rather than a derived context.
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	cancel := func() {
		cancelBrowser()
		cancelAlloc()
	}

	timer := time.AfterFunc(m.cfg.LaunchTimeout, cancel)
	err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank"))
	if !timer.Stop() {
		return fmt.Errorf("browser did not respond within %v", m.cfg.LaunchTimeout)
	}
	if err != nil {
		cancel()
		return fmt.Errorf("browser failed to start or respond: %w", err)
	}

	m.browserCtx = browserCtx
	m.cancel = cancel
	m.logger.Info("Browser launched successfully and is responsive.")
	return nil
}

// allocatorFlags computes the Chrome command-line flags for cfg.
func allocatorFlags(cfg config.BrowserConfig) map[string]interface{} {
	flags := map[string]interface{}{
		"headless":           cfg.Headless,
		"disable-extensions": true,
		"disable-gpu":        cfg.Headless,
		"mute-audio":         true,
		// Background tabs throttle timers, which stretches every settle pause.
		"disable-background-timer-throttling": true,
		"disable-renderer-backgrounding":      true,
	}
	if runtime.GOOS == "linux" {
		flags["no-sandbox"] = true
		flags["disable-dev-shm-usage"] = true
	}

	// Custom arguments from config.yaml win over the defaults above.
	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimPrefix(parts[0], "--")
		if name == "" {
			continue
		}
		if len(parts) == 2 {
			flags[name] = parts[1]
		} else {
			flags[name] = true
		}
	}
	return flags
}

// buildAllocatorOptions turns cfg into chromedp allocator options.
func buildAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	// "enable-automation" shows an infobar over the page.
	opts = append(opts, chromedp.Flag("enable-automation", false))

	flags := allocatorFlags(cfg)
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		opts = append(opts, chromedp.Flag(name, flags[name]))
	}

	if cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.Viewport.Width > 0 && cfg.Viewport.Height > 0 {
		opts = append(opts, chromedp.WindowSize(int(cfg.Viewport.Width), int(cfg.Viewport.Height)))
	}
	return opts
}

// NewSession opens a new tab.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	s := newSession(m.browserCtx, m.cfg, m.logger)
	if err := s.initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	m.wg.Add(1)
	s.onClose = m.wg.Done
	return s, nil
}

// Shutdown waits for open sessions, bounded by ctx, then kills Chrome.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Browser manager shutdown initiated. Waiting for active sessions to complete...")

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("All sessions have completed.")
	case <-ctx.Done():
		m.logger.Warn("Shutdown deadline exceeded. Forcing browser termination.", zap.Error(ctx.Err()))
	}

	if m.cancel != nil {
		m.logger.Info("Shutting down browser process...")
		m.cancel()
		<-m.browserCtx.Done()
	}
	return nil
}
