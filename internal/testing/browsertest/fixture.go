// Package browsertest provides a headless Chrome fixture for integration
// tests. Tests that use it are skipped when no Chrome binary is installed
// or when running with -short.
package browsertest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/zyclicker/internal/browser"
	"github.com/xkilldash9x/zyclicker/internal/config"
)

var chromeBinaries = []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"}

// Fixture holds a running browser manager.
type Fixture struct {
	Manager *browser.Manager
	Logger  *zap.Logger
	Config  config.BrowserConfig
	// Ctx lives until the test ends.
	Ctx context.Context
}

// findChrome returns the first Chrome binary in PATH.
func findChrome() string {
	for _, name := range chromeBinaries {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

// Setup launches a headless browser for the duration of t.
func Setup(t *testing.T) *Fixture {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests are skipped in short mode")
	}
	execPath := findChrome()
	if execPath == "" {
		t.Skip("no chrome binary found in PATH")
	}

	logger := zaptest.NewLogger(t, zaptest.Level(zap.DebugLevel))
	cfg := config.BrowserConfig{
		Headless:          true,
		ExecPath:          execPath,
		UserDataDir:       t.TempDir(),
		LaunchTimeout:     30 * time.Second,
		NavigationTimeout: 30 * time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	mgr, err := browser.NewManager(ctx, logger, cfg)
	if err != nil {
		cancel()
		t.Fatalf("Failed to initialize Browser Manager: %v", err)
	}

	t.Cleanup(func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := mgr.Shutdown(shutdownCtx); err != nil {
			t.Logf("Error during Browser Manager shutdown: %v", err)
		}
		cancel()
	})

	return &Fixture{Manager: mgr, Logger: logger, Config: cfg, Ctx: ctx}
}

// NewSession opens a tab that is closed when the test finishes.
func (f *Fixture) NewSession(t *testing.T) *browser.Session {
	t.Helper()
	s, err := f.Manager.NewSession(f.Ctx)
	if err != nil {
		t.Fatalf("Failed to initialize session: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// ServeHTML serves html at the root of a test server and returns its URL.
func ServeHTML(t *testing.T, html string) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server.URL
}
