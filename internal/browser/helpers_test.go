// internal/browser/helpers_test.go
package browser

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/zyclicker/internal/config"
)

var chromeBinaries = []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"}

// requireBrowser skips the test unless a Chrome binary is installed. The
// returned context is cancelled when the test ends.
func requireBrowser(t *testing.T) (context.Context, *zap.Logger, config.BrowserConfig) {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests are skipped in short mode")
	}

	var execPath string
	for _, name := range chromeBinaries {
		if p, err := exec.LookPath(name); err == nil {
			execPath = p
			break
		}
	}
	if execPath == "" {
		t.Skip("no chrome binary found in PATH")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	cfg := config.BrowserConfig{
		Headless:          true,
		ExecPath:          execPath,
		UserDataDir:       t.TempDir(),
		NavigationTimeout: 30 * time.Second,
	}
	return ctx, zaptest.NewLogger(t), cfg
}
