// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/zyclicker/internal/config"
)

// ErrSessionClosed is returned by operations on a closed session.
var ErrSessionClosed = errors.New("browser: session closed")

// Session is a single browser tab.
type Session struct {
	id     string
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc
	cfg    config.BrowserConfig
	logger *zap.Logger

	onClose   func()
	closeOnce sync.Once
}

func newSession(parent context.Context, cfg config.BrowserConfig, logger *zap.Logger) *Session {
	id := uuid.New().String()
	return &Session{
		id:     id,
		parent: parent,
		cfg:    cfg,
		logger: logger.Named("session").With(zap.String("session_id", id[:8])),
	}
}

// initialize opens the tab and applies the viewport override.
func (s *Session) initialize(ctx context.Context) error {
	tabCtx, cancel := chromedp.NewContext(s.parent)
	s.ctx = tabCtx
	s.cancel = cancel

	var actions []chromedp.Action
	if s.cfg.Viewport.Width > 0 && s.cfg.Viewport.Height > 0 {
		actions = append(actions, emulation.SetDeviceMetricsOverride(s.cfg.Viewport.Width, s.cfg.Viewport.Height, 1.0, false))
	}
	if err := s.Run(ctx, actions...); err != nil {
		cancel()
		return fmt.Errorf("failed to open tab: %w", err)
	}
	s.logger.Debug("Browser tab opened.")
	return nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Run executes actions on the tab. It stops when either ctx or the session
// is done.
func (s *Session) Run(ctx context.Context, actions ...chromedp.Action) error {
	if s.ctx.Err() != nil {
		return ErrSessionClosed
	}
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Navigate loads url and waits for the body to be ready.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if s.cfg.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.NavigationTimeout)
		defer cancel()
	}
	s.logger.Info("Navigating.", zap.String("url", url))
	if err := s.Run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// Evaluate runs a JavaScript expression in the page and decodes its value
// into res. res may be nil when the value is not needed. Promises are awaited.
func (s *Session) Evaluate(ctx context.Context, expression string, res interface{}) error {
	return s.Run(ctx, chromedp.Evaluate(expression, res, func(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
}

// InjectScript evaluates script now and on every document loaded afterwards.
func (s *Session) InjectScript(ctx context.Context, script string) error {
	return s.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
			return err
		}),
		chromedp.Evaluate(script, nil),
	)
}

// Bind exposes window[name](payload) to the page. Each call invokes handler
// on the CDP event goroutine, so handler must not block.
func (s *Session) Bind(ctx context.Context, name string, handler func(payload string)) error {
	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		if e, ok := ev.(*cdpruntime.EventBindingCalled); ok && e.Name == name {
			handler(e.Payload)
		}
	})
	if err := s.Run(ctx, cdpruntime.AddBinding(name)); err != nil {
		return fmt.Errorf("add binding %s: %w", name, err)
	}
	return nil
}

// Done is closed once the session is closed or the browser goes away.
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Close closes the tab. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		if s.onClose != nil {
			s.onClose()
		}
		s.logger.Debug("Browser tab closed.")
	})
	return nil
}
