// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/agenda-bdd/internal/config"
)

// ErrSessionClosed is returned by actions on a closed session.
var ErrSessionClosed = errors.New("browser session is closed")

// Session is one browser tab.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	cfg    config.BrowserConfig
	logger *zap.Logger

	onClose func()

	mu       sync.Mutex
	isClosed bool
}

func newSession(ctx context.Context, cancel context.CancelFunc, cfg config.BrowserConfig, logger *zap.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:     id,
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		logger: logger.Named("session").With(zap.String("session_id", id)),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Navigate loads url and waits until waitSelector (CSS) is ready. The whole
// call is bounded by browser.navigation_timeout.
func (s *Session) Navigate(ctx context.Context, url, waitSelector string) error {
	var actions []chromedp.Action
	if s.cfg.DisableCache {
		actions = append(actions, chromedp.ActionFunc(func(c context.Context) error {
			if err := network.Enable().Do(c); err != nil {
				s.logger.Warn("Failed to enable network domain", zap.Error(err))
				return nil
			}
			if err := network.SetCacheDisabled(true).Do(c); err != nil {
				s.logger.Warn("Failed to disable browser cache", zap.Error(err))
			}
			return nil
		}))
	}
	actions = append(actions, chromedp.Navigate(url))
	if waitSelector != "" {
		actions = append(actions, chromedp.WaitReady(waitSelector, chromedp.ByQuery))
	}
	if err := s.run(ctx, s.cfg.NavigationTimeout, actions...); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	s.logger.Debug("Navigated.", zap.String("url", url))
	return nil
}

// Run executes actions in the tab, bounded by browser.action_timeout.
func (s *Session) Run(ctx context.Context, actions ...chromedp.Action) error {
	return s.run(ctx, s.cfg.ActionTimeout, actions...)
}

// Evaluate runs a JavaScript expression and unmarshals its result into res.
func (s *Session) Evaluate(ctx context.Context, expression string, res interface{}) error {
	return s.Run(ctx, chromedp.Evaluate(expression, res))
}

// run executes actions so they respect both the tab lifetime and ctx.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	s.mu.Lock()
	closed := s.isClosed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}

	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()
	if timeout > 0 {
		var timeoutCancel context.CancelFunc
		runCtx, timeoutCancel = context.WithTimeout(runCtx, timeout)
		defer timeoutCancel()
	}
	return chromedp.Run(runCtx, actions...)
}

// Close closes the tab. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	s.mu.Unlock()

	s.logger.Debug("Closing browser session.")

	closed := make(chan error, 1)
	go func() { closed <- chromedp.Cancel(s.ctx) }()

	var err error
	select {
	case err = <-closed:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.onClose != nil {
		s.onClose()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close tab: %w", err)
	}
	return nil
}
