// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/agenda-bdd/internal/config"
)

const shutdownGracePeriod = 15 * time.Second

// Manager owns the browser process and hands out one tab per session.
type Manager struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	sessions map[string]*Session
	mu       sync.RWMutex
	wg       sync.WaitGroup // Tracks open sessions so Shutdown can wait for them.

	initOnce sync.Once
	initErr  error
}

// NewManager creates a browser manager. The browser is launched lazily on the
// first session request.
func NewManager(cfg config.BrowserConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		cfg:      cfg,
		logger:   logger.Named("browser_manager"),
		sessions: make(map[string]*Session),
	}
	m.logger.Debug("Browser manager created (launch deferred).")
	return m
}

// initialize starts the allocator and the browser process. The allocator is
// detached from ctx so the browser outlives the request that launched it.
func (m *Manager) initialize(ctx context.Context) error {
	m.initOnce.Do(func() {
		m.logger.Info("Launching browser.", zap.Bool("headless", m.cfg.Headless))

		m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(context.WithoutCancel(ctx), DefaultAllocatorOptions(m.cfg)...)

		sugar := m.logger.Sugar()
		ctxOpts := []chromedp.ContextOption{
			chromedp.WithLogf(sugar.Infof),
			chromedp.WithErrorf(sugar.Errorf),
		}
		if m.cfg.Debug {
			ctxOpts = append(ctxOpts, chromedp.WithDebugf(sugar.Debugf))
		}
		m.browserCtx, m.browserCancel = chromedp.NewContext(m.allocCtx, ctxOpts...)

		if err := attach(ctx, m.browserCtx, m.browserCancel); err != nil {
			m.browserCancel()
			m.allocCancel()
			m.initErr = fmt.Errorf("failed to launch browser: %w", err)
			return
		}
		m.logger.Info("Browser launched.")
	})
	return m.initErr
}

// NewSession opens a fresh tab.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	if err := m.initialize(ctx); err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(m.browserCtx)
	if err := attach(ctx, tabCtx, tabCancel); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to open browser tab: %w", err)
	}

	session := newSession(tabCtx, tabCancel, m.cfg, m.logger)
	watchConsole(tabCtx, session.logger)

	m.wg.Add(1)
	session.onClose = func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.sessions, session.ID())
		m.wg.Done()
		m.logger.Debug("Session removed from manager.", zap.String("session_id", session.ID()))
	}

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	m.logger.Debug("New session created.", zap.String("session_id", session.ID()))
	return session, nil
}

// SessionCount reports how many sessions are open.
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown closes every session and then the browser process.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.browserCtx == nil || m.initErr != nil {
		m.logger.Debug("Browser was never launched, nothing to shut down.")
		return nil
	}
	m.logger.Info("Shutting down browser manager.")

	m.mu.RLock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.RUnlock()

	for _, s := range open {
		if err := s.Close(ctx); err != nil {
			m.logger.Warn("Error during session close in shutdown.", zap.String("session_id", s.ID()), zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("Timeout waiting for sessions to close. Proceeding with forceful shutdown.", zap.Error(ctx.Err()))
	}

	cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cleanupCancel()

	var shutdownErr error
	closed := make(chan error, 1)
	go func() { closed <- chromedp.Cancel(m.browserCtx) }()
	select {
	case err := <-closed:
		if err != nil {
			shutdownErr = fmt.Errorf("failed to close browser: %w", err)
		}
	case <-cleanupCtx.Done():
		shutdownErr = fmt.Errorf("timed out closing browser: %w", cleanupCtx.Err())
	}
	m.browserCancel()
	m.allocCancel()

	m.logger.Info("Browser manager shutdown complete.")
	return shutdownErr
}
