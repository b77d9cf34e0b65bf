// internal/browser/manager_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/agenda-bdd/internal/config"
)

func TestManagerShutdownBeforeLaunch(t *testing.T) {
	mgr := NewManager(config.NewDefaultConfig().Browser(), zaptest.NewLogger(t))
	assert.Zero(t, mgr.SessionCount())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, mgr.Shutdown(ctx))
}

func TestManagerLaunchFailure(t *testing.T) {
	cfg := config.NewDefaultConfig().Browser()
	cfg.ExecPath = "/nonexistent/agenda-bdd/chrome"
	mgr := NewManager(cfg, zaptest.NewLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := mgr.NewSession(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to launch browser")

	// The failure is remembered rather than retried.
	_, again := mgr.NewSession(ctx)
	assert.Equal(t, err, again)

	assert.NoError(t, mgr.Shutdown(ctx))
}
