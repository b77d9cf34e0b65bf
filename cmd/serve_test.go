// File: cmd/serve_test.go
package cmd

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/agenda-bdd/internal/config"
)

func TestRunServe(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.FixtureCfg.Seed = 3
	cfg.FixtureCfg.Bookmarked = true

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, zaptest.NewLogger(t), cfg, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/agenda")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, strings.Count(string(body), `data-bookmarked="true"`))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeCmd_RejectsArgs(t *testing.T) {
	_, _, err := executeCommand(t, "serve", "extra")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}
