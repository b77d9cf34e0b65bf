// File: cmd/agenda-bdd/main_test.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/agenda-bdd/cmd"
	"github.com/xkilldash9x/agenda-bdd/internal/suite"
)

// resetMocks restores the original function implementations.
func resetMocks() {
	osWriteFile = os.WriteFile
	osExit = os.Exit
	execute = cmd.Execute
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitCancelled, exitCode(fmt.Errorf("run aborted: %w", context.Canceled)))
	assert.Equal(t, exitCancelled, exitCode(fmt.Errorf("%w: %w", suite.ErrSuiteFailed, context.Canceled)))
	assert.Equal(t, exitFailure, exitCode(suite.ErrSuiteFailed))
	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
}

func TestMainExitsWithCommandStatus(t *testing.T) {
	defer resetMocks()

	var code = -1
	osExit = func(c int) { code = c }
	execute = func(ctx context.Context) error {
		require.NotNil(t, ctx)
		return suite.ErrSuiteFailed
	}

	main()
	assert.Equal(t, exitFailure, code)
}

func TestHandlePanic(t *testing.T) {
	t.Run("writes the panic log", func(t *testing.T) {
		defer resetMocks()

		var (
			path    string
			content []byte
			code    = -1
		)
		osWriteFile = func(name string, data []byte, _ os.FileMode) error {
			path, content = name, data
			return nil
		}
		osExit = func(c int) { code = c }

		func() {
			defer handlePanic()
			panic("page driver exploded")
		}()

		assert.Equal(t, panicLogFile, path)
		assert.Contains(t, string(content), "panic: page driver exploded")
		assert.Contains(t, string(content), "goroutine")
		assert.Equal(t, exitFailure, code)
	})

	t.Run("falls back to stderr when the log cannot be written", func(t *testing.T) {
		defer resetMocks()

		code := -1
		osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only file system") }
		osExit = func(c int) { code = c }

		func() {
			defer handlePanic()
			panic("again")
		}()

		assert.Equal(t, exitFailure, code)
	})

	t.Run("no panic is a no-op", func(t *testing.T) {
		defer resetMocks()

		exited := false
		osExit = func(int) { exited = true }

		func() {
			defer handlePanic()
		}()

		assert.False(t, exited)
	})
}
