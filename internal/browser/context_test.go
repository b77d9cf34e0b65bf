// internal/browser/context_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

type ctxKey struct{}

func TestCombineContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("inherits values from primary", func(t *testing.T) {
		primary := context.WithValue(context.Background(), ctxKey{}, "target")
		combined, cancel := combineContext(primary, context.Background())
		defer cancel()
		assert.Equal(t, "target", combined.Value(ctxKey{}))
	})

	t.Run("canceled by secondary", func(t *testing.T) {
		secondary, cancelSecondary := context.WithCancel(context.Background())
		combined, cancel := combineContext(context.Background(), secondary)
		defer cancel()

		cancelSecondary()
		select {
		case <-combined.Done():
		case <-time.After(time.Second):
			t.Fatal("combined context was not canceled by secondary")
		}
	})

	t.Run("canceled by primary", func(t *testing.T) {
		primary, cancelPrimary := context.WithCancel(context.Background())
		combined, cancel := combineContext(primary, context.Background())
		defer cancel()

		cancelPrimary()
		<-combined.Done()
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})
}

func TestAttach(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("caller cancellation tears the target down", func(t *testing.T) {
		ctx, cancelCtx := context.WithCancel(context.Background())
		cancelCtx()
		target, cancel := context.WithCancel(context.Background())
		defer cancel()

		assert.Error(t, attach(ctx, target, cancel))
		<-target.Done()
	})

	t.Run("target outlives the caller after attaching", func(t *testing.T) {
		ctx, cancelCtx := context.WithCancel(context.Background())
		target, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Not a chromedp context, so Run fails fast without touching target.
		assert.ErrorIs(t, attach(ctx, target, cancel), chromedp.ErrInvalidContext)
		cancelCtx()
		assert.NoError(t, target.Err())
	})
}
