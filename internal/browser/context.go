// internal/browser/context.go
package browser

import (
	"context"

	"github.com/chromedp/chromedp"
)

// combineContext derives a context from primary, which carries the chromedp
// target, that is also canceled when secondary is done.
func combineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)
	stop := context.AfterFunc(secondary, cancel)
	return combined, func() {
		stop()
		cancel()
	}
}

// attach makes the first chromedp.Run directly on target, whose context then
// owns the browser process or tab. ctx only bounds the attach itself: if it
// ends first, cancel tears target down.
func attach(ctx, target context.Context, cancel context.CancelFunc) error {
	stop := context.AfterFunc(ctx, cancel)
	err := chromedp.Run(target)
	if !stop() && err == nil {
		err = ctx.Err()
	}
	return err
}
