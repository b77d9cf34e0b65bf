package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// watchConsole forwards the tab's console output and uncaught exceptions to
// the logger until the tab closes. Exceptions usually explain why a bookmark
// toggle never settled.
func watchConsole(ctx context.Context, logger *zap.Logger) {
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			fields := []zap.Field{zap.String("type", string(e.Type)), zap.String("text", consoleText(e))}
			if e.Type == runtime.APITypeError || e.Type == runtime.APITypeAssert {
				logger.Warn("Page console error.", fields...)
				return
			}
			logger.Debug("Page console message.", fields...)
		case *runtime.EventExceptionThrown:
			logger.Warn("Uncaught exception in page.", zap.String("text", exceptionText(e)))
		}
	})
}

// consoleText joins the console call arguments the way devtools prints them.
func consoleText(e *runtime.EventConsoleAPICalled) string {
	var b strings.Builder
	for i, arg := range e.Args {
		if i > 0 {
			b.WriteByte(' ')
		}
		var val interface{}
		switch {
		case len(arg.Value) > 0 && json.Unmarshal(arg.Value, &val) == nil:
			fmt.Fprintf(&b, "%v", val)
		case arg.Description != "":
			b.WriteString(arg.Description)
		default:
			fmt.Fprintf(&b, "[%s]", arg.Type)
		}
	}
	return b.String()
}

// exceptionText prefers the exception description, which carries the stack.
func exceptionText(e *runtime.EventExceptionThrown) string {
	if e.ExceptionDetails == nil {
		return ""
	}
	if e.ExceptionDetails.Exception != nil && e.ExceptionDetails.Exception.Description != "" {
		return e.ExceptionDetails.Exception.Description
	}
	return e.ExceptionDetails.Text
}
