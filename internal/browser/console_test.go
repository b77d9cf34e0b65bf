package browser

import (
	"testing"

	"github.com/chromedp/cdproto/runtime"
	"github.com/stretchr/testify/assert"
)

func TestConsoleText(t *testing.T) {
	e := &runtime.EventConsoleAPICalled{
		Type: runtime.APITypeError,
		Args: []*runtime.RemoteObject{
			{Type: runtime.TypeString, Value: []byte(`"bookmark update failed:"`)},
			{Type: runtime.TypeNumber, Value: []byte(`503`)},
			{Type: runtime.TypeObject, Description: "Response"},
			{Type: runtime.TypeFunction},
		},
	}
	assert.Equal(t, "bookmark update failed: 503 Response [function]", consoleText(e))
	assert.Empty(t, consoleText(&runtime.EventConsoleAPICalled{}))
}

func TestExceptionText(t *testing.T) {
	assert.Empty(t, exceptionText(&runtime.EventExceptionThrown{}))

	plain := &runtime.EventExceptionThrown{ExceptionDetails: &runtime.ExceptionDetails{Text: "Uncaught"}}
	assert.Equal(t, "Uncaught", exceptionText(plain))

	described := &runtime.EventExceptionThrown{ExceptionDetails: &runtime.ExceptionDetails{
		Text:      "Uncaught",
		Exception: &runtime.RemoteObject{Description: "TypeError: form is null\n    at agenda:12"},
	}}
	assert.Equal(t, "TypeError: form is null\n    at agenda:12", exceptionText(described))
}
