package static

import (
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

// acceptEncoding lists the encodings the middleware can decode, best first.
const acceptEncoding = "br, gzip, deflate"

var brotliReaderPool = sync.Pool{
	New: func() interface{} { return brotli.NewReader(nil) },
}

// CompressionMiddleware is an http.RoundTripper that negotiates compression
// and hands the caller a decoded body.
type CompressionMiddleware struct {
	Transport http.RoundTripper
}

// NewCompressionMiddleware wraps transport, or http.DefaultTransport when nil.
func NewCompressionMiddleware(transport http.RoundTripper) *CompressionMiddleware {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &CompressionMiddleware{Transport: transport}
}

// RoundTrip implements http.RoundTripper.
func (cm *CompressionMiddleware) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}

	resp, err := cm.Transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if err := decodeResponse(resp); err != nil {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	return resp, nil
}

// decodedBody closes the decoder and then the wire body.
type decodedBody struct {
	io.Reader
	closeDecoder func() error
	wire         io.ReadCloser
}

func (b *decodedBody) Close() error {
	var err1 error
	if b.closeDecoder != nil {
		err1 = b.closeDecoder()
		b.closeDecoder = nil
	}
	return errors.Join(err1, b.wire.Close())
}

// decodeResponse unwraps every Content-Encoding layer, last applied first,
// and strips the headers that described the encoded body.
func decodeResponse(resp *http.Response) error {
	if resp == nil || resp.Body == nil {
		return nil
	}
	encodings := resp.Header.Values("Content-Encoding")
	if len(encodings) == 0 {
		return nil
	}

	for i := len(encodings) - 1; i >= 0; i-- {
		for _, layer := range reverse(strings.Split(encodings[i], ",")) {
			body, err := decodeLayer(strings.ToLower(strings.TrimSpace(layer)), resp.Body)
			if err != nil {
				return err
			}
			resp.Body = body
		}
	}

	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return nil
}

func decodeLayer(encoding string, wire io.ReadCloser) (io.ReadCloser, error) {
	switch encoding {
	case "", "identity":
		return wire, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(wire)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return &decodedBody{Reader: zr, closeDecoder: zr.Close, wire: wire}, nil
	case "deflate":
		zr, err := zlib.NewReader(wire)
		if err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		return &decodedBody{Reader: zr, closeDecoder: zr.Close, wire: wire}, nil
	case "br":
		br := brotliReaderPool.Get().(*brotli.Reader)
		if err := br.Reset(wire); err != nil {
			brotliReaderPool.Put(br)
			return nil, fmt.Errorf("brotli: %w", err)
		}
		release := func() error {
			_ = br.Reset(strings.NewReader(""))
			brotliReaderPool.Put(br)
			return nil
		}
		return &decodedBody{Reader: br, closeDecoder: release, wire: wire}, nil
	default:
		return nil, fmt.Errorf("unsupported Content-Encoding %q", encoding)
	}
}

func reverse(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}
