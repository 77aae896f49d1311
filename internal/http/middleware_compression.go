package httpx

import (
	"bufio"
	"compress/gzip"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig configures the gzip middleware.
type CompressionConfig struct {
	// Level is the gzip level, 1 (fastest) through 9 (best).
	Level int
	// MinSize buffers small responses and skips compression below this
	// many bytes. Zero compresses everything eligible.
	MinSize int
	Logger  *slog.Logger

	pool          *sync.Pool
	compressTypes map[string]bool
}

// compressibleTypes lists the media types worth gzipping. Already-compressed
// formats (images, archives, video) are excluded.
var compressibleTypes = map[string]bool{ //nolint:gochecknoglobals // static media type set
	"text/html":                true,
	"text/css":                 true,
	"text/plain":               true,
	"text/xml":                 true,
	"text/javascript":          true,
	"application/javascript":   true,
	"application/x-javascript": true,
	"application/json":         true,
	"application/xml":          true,
	"application/rss+xml":      true,
	"application/atom+xml":     true,
	"image/svg+xml":            true,
}

// Compression gzips eligible responses. A response is eligible when the
// client accepts gzip, the method is not HEAD, the status carries a body,
// the content type is compressible, and nothing upstream already set a
// Content-Encoding.
func Compression(cfg CompressionConfig) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.compressTypes == nil {
		cfg.compressTypes = compressibleTypes
	}
	if cfg.pool == nil {
		level := cfg.Level
		cfg.pool = &sync.Pool{
			New: func() any {
				w, err := gzip.NewWriterLevel(io.Discard, level)
				if err != nil {
					return gzip.NewWriter(io.Discard)
				}
				return w
			},
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead || !acceptsGzip(r.Header.Get("Accept-Encoding")) {
				next.ServeHTTP(w, r)
				return
			}

			cw := &compressWriter{
				ResponseWriter: w,
				request:        r,
				config:         &cfg,
				minSize:        cfg.MinSize,
			}
			w.Header().Add("Vary", "Accept-Encoding")

			next.ServeHTTP(cw, r)
			cw.finish()
		})
	}
}

// acceptsGzip parses Accept-Encoding just enough to honor q=0 opt-outs.
func acceptsGzip(acceptEncoding string) bool {
	for _, part := range strings.Split(acceptEncoding, ",") {
		part = strings.TrimSpace(part)
		name, _, _ := strings.Cut(part, ";")
		if !strings.EqualFold(strings.TrimSpace(name), "gzip") {
			continue
		}
		optOut := strings.Contains(part, "q=0.0") ||
			strings.Contains(part, "q=0;") ||
			strings.HasSuffix(part, "q=0")
		return !optOut
	}
	return false
}

// isCompressibleContentType strips parameters ("; charset=utf-8") before the
// lookup.
func isCompressibleContentType(contentType string, compressTypes map[string]bool) bool {
	media, _, _ := strings.Cut(contentType, ";")
	return compressTypes[strings.TrimSpace(strings.ToLower(media))]
}

// compressWriter defers the compress-or-not decision to WriteHeader time,
// when status and Content-Type are known.
type compressWriter struct {
	http.ResponseWriter
	request       *http.Request
	config        *CompressionConfig
	gz            *gzip.Writer
	headerWritten bool
	minSize       int
	buffered      []byte
}

func (w *compressWriter) WriteHeader(statusCode int) {
	if w.headerWritten {
		return
	}
	w.headerWritten = true

	bodyless := statusCode < 200 ||
		statusCode == http.StatusNoContent ||
		statusCode == http.StatusNotModified
	if bodyless || w.Header().Get("Content-Encoding") != "" {
		w.ResponseWriter.WriteHeader(statusCode)
		return
	}

	// Missing Content-Type means Write will sniff one; assume compressible.
	if ct := w.Header().Get("Content-Type"); ct != "" && !isCompressibleContentType(ct, w.config.compressTypes) {
		w.ResponseWriter.WriteHeader(statusCode)
		return
	}

	gz, ok := w.config.pool.Get().(*gzip.Writer)
	if !ok {
		w.ResponseWriter.WriteHeader(statusCode)
		return
	}
	gz.Reset(w.ResponseWriter)
	w.gz = gz
	w.Header().Set("Content-Encoding", "gzip")
	w.Header().Del("Content-Length")

	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *compressWriter) Write(b []byte) (int, error) {
	if !w.headerWritten {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(b))
		}
		w.WriteHeader(http.StatusOK)
	}

	// Below MinSize, hold the bytes until the response proves big enough.
	if w.minSize > 0 && w.gz != nil && len(w.buffered) < w.minSize {
		w.buffered = append(w.buffered, b...)
		if len(w.buffered) < w.minSize {
			return len(b), nil
		}
		_, err := w.gz.Write(w.buffered)
		w.buffered = nil
		return len(b), err
	}

	if w.gz != nil {
		return w.gz.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

// finish drains any bytes still held by the MinSize buffer, closes the
// gzip stream, and returns the writer to the pool.
func (w *compressWriter) finish() {
	if w.gz == nil {
		return
	}
	if len(w.buffered) > 0 {
		if _, err := w.gz.Write(w.buffered); err != nil {
			w.config.Logger.ErrorContext(w.request.Context(), "writing buffered response failed", "error", err)
		}
		w.buffered = nil
	}
	if err := w.gz.Close(); err != nil {
		w.config.Logger.ErrorContext(w.request.Context(), "closing gzip writer failed", "error", err)
	}
	w.gz.Reset(io.Discard)
	w.config.pool.Put(w.gz)
	w.gz = nil
}

// Flush supports streaming responses.
func (w *compressWriter) Flush() {
	if w.gz != nil {
		if err := w.gz.Flush(); err != nil {
			w.config.Logger.ErrorContext(w.request.Context(), "flushing gzip writer failed", "error", err)
		}
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack passes through for connection upgrades.
func (w *compressWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("http.Hijacker not supported")
}

// Push passes through for HTTP/2 server push.
func (w *compressWriter) Push(target string, opts *http.PushOptions) error {
	if p, ok := w.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return errors.New("http.Pusher not supported")
}
