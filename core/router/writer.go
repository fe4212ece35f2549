package router

import (
	"bufio"
	"errors"
	"net"
	"net/http"
)

// responseWriter wraps http.ResponseWriter to track whether the response
// started, the status code, and the number of body bytes written. Hooks
// reading these after the handler ran (access logs, metrics) get the real
// outcome instead of what the builder intended.
type responseWriter struct {
	http.ResponseWriter
	status  int
	bytes   int64
	written bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w}
}

func (w *responseWriter) WriteHeader(status int) {
	if w.written {
		return
	}
	w.status = status
	w.written = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Written reports whether the response headers went out.
func (w *responseWriter) Written() bool {
	return w.written
}

// Status returns the status code sent, or zero before the first write.
func (w *responseWriter) Status() int {
	return w.status
}

// BytesWritten returns the number of body bytes written so far.
func (w *responseWriter) BytesWritten() int64 {
	return w.bytes
}

// Flush implements http.Flusher when the underlying writer supports it.
func (w *responseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack implements http.Hijacker for websocket upgrades.
func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("response writer does not support hijacking")
}

// ResponseStatus reports the status code already sent on w, unwrapping the
// router's writer. Returns zero when nothing was written yet or the writer
// is not router-managed.
func ResponseStatus(w http.ResponseWriter) int {
	if ww, ok := w.(*responseWriter); ok {
		return ww.Status()
	}
	return 0
}

// ResponseBytes reports the body bytes already sent on w, unwrapping the
// router's writer.
func ResponseBytes(w http.ResponseWriter) int64 {
	if ww, ok := w.(*responseWriter); ok {
		return ww.BytesWritten()
	}
	return 0
}
