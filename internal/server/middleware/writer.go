package middleware

import (
	"bytes"
	"net/http"
)

// responseWriter wraps http.ResponseWriter to capture status code, size and
// a copy of the body for usage recording.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	body         bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	rw.body.Write(b[:n])
	return n, err
}
