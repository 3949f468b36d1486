// Package responsewriter captures what a handler actually sent: the status
// code and the body size. The logging and metrics middleware both wrap the
// response through here so the two never disagree about what happened.
package responsewriter

import (
	"net/http"
)

// Recorder wraps an http.ResponseWriter and records the response status and
// body size while passing everything through.
type Recorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

// Wrap returns a Recorder around w. The status defaults to 200 because
// handlers that never call WriteHeader send exactly that.
func Wrap(w http.ResponseWriter) *Recorder {
	return &Recorder{
		ResponseWriter: w,
		status:         http.StatusOK,
	}
}

// WriteHeader records the status and forwards the first call; later calls
// are dropped, matching net/http's superfluous-WriteHeader behavior without
// the log noise.
func (rec *Recorder) WriteHeader(status int) {
	if rec.wroteHeader {
		return
	}
	rec.status = status
	rec.wroteHeader = true
	rec.ResponseWriter.WriteHeader(status)
}

// Write forwards the body bytes and accumulates the written size. A Write
// before any WriteHeader commits the implicit 200 first, so Status is
// correct even for handlers that only ever call Write.
func (rec *Recorder) Write(b []byte) (int, error) {
	if !rec.wroteHeader {
		rec.WriteHeader(http.StatusOK)
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

// Status returns the response status that was sent (or will be sent).
func (rec *Recorder) Status() int {
	return rec.status
}

// Bytes returns the number of body bytes written so far.
func (rec *Recorder) Bytes() int {
	return rec.bytes
}

// Unwrap exposes the underlying writer so http.ResponseController can reach
// Flusher and friends through the wrapper.
func (rec *Recorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}
