package middleware

import (
	"bytes"
	"net/http"
)

// statusRecorder captures the status code and, when body is set, a bounded copy of the
// response body.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	limit      int
	truncated  bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
}

func newBodyRecorder(w http.ResponseWriter, limit int) *statusRecorder {
	rec := newStatusRecorder(w)
	rec.body = &bytes.Buffer{}
	rec.limit = limit
	return rec
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.body != nil && !r.truncated {
		if r.body.Len()+len(b) > r.limit {
			r.truncated = true
		} else {
			r.body.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}
