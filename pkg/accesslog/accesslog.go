// Package accesslog provides an HTTP access log middleware.
package accesslog

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/ovozbot/finance-service/pkg/logger"
)

// Handler returns a middleware that logs one line per request with
// method, path, status, response size and duration.
func Handler(logger logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		f := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.With(r.Context(),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
			).Infof("%s %s %d", r.Method, r.URL.Path, ww.Status())
		}
		return http.HandlerFunc(f)
	}
}
