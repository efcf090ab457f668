// Package unzip transparently decompresses gzip-encoded request bodies
// so handlers always read plain payloads.
package unzip

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/ovozbot/finance-service/pkg/logger"
)

// gzipBody chains the gzip reader with the original body so closing
// one closes both.
type gzipBody struct {
	zr       *gzip.Reader
	original io.ReadCloser
}

func (b *gzipBody) Read(p []byte) (int, error) {
	return b.zr.Read(p)
}

func (b *gzipBody) Close() error {
	if err := b.original.Close(); err != nil {
		return err
	}
	return b.zr.Close()
}

// Middleware swaps the request body for a decompressing reader when the
// client declares Content-Encoding: gzip. A body that is not actually
// gzip is a client error.
func Middleware(logger logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		f := func(w http.ResponseWriter, r *http.Request) {
			if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
				zr, err := gzip.NewReader(r.Body)
				if err != nil {
					logger.Errorf("read gzip request body: %s", err)
					w.WriteHeader(http.StatusBadRequest)
					return
				}

				wrapped := &gzipBody{zr: zr, original: r.Body}
				defer wrapped.Close()
				r.Body = wrapped
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(f)
	}
}
