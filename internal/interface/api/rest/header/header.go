// Package header holds small helpers over request headers shared by
// the REST controllers.
package header

import (
	"mime"
	"net/http"
)

// IsApplicationJSONContentType reports whether the request declares an
// application/json body. Media type parameters such as charset are
// ignored.
func IsApplicationJSONContentType(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}
