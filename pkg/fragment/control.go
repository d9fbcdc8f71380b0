package fragment

import (
	"fmt"
	"net/http"
)

// ControlResponse is a fully-formed HTTP response used as a control-flow
// signal: a loader or action returns it as its error to short-circuit
// normal resolution (redirects, explicit 4xx/5xx). The server propagates it
// verbatim instead of composing a document.
type ControlResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Error implements the error interface so control responses flow through
// the ordinary error return path and are matched with errors.As.
func (c *ControlResponse) Error() string {
	return fmt.Sprintf("fragment: control response %d", c.StatusCode)
}

// Redirect builds a ControlResponse that redirects to url with the given
// status code (e.g. http.StatusSeeOther).
func Redirect(url string, code int) *ControlResponse {
	h := make(http.Header)
	h.Set("Location", url)
	return &ControlResponse{StatusCode: code, Header: h}
}

// Respond builds a ControlResponse with an arbitrary status and body.
func Respond(code int, contentType string, body []byte) *ControlResponse {
	h := make(http.Header)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &ControlResponse{StatusCode: code, Header: h, Body: body}
}
