package server

import (
	"io"
	"net/http"
)

// Response is the outcome of a dispatch. Body may be a live stream still
// being produced by a background pump; it is nil for bodyless responses.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// newResponse builds a Response with an initialized header map.
func newResponse(status int) *Response {
	return &Response{StatusCode: status, Header: make(http.Header)}
}

// WriteTo commits the response onto w: headers first, then the body copied
// chunk by chunk, flushing after each chunk when the transport supports it.
// The body is closed exactly once. A copy error is returned so the caller
// can log the truncation; headers are already committed at that point.
func (resp *Response) WriteTo(w http.ResponseWriter, discardBody bool) error {
	for name, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	if resp.Body == nil {
		return nil
	}
	if discardBody {
		return resp.Body.Close()
	}
	defer resp.Body.Close()

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				// Transport gone: closing with the error aborts the pump.
				resp.closeWithError(werr)
				return werr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// closeWithError aborts a pipe-backed body so the producing side observes
// the failure instead of writing into the void.
func (resp *Response) closeWithError(err error) {
	type closerWithError interface {
		CloseWithError(error) error
	}
	if c, ok := resp.Body.(closerWithError); ok {
		c.CloseWithError(err)
		return
	}
	resp.Body.Close()
}
