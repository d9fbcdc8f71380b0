package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/strata-dev/strata/pkg/fragment"
	"github.com/strata-dev/strata/pkg/render"
	"github.com/strata-dev/strata/pkg/router"
	"github.com/strata-dev/strata/pkg/suspense"
)

// FragmentHeader marks a partial-render request: when present, the
// outermost document fragment is dropped from the chain before resolution
// so client-side interaction libraries can swap page fragments in place.
const FragmentHeader = "X-Strata-Fragment"

// preamble is written before any fragment content on every full document
// response, however long the loaders take. Partial (fragment-only) responses
// omit it: their first bytes are the outermost resolved fragment's markup.
const preamble = "<!doctype html>"

// Handler dispatches requests against a route table and streams the
// results. It implements http.Handler.
type Handler struct {
	table  *router.Table
	logger *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// New creates a Handler serving the given route table.
func New(table *router.Table, opts ...Option) *Handler {
	h := &Handler{table: table, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP dispatches the request and commits the resulting response.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	resp := h.Dispatch(r)
	err := resp.WriteTo(w, r.Method == http.MethodHead)

	logger := h.logger.With(
		"method", r.Method,
		"path", r.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	if err != nil {
		logger.Warn("server: response truncated", "error", err)
		return
	}
	logger.Info("server: request served")
}

// Dispatch runs the full request lifecycle and returns the response. For
// document requests the response body is a live stream fed by a detached
// pump goroutine; headers and status are final when Dispatch returns.
func (h *Handler) Dispatch(r *http.Request) *Response {
	m, ok := h.table.Match(r.URL.Path)
	if !ok {
		h.logger.Debug("server: dispatch failed",
			"error", &DispatchError{Method: r.Method, Path: r.URL.Path, Err: ErrNoMatch})
		return h.notFound()
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return h.dispatchAction(r, m)
	}
	return h.dispatchGet(r, m)
}

// dispatchAction invokes the leaf fragment's action for a non-GET request.
func (h *Handler) dispatchAction(r *http.Request, m *router.Match) *Response {
	rc := fragment.NewRequestContext(r, m.Params, nil, h.logger)

	v, err := fragment.RunAction(r.Context(), m.Chain, rc)
	if err != nil {
		return h.errorResponse(r, m.Pattern, err)
	}
	return h.dataResponse(v)
}

// dispatchGet serves a GET (or HEAD) request: a streamed document when the
// leaf has a component, a data response when it only has a loader.
func (h *Handler) dispatchGet(r *http.Request, m *router.Match) *Response {
	chain := m.Chain
	leaf := chain.Leaf()

	if leaf.Component == nil {
		if leaf.Loader == nil {
			h.logger.Debug("server: dispatch failed",
				"error", &DispatchError{Method: r.Method, Path: r.URL.Path, Pattern: m.Pattern, Err: ErrNoMatch})
			return h.notFound()
		}
		rc := fragment.NewRequestContext(r, m.Params, nil, h.logger)
		v, err := fragment.ResolveData(r.Context(), chain, rc)
		if err != nil {
			return h.errorResponse(r, m.Pattern, err)
		}
		return h.dataResponse(v)
	}

	// Partial render: drop the document fragment before composing. The
	// response is a fragment swap target, so it also skips the preamble.
	partial := r.Header.Get(FragmentHeader) != ""
	if partial {
		chain = chain.WithoutRoot()
	}

	ctx := r.Context()
	set := suspense.NewSet(h.logger)
	rc := fragment.NewRequestContext(r, m.Params, set, h.logger)

	body, headers, err := fragment.Resolve(ctx, chain, rc)
	if err != nil {
		return h.errorResponse(r, m.Pattern, err)
	}

	resp := newResponse(http.StatusOK)
	for name, values := range headers {
		for _, v := range values {
			resp.Header.Add(name, v)
		}
	}
	if resp.Header.Get("Content-Type") == "" {
		resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	}

	// The pump runs detached so the response (headers already final) is
	// handed to the transport before the body finishes rendering.
	pr, pw := io.Pipe()
	resp.Body = pr
	go h.pump(ctx, pw, body, set, partial)

	return resp
}

// pump writes the document onto the pipe: preamble first (unless the
// response is a partial render), then the composed body, then the suspense
// patches in completion order. The pipe is closed exactly once; on failure
// it is aborted with the error so the reader observes a truncated stream,
// never a falsely-complete one.
func (h *Handler) pump(ctx context.Context, pw *io.PipeWriter, body render.Renderable, set *suspense.Set, partial bool) {
	err := func() error {
		if !partial {
			if _, err := io.WriteString(pw, preamble); err != nil {
				return err
			}
		}
		if body != nil {
			if err := body.Render(ctx, pw); err != nil {
				return err
			}
		}
		return set.Drain(ctx, pw)
	}()

	if err != nil {
		if errors.Is(err, io.ErrClosedPipe) {
			// Reader went away (HEAD discard, client disconnect).
			h.logger.Debug("server: stream reader closed early")
		} else {
			h.logger.Warn("server: document stream aborted", "error", err)
		}
		pw.CloseWithError(err)
		return
	}
	pw.Close()
}

// dataResponse JSON-encodes a loader or action result. A result that is
// itself a control response is returned verbatim.
func (h *Handler) dataResponse(v any) *Response {
	if cr, ok := v.(*fragment.ControlResponse); ok {
		return controlResponse(cr)
	}

	b, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("server: encoding data response", "error", err)
		return h.internalError()
	}

	resp := newResponse(http.StatusOK)
	resp.Header.Set("Content-Type", "application/json; charset=utf-8")
	resp.Body = io.NopCloser(bytes.NewReader(b))
	return resp
}

// errorResponse maps a dispatch failure onto the error taxonomy: control
// responses pass through verbatim and are not logged as faults; a missing
// leaf handler is a 404; anything else is logged and becomes a generic 500
// with no leaked detail.
func (h *Handler) errorResponse(r *http.Request, pattern string, err error) *Response {
	var cr *fragment.ControlResponse
	if errors.As(err, &cr) {
		return controlResponse(cr)
	}
	if errors.Is(err, fragment.ErrNoAction) || errors.Is(err, fragment.ErrNoLoader) {
		return h.notFound()
	}

	h.logger.Error("server: dispatch failed", "error", &DispatchError{
		Method:  r.Method,
		Path:    r.URL.Path,
		Pattern: pattern,
		Err:     err,
	})
	return h.internalError()
}

// controlResponse converts a thrown response into the dispatch result.
func controlResponse(cr *fragment.ControlResponse) *Response {
	resp := newResponse(cr.StatusCode)
	for name, values := range cr.Header {
		for _, v := range values {
			resp.Header.Add(name, v)
		}
	}
	if len(cr.Body) > 0 {
		resp.Body = io.NopCloser(bytes.NewReader(cr.Body))
	}
	return resp
}

func (h *Handler) notFound() *Response {
	resp := newResponse(http.StatusNotFound)
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp.Body = io.NopCloser(bytes.NewReader([]byte("404 page not found\n")))
	return resp
}

func (h *Handler) internalError() *Response {
	resp := newResponse(http.StatusInternalServerError)
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp.Body = io.NopCloser(bytes.NewReader([]byte("500 internal server error\n")))
	return resp
}
