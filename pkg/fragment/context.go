package fragment

import (
	"log/slog"
	"net/http"

	"github.com/strata-dev/strata/pkg/suspense"
)

// RequestContext carries per-request state to every loader, action,
// component and headers call. It is created once per request and read-only
// after construction.
type RequestContext struct {
	// Request is the incoming HTTP request.
	Request *http.Request

	// Params holds the path parameters extracted by the matcher.
	Params map[string]string

	// Suspense is the pending-subtree set owned by this response.
	// Components call Suspense.Defer to split off a deferred subtree.
	Suspense *suspense.Set

	logger *slog.Logger
}

// NewRequestContext builds the context handed to fragment callbacks.
// params and logger may be nil.
func NewRequestContext(r *http.Request, params map[string]string, set *suspense.Set, logger *slog.Logger) *RequestContext {
	if params == nil {
		params = make(map[string]string)
	}
	return &RequestContext{
		Request:  r,
		Params:   params,
		Suspense: set,
		logger:   logger,
	}
}

// Param returns the named path parameter, or "" when unbound.
func (rc *RequestContext) Param(name string) string { return rc.Params[name] }

// Logger returns the request-scoped logger.
func (rc *RequestContext) Logger() *slog.Logger {
	if rc.logger != nil {
		return rc.logger
	}
	return slog.Default()
}
