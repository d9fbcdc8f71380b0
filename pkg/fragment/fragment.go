package fragment

import (
	"context"
	"net/http"

	"github.com/strata-dev/strata/pkg/render"
)

// LoaderFunc loads data for a fragment on GET requests.
type LoaderFunc func(ctx context.Context, rc *RequestContext) (any, error)

// ActionFunc handles a non-GET request addressed to a leaf fragment.
type ActionFunc func(ctx context.Context, rc *RequestContext) (any, error)

// ComponentFunc renders a fragment. data is the fragment's own loader
// result (nil when the fragment has no loader); children is the Renderable
// built from the inner fragments, nil for the leaf.
type ComponentFunc func(rc *RequestContext, data any, children render.Renderable) render.Renderable

// HeadersFunc computes response headers from the fragment's own loader
// result. Returned values are appended to the response header collection in
// chain order; they never replace values set by an outer fragment.
type HeadersFunc func(rc *RequestContext, data any) http.Header

// ParamDecl declares a path parameter a fragment references.
type ParamDecl struct {
	Name     string
	Optional bool
}

// Fragment is a reusable unit addressable by ID. All handler fields are
// optional; a fragment with no Component passes its children through
// unchanged during composition.
type Fragment struct {
	ID        string
	Loader    LoaderFunc
	Action    ActionFunc
	Component ComponentFunc
	Headers   HeadersFunc

	// Params are the path parameters this fragment references. Inner
	// fragments' declarations propagate to enclosing layouts as optional;
	// the route table rejects conflicting declarations at build time.
	Params []ParamDecl
}

// Chain is an ordered fragment sequence, outermost layout first,
// terminating in one leaf fragment. Chains are built once per route and
// immutable thereafter.
type Chain []*Fragment

// Leaf returns the innermost fragment, or nil for an empty chain.
func (c Chain) Leaf() *Fragment {
	if len(c) == 0 {
		return nil
	}
	return c[len(c)-1]
}

// WithoutRoot returns the chain minus its outermost fragment, used for
// fragment-only (partial render) requests. A chain of one fragment is
// returned unchanged so a request always has a leaf to resolve.
func (c Chain) WithoutRoot() Chain {
	if len(c) <= 1 {
		return c
	}
	return c[1:]
}
