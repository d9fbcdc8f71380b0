// Package server owns the request lifecycle: it matches the path against
// the route table, dispatches to the leaf fragment's loader or action, and
// streams composed HTML documents chunk by chunk.
//
// The entry point is Handler, an http.Handler. Internally every request
// flows through Dispatch, which returns a Response whose Body may still be
// streaming: for document requests the body pump runs as a detached
// goroutine, so headers are committed before the first body byte and the
// caller never blocks on full rendering.
//
// # Response selection
//
//	GET, leaf has a component    → streamed text/html (200)
//	GET, leaf has only a loader  → JSON of the loader result
//	non-GET, leaf has an action  → JSON of the action result
//	non-GET, no action           → 404
//	no pattern matches           → 404
//	loader/action returns a
//	*fragment.ControlResponse    → that response, verbatim
//	any other failure            → 500, logged, no internal detail leaked
//
// A request carrying the X-Strata-Fragment header is a partial render: the
// outermost document fragment is dropped from the chain before resolution
// and the doctype preamble is omitted, so the body starts with the
// outermost resolved fragment's markup.
package server
