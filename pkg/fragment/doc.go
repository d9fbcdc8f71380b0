// Package fragment defines the data-loading units composed by Strata and
// the resolver that turns a matched fragment chain into one Renderable.
//
// A Fragment provides any subset of {Loader, Action, Component, Headers}.
// Fragments are shared and read-only: a layout fragment is referenced by
// every route beneath it, so a Fragment must never be mutated after route
// table construction.
//
// Resolve runs every loader in the chain concurrently, then folds the
// components from the leaf outward, innermost result becoming the enclosing
// component's children. Loaders never observe each other's results and may
// complete in any order; their results stay index-aligned with the chain.
//
// A loader or action can short-circuit the whole request by returning a
// *ControlResponse as its error (a redirect, an explicit 4xx/5xx). Control
// responses are propagated verbatim by the server, never logged as faults.
package fragment
