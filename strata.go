// Package strata composes nested, file-derived route trees into streamed
// HTML responses, with out-of-order suspense for slow subtrees.
//
// The top-level App ties the pieces together:
//
//	app, err := strata.New(routes.Table())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":3000", app)
//
// See pkg/router for the matcher, pkg/fragment for loaders and
// composition, pkg/suspense for the deferred-subtree protocol, and
// pkg/server for the streaming dispatcher.
package strata

import (
	"log/slog"
	"net/http"

	"github.com/strata-dev/strata/pkg/router"
	"github.com/strata-dev/strata/pkg/server"
)

// App is the top-level entry point: a route table bound to a streaming
// handler. It implements http.Handler.
type App struct {
	table   *router.Table
	handler *server.Handler
	logger  *slog.Logger
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the application logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// New builds the route table and the handler serving it. The routes must
// already be rooted at the shared document fragment; NewTable validates
// patterns and parameter declarations and sorts by specificity.
func New(routes []router.Route, opts ...Option) (*App, error) {
	table, err := router.NewTable(routes)
	if err != nil {
		return nil, err
	}

	app := &App{table: table, logger: slog.Default()}
	for _, opt := range opts {
		opt(app)
	}
	app.handler = server.New(table, server.WithLogger(app.logger))
	return app, nil
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// Handler returns the underlying dispatcher, for callers that want to
// mount it behind their own middleware stack.
func (a *App) Handler() *server.Handler { return a.handler }

// Routes returns the expanded route patterns in match order.
func (a *App) Routes() []string { return a.table.Routes() }
