// Package render defines the Renderable abstraction used throughout Strata:
// a value that can produce a possibly unbounded stream of markup text.
//
// A Renderable is consumed exactly once, in a single forward pass, by
// writing itself into an io.Writer. Backpressure falls out of the writer
// contract: a slow consumer blocks the producer on Write.
//
// The package provides the canonical wrappers that turn plain values into
// Renderables:
//
//	render.Raw("<p>hi</p>")          // pre-escaped markup
//	render.Text(user.Name)           // escaped on render
//	render.Group(head, body)         // concatenation
//	render.Func(func(ctx context.Context) (render.Renderable, error) {
//	    return render.Raw(slowMarkup(ctx)), nil
//	})
//
// Whole-string materialization is available via ToString:
//
//	html, err := render.ToString(ctx, r)
package render
