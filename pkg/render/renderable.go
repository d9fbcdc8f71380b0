package render

import (
	"context"
	"fmt"
	"io"

	"github.com/valyala/bytebufferpool"
)

// Renderable is a value that produces markup text lazily.
//
// Render writes the value's markup to w. It is called at most once per
// value; Renderables are not restartable. Implementations must honor
// context cancellation on any blocking work.
type Renderable interface {
	Render(ctx context.Context, w io.Writer) error
}

// Raw is pre-escaped markup rendered verbatim.
type Raw string

// Render writes the markup without escaping.
func (r Raw) Render(_ context.Context, w io.Writer) error {
	_, err := io.WriteString(w, string(r))
	return err
}

// Text is plain text, HTML-escaped when rendered.
type Text string

// Render writes the text with HTML escaping applied.
func (t Text) Render(_ context.Context, w io.Writer) error {
	_, err := io.WriteString(w, Escape(string(t)))
	return err
}

// Group concatenates Renderables in order.
type Group []Renderable

// Render writes each member in sequence, skipping nil entries.
func (g Group) Render(ctx context.Context, w io.Writer) error {
	for _, r := range g {
		if r == nil {
			continue
		}
		if err := r.Render(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

// Func defers production of a Renderable until render time. The returned
// Renderable is rendered in place; an error aborts the stream.
type Func func(ctx context.Context) (Renderable, error)

// Render invokes the function and renders its result.
func (f Func) Render(ctx context.Context, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r, err := f(ctx)
	if err != nil {
		return err
	}
	if r == nil {
		return nil
	}
	return r.Render(ctx, w)
}

// writerFunc adapts a write function to Renderable. Used internally for
// values that stream directly.
type writerFunc func(ctx context.Context, w io.Writer) error

func (f writerFunc) Render(ctx context.Context, w io.Writer) error {
	return f(ctx, w)
}

// FromWriterTo wraps a streaming write function as a Renderable.
func FromWriterTo(fn func(ctx context.Context, w io.Writer) error) Renderable {
	return writerFunc(fn)
}

// Wrap converts v into the canonical Renderable form.
//
// Accepted shapes: nil (renders nothing), string (treated as pre-escaped
// markup from the templating layer), Renderable, and deferred forms of
// either — func(context.Context) (Renderable, error) or
// func(context.Context) (string, error).
// Any other type is an error surfaced at render time.
func Wrap(v any) Renderable {
	switch val := v.(type) {
	case nil:
		return Group(nil)
	case string:
		return Raw(val)
	case Renderable:
		return val
	case func(context.Context) (Renderable, error):
		return Func(val)
	case func(context.Context) (string, error):
		return Func(func(ctx context.Context) (Renderable, error) {
			s, err := val(ctx)
			if err != nil {
				return nil, err
			}
			return Raw(s), nil
		})
	default:
		return Func(func(context.Context) (Renderable, error) {
			return nil, fmt.Errorf("render: cannot wrap %T as Renderable", v)
		})
	}
}

// ToString materializes a Renderable into one string.
//
// The intermediate buffer is pooled; the returned string is an independent
// copy.
func ToString(ctx context.Context, r Renderable) (string, error) {
	if r == nil {
		return "", nil
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := r.Render(ctx, buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
