package suspense

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/savsgio/gotils/bytes"

	"github.com/strata-dev/strata/pkg/render"
)

// DefaultErrorFallback is the markup patched in for a subtree whose
// computation failed and that declared no error fallback of its own.
const DefaultErrorFallback = `<span data-strata-error hidden></span>`

// entry is a resolved subtree handed from a computation goroutine to Drain.
type entry struct {
	key    string
	markup string
}

// Set is the pending-subtree registry for a single response.
//
// Declared subtrees move through declared → pending → resolved. The zero
// value is not usable; create one per response with NewSet.
type Set struct {
	results chan entry
	prefix  string
	logger  *slog.Logger

	// ErrorFallback is the markup used when a deferred computation fails.
	ErrorFallback string

	seq      atomic.Uint64
	pending  atomic.Int64
	resolved atomic.Uint64
	failed   atomic.Uint64
}

// NewSet creates an empty pending set scoped to one response.
// The logger may be nil, in which case slog.Default() is used.
func NewSet(logger *slog.Logger) *Set {
	if logger == nil {
		logger = slog.Default()
	}
	return &Set{
		results:       make(chan entry),
		prefix:        hex.EncodeToString(bytes.Rand(make([]byte, 4))),
		logger:        logger,
		ErrorFallback: DefaultErrorFallback,
	}
}

// Defer declares a deferred subtree.
//
// The returned Renderable emits the fallback wrapped in an identifiable
// element, synchronously, in the normal render position. The content
// computation starts immediately, not at drain time, and its completion is
// collected by Drain in whatever order computations finish.
func (s *Set) Defer(ctx context.Context, content, fallback render.Renderable) render.Renderable {
	key := s.nextKey()
	s.pending.Add(1)

	go s.compute(ctx, key, content)

	return render.FromWriterTo(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<div id="B:%s">`, key); err != nil {
			return err
		}
		if fallback != nil {
			if err := fallback.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// Pending reports the number of subtrees not yet drained.
func (s *Set) Pending() int { return int(s.pending.Load()) }

// Resolved reports how many subtrees have been drained so far,
// including ones that failed and were patched with the error fallback.
func (s *Set) Resolved() uint64 { return s.resolved.Load() }

// Failed reports how many drained subtrees failed to compute.
func (s *Set) Failed() uint64 { return s.failed.Load() }

// Drain emits one patch per pending subtree, in completion order, until the
// set is empty. It must be called by the single goroutine that owns the
// response body, after the main document has been written.
//
// A failed computation has already been converted into an error-fallback
// entry by the time it reaches Drain; one failed subtree never aborts the
// loop. Drain returns early with the context error if the transport is
// gone, leaving remaining computations to observe the same cancellation.
func (s *Set) Drain(ctx context.Context, w io.Writer) error {
	wroteScript := false

	for s.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-s.results:
			s.pending.Add(-1)
			s.resolved.Add(1)

			if !wroteScript {
				if _, err := io.WriteString(w, patchScript); err != nil {
					return err
				}
				wroteScript = true
			}
			if err := writePatch(w, e.key, e.markup); err != nil {
				return err
			}
		}
	}
	return nil
}

// compute materializes the subtree content and reports it to the drain
// side. Failures are contained here: the entry delivered downstream carries
// the error fallback instead.
func (s *Set) compute(ctx context.Context, key string, content render.Renderable) {
	markup, err := render.ToString(ctx, content)
	if err != nil {
		s.failed.Add(1)
		s.logger.Error("suspense: deferred subtree failed",
			"boundary", key,
			"error", err,
		)
		markup = s.ErrorFallback
	}

	select {
	case s.results <- entry{key: key, markup: markup}:
	case <-ctx.Done():
		// Response abandoned; nobody will drain this entry.
	}
}

// nextKey mints a boundary key unique within the process: a per-set random
// prefix plus a per-set sequence number.
func (s *Set) nextKey() string {
	return fmt.Sprintf("%s-%d", s.prefix, s.seq.Add(1))
}

// writePatch emits the template/marker pair for one resolved subtree.
func writePatch(w io.Writer, key, markup string) error {
	if _, err := fmt.Fprintf(w, `<template id="S:%s">%s</template>`, key, markup); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, `<strata-patch to="B:%s" from="S:%s"></strata-patch>`, key, key)
	return err
}
