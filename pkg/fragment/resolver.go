package fragment

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/strata-dev/strata/pkg/render"
)

// ErrNoLoader is returned by ResolveData when the leaf fragment declares no
// loader.
var ErrNoLoader = errors.New("fragment: leaf has no loader")

// ErrNoAction is returned by RunAction when the leaf fragment declares no
// action.
var ErrNoAction = errors.New("fragment: leaf has no action")

// Resolve runs every loader in the chain concurrently, folds the components
// from the leaf outward into one Renderable, and merges response headers in
// chain order.
//
// The first loader failure cancels the remaining loaders and propagates;
// a *ControlResponse error is passed through untouched so the caller can
// return it verbatim.
func Resolve(ctx context.Context, chain Chain, rc *RequestContext) (render.Renderable, http.Header, error) {
	results, err := runLoaders(ctx, chain, rc)
	if err != nil {
		return nil, nil, err
	}

	// Fold right-to-left: the leaf renders with no children, each layout
	// wraps the Renderable built so far. Fragments without a component pass
	// children through unchanged.
	var children render.Renderable
	for i := len(chain) - 1; i >= 0; i-- {
		f := chain[i]
		if f.Component == nil {
			continue
		}
		children = f.Component(rc, results[i], children)
	}

	headers := mergeHeaders(chain, rc, results)
	return children, headers, nil
}

// ResolveData is the data-only variant used for non-document requests: it
// runs just the leaf fragment's loader, with no composition.
func ResolveData(ctx context.Context, chain Chain, rc *RequestContext) (any, error) {
	leaf := chain.Leaf()
	if leaf == nil || leaf.Loader == nil {
		return nil, ErrNoLoader
	}
	return leaf.Loader(ctx, rc)
}

// RunAction invokes the leaf fragment's action for a non-GET request.
func RunAction(ctx context.Context, chain Chain, rc *RequestContext) (any, error) {
	leaf := chain.Leaf()
	if leaf == nil || leaf.Action == nil {
		return nil, ErrNoAction
	}
	return leaf.Action(ctx, rc)
}

// runLoaders fans out one goroutine per loader and joins on an all-complete
// barrier. Results stay index-aligned with the chain; slots for fragments
// without a loader hold nil. The first failure cancels the shared context
// so the remaining loaders can cut losses.
func runLoaders(ctx context.Context, chain Chain, rc *RequestContext) ([]any, error) {
	results := make([]any, len(chain))

	lctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for i, f := range chain {
		if f.Loader == nil {
			continue
		}
		wg.Add(1)
		go func(i int, f *Fragment) {
			defer wg.Done()
			v, err := f.Loader(lctx, rc)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				mu.Unlock()
				return
			}
			results[i] = v
		}(i, f)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// mergeHeaders appends each fragment's headers in chain order. Later
// fragments add values for a name but never replace earlier ones.
func mergeHeaders(chain Chain, rc *RequestContext, results []any) http.Header {
	merged := make(http.Header)
	for i, f := range chain {
		if f.Headers == nil {
			continue
		}
		for name, values := range f.Headers(rc, results[i]) {
			for _, v := range values {
				merged.Add(name, v)
			}
		}
	}
	return merged
}
