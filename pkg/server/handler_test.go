package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/strata-dev/strata/pkg/fragment"
	"github.com/strata-dev/strata/pkg/render"
	"github.com/strata-dev/strata/pkg/router"
)

// docFragment wraps everything in an <html> shell.
func docFragment() *fragment.Fragment {
	return &fragment.Fragment{
		ID: "root",
		Loader: func(ctx context.Context, rc *fragment.RequestContext) (any, error) {
			return "doc-data", nil
		},
		Component: func(rc *fragment.RequestContext, data any, children render.Renderable) render.Renderable {
			return render.Group{render.Raw("<html><body>"), children, render.Raw("</body></html>")}
		},
	}
}

func usersLayout() *fragment.Fragment {
	return &fragment.Fragment{
		ID: "users-layout",
		Loader: func(ctx context.Context, rc *fragment.RequestContext) (any, error) {
			return "layout-data", nil
		},
		Component: func(rc *fragment.RequestContext, data any, children render.Renderable) render.Renderable {
			return render.Group{render.Raw(`<nav>users</nav><main>`), children, render.Raw("</main>")}
		},
	}
}

func userLeaf() *fragment.Fragment {
	return &fragment.Fragment{
		ID: "user-leaf",
		Loader: func(ctx context.Context, rc *fragment.RequestContext) (any, error) {
			return "user:" + rc.Param("id"), nil
		},
		Component: func(rc *fragment.RequestContext, data any, children render.Renderable) render.Renderable {
			return render.Raw(fmt.Sprintf("<article>%s</article>", data))
		},
	}
}

func newTestHandler(t *testing.T, routes ...router.Route) *Handler {
	t.Helper()
	tbl, err := router.NewTable(routes)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return New(tbl)
}

func get(t *testing.T, h *Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDocumentRequestStreamsComposedHTML(t *testing.T) {
	doc := docFragment()
	h := newTestHandler(t, router.Route{
		Pattern: "/users/:id",
		Chain:   fragment.Chain{doc, usersLayout(), userLeaf()},
	})

	rec := get(t, h, "/users/42")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, "<!doctype html>") {
		t.Errorf("body does not start with preamble: %q", body[:minInt(len(body), 40)])
	}
	want := "<html><body><nav>users</nav><main><article>user:42</article></main></body></html>"
	if !strings.Contains(body, want) {
		t.Errorf("body = %q, want it to contain %q", body, want)
	}
}

func TestFragmentHeaderSkipsDocumentFragment(t *testing.T) {
	h := newTestHandler(t, router.Route{
		Pattern: "/users/:id",
		Chain:   fragment.Chain{docFragment(), usersLayout(), userLeaf()},
	})

	rec := get(t, h, "/users/42", FragmentHeader, "1")

	body := rec.Body.String()
	if strings.Contains(body, "<html>") {
		t.Errorf("partial render contains the document wrapper: %q", body)
	}
	if strings.Contains(body, "<!doctype") {
		t.Errorf("partial render carried the document preamble: %q", body)
	}
	// The very first bytes are the layout markup, so client-side swap
	// targets receive a clean fragment.
	if !strings.HasPrefix(body, "<nav>users</nav>") {
		t.Errorf("partial body begins with %q, want the layout markup first", body[:minInt(len(body), 40)])
	}
}

func TestLoaderControlResponseReturnedVerbatim(t *testing.T) {
	doc := docFragment()
	leaf := &fragment.Fragment{
		ID: "guarded",
		Loader: func(ctx context.Context, rc *fragment.RequestContext) (any, error) {
			return nil, fragment.Redirect("/login", http.StatusSeeOther)
		},
		Component: func(rc *fragment.RequestContext, data any, children render.Renderable) render.Renderable {
			t.Error("component ran after control response")
			return nil
		},
	}
	h := newTestHandler(t, router.Route{Pattern: "/account", Chain: fragment.Chain{doc, leaf}})

	rec := get(t, h, "/account")

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
	if strings.Contains(rec.Body.String(), "<!doctype") {
		t.Error("document streaming was attempted for a control response")
	}
}

func TestLoaderFaultBecomesGeneric500(t *testing.T) {
	doc := docFragment()
	leaf := &fragment.Fragment{
		ID: "broken",
		Loader: func(ctx context.Context, rc *fragment.RequestContext) (any, error) {
			return nil, errors.New("pg: connection refused to 10.0.0.8")
		},
		Component: func(rc *fragment.RequestContext, data any, children render.Renderable) render.Renderable {
			return render.Raw("never")
		},
	}
	h := newTestHandler(t, router.Route{Pattern: "/broken", Chain: fragment.Chain{doc, leaf}})

	rec := get(t, h, "/broken")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.8") {
		t.Error("internal error detail leaked to the client")
	}
}

func TestNoMatchIs404(t *testing.T) {
	h := newTestHandler(t, router.Route{Pattern: "/users/:id", Chain: fragment.Chain{docFragment(), userLeaf()}})

	rec := get(t, h, "/nothing/here")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestLoaderOnlyLeafReturnsJSON(t *testing.T) {
	doc := docFragment()
	api := &fragment.Fragment{
		ID: "api",
		Loader: func(ctx context.Context, rc *fragment.RequestContext) (any, error) {
			return map[string]any{"id": rc.Param("id"), "name": "ada"}, nil
		},
	}
	h := newTestHandler(t, router.Route{Pattern: "/api/users/:id", Chain: fragment.Chain{doc, api}})

	rec := get(t, h, "/api/users/7")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if got["id"] != "7" || got["name"] != "ada" {
		t.Errorf("body = %v", got)
	}
}

func TestActionDispatch(t *testing.T) {
	doc := docFragment()
	form := &fragment.Fragment{
		ID: "form",
		Action: func(ctx context.Context, rc *fragment.RequestContext) (any, error) {
			return map[string]bool{"saved": true}, nil
		},
	}
	h := newTestHandler(t,
		router.Route{Pattern: "/save", Chain: fragment.Chain{doc, form}},
		router.Route{Pattern: "/static", Chain: fragment.Chain{doc, &fragment.Fragment{ID: "actionless"}}},
	)

	t.Run("leaf action invoked", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/save", strings.NewReader("x=1"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"saved":true`) {
			t.Errorf("body = %q", rec.Body.String())
		}
	})

	t.Run("non-GET without action is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/static", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHeadersMergedOntoResponse(t *testing.T) {
	doc := docFragment()
	doc.Headers = func(rc *fragment.RequestContext, data any) http.Header {
		h := make(http.Header)
		h.Add("Set-Cookie", "outer=1")
		return h
	}
	leaf := userLeaf()
	leaf.Headers = func(rc *fragment.RequestContext, data any) http.Header {
		h := make(http.Header)
		h.Add("Set-Cookie", "inner=2")
		return h
	}
	h := newTestHandler(t, router.Route{Pattern: "/users/:id", Chain: fragment.Chain{doc, leaf}})

	rec := get(t, h, "/users/1")

	got := rec.Header().Values("Set-Cookie")
	if len(got) != 2 || got[0] != "outer=1" || got[1] != "inner=2" {
		t.Errorf("Set-Cookie = %v", got)
	}
}

func TestSuspenseFallbackThenPatch(t *testing.T) {
	doc := docFragment()
	leaf := &fragment.Fragment{
		ID: "slow",
		Component: func(rc *fragment.RequestContext, data any, children render.Renderable) render.Renderable {
			slow := render.Func(func(ctx context.Context) (render.Renderable, error) {
				time.Sleep(10 * time.Millisecond)
				return render.Raw("<p>heavy content</p>"), nil
			})
			deferred := rc.Suspense.Defer(ctx(rc), slow, render.Raw("<p>loading…</p>"))
			return render.Group{render.Raw("<section>"), deferred, render.Raw("</section>")}
		},
	}
	h := newTestHandler(t, router.Route{Pattern: "/slow", Chain: fragment.Chain{doc, leaf}})

	rec := get(t, h, "/slow")
	body := rec.Body.String()

	fallbackAt := strings.Index(body, "loading…")
	patchAt := strings.Index(body, "heavy content")
	if fallbackAt < 0 || patchAt < 0 {
		t.Fatalf("missing fallback or patch in %q", body)
	}
	if fallbackAt > patchAt {
		t.Error("fallback must precede its resolution patch")
	}
	if !strings.Contains(body, "<strata-patch") || !strings.Contains(body, "customElements.define") {
		t.Error("suspense wire protocol missing from body")
	}
	// The patch comes after the document's trailing bytes.
	if strings.Index(body, "</html>") > patchAt {
		t.Error("patch emitted before the document body finished")
	}
}

// ctx extracts the request context from a RequestContext for Defer calls.
func ctx(rc *fragment.RequestContext) context.Context {
	return rc.Request.Context()
}

func TestDispatchReturnsBeforeBodyCompletes(t *testing.T) {
	doc := docFragment()
	release := make(chan struct{})
	leaf := &fragment.Fragment{
		ID: "blocking",
		Component: func(rc *fragment.RequestContext, data any, children render.Renderable) render.Renderable {
			return render.Func(func(ctx context.Context) (render.Renderable, error) {
				<-release
				return render.Raw("done"), nil
			})
		},
	}
	h := newTestHandler(t, router.Route{Pattern: "/block", Chain: fragment.Chain{doc, leaf}})

	req := httptest.NewRequest(http.MethodGet, "/block", nil)
	resp := h.Dispatch(req)

	// Headers are committed even though the body is still streaming.
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	close(release)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	resp.Body.Close()
	if !strings.Contains(string(body), "done") {
		t.Errorf("body = %q", body)
	}
}

func TestAbortedReaderStopsPump(t *testing.T) {
	doc := docFragment()
	wroteFirst := make(chan struct{})
	secondWrite := make(chan error, 1)
	leaf := &fragment.Fragment{
		ID: "streamer",
		Component: func(rc *fragment.RequestContext, data any, children render.Renderable) render.Renderable {
			return render.FromWriterTo(func(ctx context.Context, w io.Writer) error {
				if _, err := io.WriteString(w, strings.Repeat("a", 64)); err != nil {
					return err
				}
				close(wroteFirst)
				_, err := io.WriteString(w, strings.Repeat("b", 64))
				secondWrite <- err
				return err
			})
		},
	}
	h := newTestHandler(t, router.Route{Pattern: "/stream", Chain: fragment.Chain{doc, leaf}})

	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	resp := h.Dispatch(req)

	// Consume exactly the preamble, the document opening, and the first
	// component chunk so its Write completes.
	buf := make([]byte, len(preamble)+len("<html><body>")+64)
	if _, err := io.ReadFull(resp.Body, buf); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	<-wroteFirst
	resp.closeWithError(errors.New("client went away"))

	select {
	case err := <-secondWrite:
		if err == nil {
			t.Error("write succeeded after the transport was aborted")
		}
	case <-time.After(time.Second):
		t.Fatal("pump did not observe the aborted transport")
	}
}

func TestHeadRequestOmitsBody(t *testing.T) {
	h := newTestHandler(t, router.Route{Pattern: "/users/:id", Chain: fragment.Chain{docFragment(), userLeaf()}})

	req := httptest.NewRequest(http.MethodHead, "/users/1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("HEAD response carried %d body bytes", rec.Body.Len())
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
