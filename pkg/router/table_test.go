package router

import (
	"errors"
	"strings"
	"testing"

	"github.com/strata-dev/strata/pkg/fragment"
)

var docFragment = &fragment.Fragment{ID: "root"}

// route builds a Route rooted at the shared document fragment with one
// leaf named after the pattern.
func route(pattern string, extra ...*fragment.Fragment) Route {
	chain := fragment.Chain{docFragment}
	chain = append(chain, extra...)
	chain = append(chain, &fragment.Fragment{ID: "leaf:" + pattern})
	return Route{Pattern: pattern, Chain: chain}
}

func mustTable(t *testing.T, routes ...Route) *Table {
	t.Helper()
	tbl, err := NewTable(routes)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tbl
}

func TestMatchLiteralBeatsParam(t *testing.T) {
	// Declared param-first; the specificity sort must still pick the
	// literal route for /users/new.
	tbl := mustTable(t,
		route("/users/:id"),
		route("/users/new"),
	)

	m, ok := tbl.Match("/users/new")
	if !ok {
		t.Fatal("expected match")
	}
	if m.Pattern != "/users/new" {
		t.Errorf("matched %q, want /users/new", m.Pattern)
	}
	if len(m.Params) != 0 {
		t.Errorf("params = %v, want none", m.Params)
	}

	m, ok = tbl.Match("/users/42")
	if !ok {
		t.Fatal("expected match")
	}
	if m.Pattern != "/users/:id" || m.Params["id"] != "42" {
		t.Errorf("matched %q params %v", m.Pattern, m.Params)
	}
}

func TestMatchFirstWinsInTableOrder(t *testing.T) {
	// Two equally specific overlapping patterns: the one inserted first
	// stays first through the stable sort.
	tbl := mustTable(t,
		route("/a/:x"),
		route("/a/:y"),
	)

	m, ok := tbl.Match("/a/1")
	if !ok {
		t.Fatal("expected match")
	}
	if m.Pattern != "/a/:x" {
		t.Errorf("matched %q, want the earlier /a/:x", m.Pattern)
	}
}

func TestMatchLongerRouteFirst(t *testing.T) {
	tbl := mustTable(t,
		route("/docs"),
		route("/docs/:page/edit"),
		route("/docs/:page"),
	)

	got := tbl.Routes()
	want := []string{"/docs/:page/edit", "/docs/:page", "/docs"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("table order = %v, want %v", got, want)
		}
	}
}

func TestMatchCatchAll(t *testing.T) {
	tbl := mustTable(t,
		route("/files/*"),
		route("/files/readme"),
	)

	m, ok := tbl.Match("/files/a/b/c.txt")
	if !ok {
		t.Fatal("expected match")
	}
	if m.Params[CatchAllParam] != "a/b/c.txt" {
		t.Errorf("splat = %q", m.Params[CatchAllParam])
	}

	// The literal route outranks the catch-all at the same position.
	m, _ = tbl.Match("/files/readme")
	if m.Pattern != "/files/readme" {
		t.Errorf("matched %q, want /files/readme", m.Pattern)
	}

	// Exhausted remainder binds the splat to "".
	m, ok = tbl.Match("/files")
	if !ok {
		t.Fatal("expected catch-all match for /files")
	}
	if got := m.Params[CatchAllParam]; got != "" {
		t.Errorf("splat = %q, want empty", got)
	}
}

func TestParamRequiresNonEmptySegment(t *testing.T) {
	tbl := mustTable(t, route("/users/:id"))

	if _, ok := tbl.Match("/users/"); ok {
		t.Error("matched an empty parameter segment")
	}
}

func TestOptionalSegmentAlternatives(t *testing.T) {
	tbl := mustTable(t, route("/docs/:lang?/intro"))

	m, ok := tbl.Match("/docs/en/intro")
	if !ok {
		t.Fatal("expected match with optional present")
	}
	if m.Params["lang"] != "en" {
		t.Errorf("lang = %q", m.Params["lang"])
	}

	m, ok = tbl.Match("/docs/intro")
	if !ok {
		t.Fatal("expected match with optional absent")
	}
	if _, bound := m.Params["lang"]; bound {
		t.Errorf("lang bound in absent alternative: %v", m.Params)
	}
}

func TestOptionalAlternativesSortLongestFirst(t *testing.T) {
	// Pins the open tie-breaking question: each alternative is its own
	// row, so the present form sorts ahead of the absent form.
	tbl := mustTable(t, route("/a/b?/c"))

	got := tbl.Routes()
	if got[0] != "/a/b/c" || got[1] != "/a/c" {
		t.Errorf("table order = %v", got)
	}
}

func TestMatchNone(t *testing.T) {
	tbl := mustTable(t, route("/users/:id"))

	for _, path := range []string{"/", "/users", "/users/1/extra", "/other"} {
		if _, ok := tbl.Match(path); ok {
			t.Errorf("unexpected match for %q", path)
		}
	}
}

func TestMatchRootPattern(t *testing.T) {
	tbl := mustTable(t, route("/"), route("/about"))

	m, ok := tbl.Match("/")
	if !ok {
		t.Fatal("expected match for /")
	}
	if m.Pattern != "/" {
		t.Errorf("matched %q", m.Pattern)
	}
}

func TestNewTableValidation(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		reason  string
	}{
		{"wildcard not final", "/a/*/b", "final segment"},
		{"empty param", "/a/:", "empty parameter"},
		{"duplicate param", "/a/:id/:id", "duplicate parameter"},
		{"embedded wildcard", "/a/x*", "whole segment"},
		{"no leading slash", "a/b", "begin with"},
		{"optional wildcard", "/a/*?", "cannot be optional"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable([]Route{route(tt.pattern)})
			if err == nil {
				t.Fatalf("NewTable(%q) succeeded, want error", tt.pattern)
			}
			if !strings.Contains(err.Error(), tt.reason) {
				t.Errorf("err = %v, want mention of %q", err, tt.reason)
			}
		})
	}
}

func TestNewTableRequiresSharedDocumentFragment(t *testing.T) {
	other := &fragment.Fragment{ID: "other-root"}
	_, err := NewTable([]Route{
		route("/a"),
		{Pattern: "/b", Chain: fragment.Chain{other}},
	})
	if err == nil || !strings.Contains(err.Error(), "document fragment") {
		t.Errorf("err = %v, want document fragment error", err)
	}
}

func TestNewTableEmpty(t *testing.T) {
	if _, err := NewTable(nil); !errors.Is(err, ErrEmptyTable) {
		t.Errorf("err = %v, want ErrEmptyTable", err)
	}
}

func TestParamDeclPropagation(t *testing.T) {
	t.Run("outer optional redeclaration allowed", func(t *testing.T) {
		layout := &fragment.Fragment{
			ID:     "layout",
			Params: []fragment.ParamDecl{{Name: "id", Optional: true}},
		}
		leaf := &fragment.Fragment{
			ID:     "leaf",
			Params: []fragment.ParamDecl{{Name: "id"}},
		}
		_, err := NewTable([]Route{{Pattern: "/users/:id", Chain: fragment.Chain{docFragment, layout, leaf}}})
		if err != nil {
			t.Errorf("NewTable: %v", err)
		}
	})

	t.Run("outer required redeclaration rejected", func(t *testing.T) {
		layout := &fragment.Fragment{
			ID:     "layout",
			Params: []fragment.ParamDecl{{Name: "id"}},
		}
		leaf := &fragment.Fragment{
			ID:     "leaf",
			Params: []fragment.ParamDecl{{Name: "id"}},
		}
		_, err := NewTable([]Route{{Pattern: "/users/:id", Chain: fragment.Chain{docFragment, layout, leaf}}})
		if err == nil || !strings.Contains(err.Error(), "must be optional") {
			t.Errorf("err = %v, want optionality conflict", err)
		}
	})

	t.Run("required param must be bound", func(t *testing.T) {
		leaf := &fragment.Fragment{
			ID:     "leaf",
			Params: []fragment.ParamDecl{{Name: "missing"}},
		}
		_, err := NewTable([]Route{{Pattern: "/users/:id", Chain: fragment.Chain{docFragment, leaf}}})
		if err == nil || !strings.Contains(err.Error(), "not bound") {
			t.Errorf("err = %v, want unbound param error", err)
		}
	})
}
