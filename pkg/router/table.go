package router

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/strata-dev/strata/pkg/fragment"
)

// Params holds the path parameters extracted by a match.
type Params map[string]string

// Route pairs a path pattern with the fragment chain that serves it,
// outermost layout first. Route tables are produced by the offline
// generator, pre-rooted at the shared document fragment.
type Route struct {
	Pattern string
	Chain   fragment.Chain
}

// Match is the result of a successful table lookup.
type Match struct {
	// Pattern is the route pattern that matched, after optional-segment
	// expansion (useful as a low-cardinality metrics label).
	Pattern string

	Chain  fragment.Chain
	Params Params
}

// compiled is one table row: a single pattern alternative.
type compiled struct {
	pattern string
	segs    []segment
	chain   fragment.Chain
}

// Table is an immutable, specificity-ordered route table.
type Table struct {
	rows []compiled
}

// ErrEmptyTable is returned when NewTable is called without routes.
var ErrEmptyTable = errors.New("router: no routes")

// NewTable validates, expands, and sorts the given routes into a matchable
// table. Routes sharing a pattern prefix keep their relative order through
// the stable specificity sort.
func NewTable(routes []Route) (*Table, error) {
	if len(routes) == 0 {
		return nil, ErrEmptyTable
	}

	var root *fragment.Fragment
	rows := make([]compiled, 0, len(routes))

	for _, rt := range routes {
		if len(rt.Chain) == 0 {
			return nil, fmt.Errorf("router: route %q has an empty fragment chain", rt.Pattern)
		}
		if root == nil {
			root = rt.Chain[0]
		} else if rt.Chain[0] != root {
			return nil, fmt.Errorf("router: route %q does not begin with the document fragment %q", rt.Pattern, root.ID)
		}

		alts, err := expandOptional(rt.Pattern)
		if err != nil {
			return nil, err
		}
		for _, alt := range alts {
			segs, err := parsePattern(alt)
			if err != nil {
				return nil, err
			}
			if err := validateParamDecls(alt, segs, rt.Chain); err != nil {
				return nil, err
			}
			rows = append(rows, compiled{pattern: alt, segs: segs, chain: rt.Chain})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return moreSpecific(rows[i].segs, rows[j].segs)
	})

	return &Table{rows: rows}, nil
}

// Match tries the table rows in order and returns the first match.
func (t *Table) Match(path string) (*Match, bool) {
	segs := splitPath(path)

	for i := range t.rows {
		row := &t.rows[i]
		params, ok := matchRow(row.segs, segs)
		if !ok {
			continue
		}
		return &Match{Pattern: row.pattern, Chain: row.chain, Params: params}, true
	}
	return nil, false
}

// Routes returns the expanded patterns in match order, for inspection.
func (t *Table) Routes() []string {
	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = row.pattern
	}
	return out
}

// matchRow matches one compiled row against the request path segments.
func matchRow(pattern []segment, path []string) (Params, bool) {
	params := make(Params)

	for i, seg := range pattern {
		switch seg.kind {
		case segCatchAll:
			// Consumes the remainder, slashes included. An exhausted path
			// leaves the splat bound to the empty string.
			params[CatchAllParam] = strings.Join(path[i:], "/")
			return params, true
		case segParam:
			if i >= len(path) || path[i] == "" {
				return nil, false
			}
			params[seg.param] = path[i]
		case segLiteral:
			if i >= len(path) || path[i] != seg.literal {
				return nil, false
			}
		}
	}

	if len(path) != len(pattern) {
		return nil, false
	}
	return params, true
}

// validateParamDecls enforces the chain's parameter declaration rules for
// one pattern alternative: an inner fragment's declaration propagates
// outward as optional, so an enclosing fragment re-declaring the same name
// must mark it optional; and every required declaration must actually be
// bound by the pattern.
func validateParamDecls(pattern string, segs []segment, chain fragment.Chain) error {
	bound := make(map[string]bool)
	for _, s := range segs {
		switch s.kind {
		case segParam:
			bound[s.param] = true
		case segCatchAll:
			bound[CatchAllParam] = true
		}
	}

	declaredDeeper := make(map[string]string) // name -> fragment ID
	for i := len(chain) - 1; i >= 0; i-- {
		f := chain[i]
		for _, decl := range f.Params {
			if inner, ok := declaredDeeper[decl.Name]; ok && !decl.Optional {
				return fmt.Errorf("router: route %q: fragment %q declares %q required but %q already binds it; enclosing declarations must be optional",
					pattern, f.ID, decl.Name, inner)
			}
			if !decl.Optional && !bound[decl.Name] {
				return fmt.Errorf("router: route %q: fragment %q requires parameter %q not bound by the pattern",
					pattern, f.ID, decl.Name)
			}
			if _, ok := declaredDeeper[decl.Name]; !ok {
				declaredDeeper[decl.Name] = f.ID
			}
		}
	}
	return nil
}
