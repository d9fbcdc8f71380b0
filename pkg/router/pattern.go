package router

import (
	"fmt"
	"strings"
)

// CatchAllParam is the reserved parameter name under which a trailing
// wildcard stores the remainder of the path.
const CatchAllParam = "*"

// segKind orders segment kinds by specificity: literals outrank params,
// params outrank the catch-all.
type segKind int

const (
	segCatchAll segKind = iota
	segParam
	segLiteral
)

// segment is one compiled pattern segment.
type segment struct {
	kind    segKind
	literal string // literal text, for segLiteral
	param   string // parameter name, for segParam
}

// PatternError reports an invalid route pattern at table build time.
type PatternError struct {
	Pattern string
	Reason  string
}

// Error returns the formatted pattern error.
func (e *PatternError) Error() string {
	return fmt.Sprintf("router: invalid pattern %q: %s", e.Pattern, e.Reason)
}

// parsePattern compiles a pattern string into segments. Optional markers
// have already been stripped by expandOptional.
func parsePattern(pattern string) ([]segment, error) {
	if pattern == "" || !strings.HasPrefix(pattern, "/") {
		return nil, &PatternError{Pattern: pattern, Reason: "must begin with '/'"}
	}

	raw := splitPath(pattern)
	segs := make([]segment, 0, len(raw))
	names := make(map[string]bool)

	for i, s := range raw {
		switch {
		case s == "*":
			if i != len(raw)-1 {
				return nil, &PatternError{Pattern: pattern, Reason: "wildcard only allowed as the final segment"}
			}
			segs = append(segs, segment{kind: segCatchAll})
		case strings.HasPrefix(s, ":"):
			name := s[1:]
			if name == "" {
				return nil, &PatternError{Pattern: pattern, Reason: "empty parameter name"}
			}
			if names[name] {
				return nil, &PatternError{Pattern: pattern, Reason: "duplicate parameter name " + name}
			}
			names[name] = true
			segs = append(segs, segment{kind: segParam, param: name})
		case strings.Contains(s, "*"):
			return nil, &PatternError{Pattern: pattern, Reason: "wildcard must be a whole segment"}
		case s == "":
			return nil, &PatternError{Pattern: pattern, Reason: "empty segment"}
		default:
			segs = append(segs, segment{kind: segLiteral, literal: s})
		}
	}
	return segs, nil
}

// expandOptional expands `seg?` markers into all present/absent
// alternatives, longest first. A pattern with no optional segments expands
// to itself.
func expandOptional(pattern string) ([]string, error) {
	raw := splitPath(pattern)

	var optional []int
	for i, s := range raw {
		if strings.HasSuffix(s, "?") {
			if s == "?" || s == ":?" {
				return nil, &PatternError{Pattern: pattern, Reason: "empty optional segment"}
			}
			if s == "*?" {
				return nil, &PatternError{Pattern: pattern, Reason: "wildcard cannot be optional"}
			}
			optional = append(optional, i)
		}
	}
	if len(optional) == 0 {
		return []string{pattern}, nil
	}
	if len(optional) > 8 {
		return nil, &PatternError{Pattern: pattern, Reason: "too many optional segments"}
	}

	// Enumerate every present/absent combination. Sorting in NewTable puts
	// the longer alternatives first; generation order does not matter.
	var out []string
	for mask := 0; mask < 1<<len(optional); mask++ {
		var parts []string
		opt := 0
		for i, s := range raw {
			if opt < len(optional) && optional[opt] == i {
				bit := opt
				opt++
				if mask&(1<<bit) != 0 {
					continue // absent in this alternative
				}
				s = strings.TrimSuffix(s, "?")
			}
			parts = append(parts, s)
		}
		alt := "/" + strings.Join(parts, "/")
		out = append(out, alt)
	}
	return out, nil
}

// splitPath splits a path into segments, trimming the surrounding slashes.
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// moreSpecific reports whether route a should be tried before route b.
// Used as the stable sort comparator at table construction.
func moreSpecific(a, b []segment) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	for i := range a {
		if a[i].kind != b[i].kind {
			return a[i].kind > b[i].kind
		}
	}
	return false
}
