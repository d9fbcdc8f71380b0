// Package router implements Strata's pattern matcher: an ordered table of
// (path pattern, fragment chain) pairs built once at startup from generated
// route tables.
//
// Matching is strictly order-sensitive: patterns are tried in table order
// and the first match wins. There is no best-match search at request time;
// instead NewTable sorts the patterns by specificity before insertion:
//
//   - routes with more path segments come before routes with fewer
//   - among equal-length routes, literal segments outrank parameter
//     segments at the same position
//   - a trailing catch-all loses to any route whose corresponding segment
//     is literal or a named parameter
//
// # Pattern syntax
//
//	/users            literal segments
//	/users/:id        :name captures one non-empty segment
//	/docs/:lang?/page trailing ? marks a segment optional
//	/files/*          a final * captures the remaining path, slashes
//	                  included, under the reserved "*" parameter
//
// Optional segments are expanded into pattern alternatives at build time
// (present and absent), each alternative inserted as its own table row.
package router
