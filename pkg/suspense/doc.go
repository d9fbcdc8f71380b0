// Package suspense coordinates deferred subtrees of a streamed HTML
// response.
//
// A subtree is declared with Set.Defer: a fallback placeholder is emitted
// synchronously in the normal render position and the real content starts
// computing immediately in the background. Once the main document body has
// been flushed, Set.Drain emits a patch for each subtree as it completes,
// first-completed-first-served, so a slow subtree never blocks a faster
// sibling.
//
// Each Set is owned by exactly one response. Entries never cross requests;
// the Set is created when dispatch begins and drained (or abandoned on
// transport failure) before the response stream closes.
//
// On the wire a resolved subtree is a pair:
//
//	<template id="S:k">…content…</template>
//	<strata-patch to="B:k" from="S:k"></strata-patch>
//
// where B:k is the id of the fallback wrapper emitted earlier. A one-time
// inline script defines the strata-patch custom element, which moves the
// template's content over the fallback and removes itself.
package suspense
