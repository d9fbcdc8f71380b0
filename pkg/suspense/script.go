package suspense

// patchScript defines the strata-patch custom element. On attachment it
// moves the named template's content over the element carrying the target
// id, then removes both the template and itself. Emitted once per response,
// immediately before the first patch.
const patchScript = `<script>customElements.get("strata-patch")||customElements.define("strata-patch",class extends HTMLElement{connectedCallback(){var t=document.getElementById(this.getAttribute("from")),e=document.getElementById(this.getAttribute("to"));e&&t&&e.replaceWith(t.content.cloneNode(!0));t&&t.remove();this.remove()}});</script>`
