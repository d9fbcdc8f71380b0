// Package demo wires a small fragment set used by the strata CLI's serve
// command. It stands in for the route tables a real application generates
// from its routes directory.
package demo

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/strata-dev/strata/pkg/fragment"
	"github.com/strata-dev/strata/pkg/render"
	"github.com/strata-dev/strata/pkg/router"
)

// user is the demo data model.
type user struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var (
	usersMu sync.Mutex
	users   = map[string]user{
		"1": {ID: "1", Name: "Ada Lovelace"},
		"2": {ID: "2", Name: "Grace Hopper"},
	}
)

func lookupUser(id string) (user, bool) {
	usersMu.Lock()
	defer usersMu.Unlock()
	u, ok := users[id]
	return u, ok
}

func storeUser(u user) {
	usersMu.Lock()
	defer usersMu.Unlock()
	users[u.ID] = u
}

// Routes returns the demo route table, pre-rooted at the document fragment.
func Routes() []router.Route {
	doc := documentFragment()
	layout := usersLayout()

	return []router.Route{
		{Pattern: "/", Chain: fragment.Chain{doc, homeFragment()}},
		{Pattern: "/users/:id", Chain: fragment.Chain{doc, layout, userFragment()}},
		{Pattern: "/api/users/:id", Chain: fragment.Chain{doc, apiUserFragment()}},
		{Pattern: "/users/:id/rename", Chain: fragment.Chain{doc, renameFragment()}},
	}
}

// documentFragment is the shared root: the <html> shell every route
// renders inside.
func documentFragment() *fragment.Fragment {
	return &fragment.Fragment{
		ID: "document",
		Component: func(rc *fragment.RequestContext, data any, children render.Renderable) render.Renderable {
			return render.Group{
				render.Raw(`<html lang="en"><head><meta charset="utf-8"><title>strata demo</title></head><body>`),
				children,
				render.Raw(`</body></html>`),
			}
		},
	}
}

func homeFragment() *fragment.Fragment {
	return &fragment.Fragment{
		ID: "home",
		Component: func(rc *fragment.RequestContext, data any, children render.Renderable) render.Renderable {
			return render.Raw(`<h1>strata</h1><p><a href="/users/1">Ada</a> · <a href="/users/2">Grace</a></p>`)
		},
	}
}

func usersLayout() *fragment.Fragment {
	return &fragment.Fragment{
		ID: "users-layout",
		Headers: func(rc *fragment.RequestContext, data any) http.Header {
			h := make(http.Header)
			h.Set("Cache-Control", "no-store")
			return h
		},
		Component: func(rc *fragment.RequestContext, data any, children render.Renderable) render.Renderable {
			return render.Group{render.Raw(`<nav><a href="/">home</a></nav><main>`), children, render.Raw(`</main>`)}
		},
	}
}

// userFragment loads the user eagerly and defers a slow activity feed
// behind a suspense boundary.
func userFragment() *fragment.Fragment {
	return &fragment.Fragment{
		ID:     "user",
		Params: []fragment.ParamDecl{{Name: "id"}},
		Loader: func(ctx context.Context, rc *fragment.RequestContext) (any, error) {
			u, ok := lookupUser(rc.Param("id"))
			if !ok {
				return nil, fragment.Respond(http.StatusNotFound, "text/plain; charset=utf-8", []byte("no such user\n"))
			}
			return u, nil
		},
		Component: func(rc *fragment.RequestContext, data any, children render.Renderable) render.Renderable {
			u := data.(user)
			feed := rc.Suspense.Defer(rc.Request.Context(),
				activityFeed(u.ID),
				render.Raw(`<p class="placeholder">loading activity…</p>`),
			)
			return render.Group{
				render.Raw(fmt.Sprintf(`<article data-user="%s">`, render.EscapeAttr(u.Name))),
				render.Raw("<h1>"), render.Text(u.Name), render.Raw("</h1>"),
				feed,
				render.Raw("</article>"),
			}
		},
	}
}

// activityFeed simulates a slow downstream call.
func activityFeed(id string) render.Renderable {
	return render.Func(func(ctx context.Context) (render.Renderable, error) {
		select {
		case <-time.After(150 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return render.Raw(fmt.Sprintf(`<ul class="activity"><li>user %s signed in</li></ul>`, render.Escape(id))), nil
	})
}

// apiUserFragment is a loader-only leaf: GET returns JSON.
func apiUserFragment() *fragment.Fragment {
	return &fragment.Fragment{
		ID:     "api-user",
		Params: []fragment.ParamDecl{{Name: "id"}},
		Loader: func(ctx context.Context, rc *fragment.RequestContext) (any, error) {
			u, ok := lookupUser(rc.Param("id"))
			if !ok {
				return nil, fragment.Respond(http.StatusNotFound, "application/json", []byte(`{"error":"not found"}`))
			}
			return u, nil
		},
	}
}

// renameFragment is an action-only leaf: POST renames a user.
func renameFragment() *fragment.Fragment {
	return &fragment.Fragment{
		ID:     "rename",
		Params: []fragment.ParamDecl{{Name: "id"}},
		Action: func(ctx context.Context, rc *fragment.RequestContext) (any, error) {
			if err := rc.Request.ParseForm(); err != nil {
				return nil, err
			}
			name := rc.Request.PostFormValue("name")
			if name == "" {
				return nil, fragment.Respond(http.StatusUnprocessableEntity, "application/json", []byte(`{"error":"name required"}`))
			}
			u, ok := lookupUser(rc.Param("id"))
			if !ok {
				return nil, fragment.Respond(http.StatusNotFound, "application/json", []byte(`{"error":"not found"}`))
			}
			u.Name = name
			storeUser(u)
			return u, nil
		},
	}
}
