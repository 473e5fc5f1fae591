package testutil

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "talaty/pkg/domain"
	"talaty/pkg/requestcontext"
)

// WithUser authenticates the request as a plain user, the way the auth
// middleware would.
func WithUser(req *http.Request, userID id.UserID) *http.Request {
	return WithActor(req, userID, requestcontext.RoleUser)
}

// WithActor authenticates the request with an explicit role.
func WithActor(req *http.Request, userID id.UserID, role requestcontext.Role) *http.Request {
	ctx := requestcontext.WithActor(req.Context(), userID, role)
	return req.WithContext(ctx)
}

// WithURLParams attaches chi route parameters so handlers can be called
// without going through a router.
func WithURLParams(req *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	return req.WithContext(ctx)
}
