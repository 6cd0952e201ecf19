// Package authz holds role checks layered on top of the decoded session
// token. Authentication (is there a valid token?) is the gate's job; authz
// answers narrower questions inside already-admitted handlers.
package authz

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dmoreira/cobrafacil/internal/app/system/auth"
)

// IsAdmin reports whether the request carries an admin token.
func IsAdmin(r *http.Request) bool {
	tok, ok := auth.CurrentToken(r)
	return ok && tok.Role == "admin"
}

// UserID returns the authenticated user's ID.
func UserID(r *http.Request) (primitive.ObjectID, bool) {
	tok, ok := auth.CurrentToken(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	return tok.UserObjectID()
}

// TenantID returns the authenticated user's tenant ID. It is false for
// users still in onboarding.
func TenantID(r *http.Request) (primitive.ObjectID, bool) {
	tok, ok := auth.CurrentToken(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	return tok.TenantObjectID()
}

// RequireAdmin rejects non-admin requests with 403. The gate has already
// ensured a token exists on these routes.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
