package testutil

import (
	"net/http"
	"net/http/httptest"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dmoreira/cobrafacil/internal/app/system/auth"
)

// AdminToken returns a session token for an onboarded admin.
func AdminToken() *auth.SessionToken {
	return &auth.SessionToken{
		UserID:   primitive.NewObjectID().Hex(),
		Name:     "Test Admin",
		Role:     "admin",
		TenantID: primitive.NewObjectID().Hex(),
		IsActive: true,
	}
}

// MemberToken returns a session token for an onboarded member.
func MemberToken() *auth.SessionToken {
	return &auth.SessionToken{
		UserID:   primitive.NewObjectID().Hex(),
		Name:     "Test Member",
		Role:     "member",
		TenantID: primitive.NewObjectID().Hex(),
		IsActive: true,
	}
}

// OnboardingToken returns a token for a user without a tenant.
func OnboardingToken() *auth.SessionToken {
	return &auth.SessionToken{
		UserID:          primitive.NewObjectID().Hex(),
		Name:            "New User",
		Role:            "member",
		IsActive:        true,
		NeedsOnboarding: true,
	}
}

// NewAuthenticatedRequest builds a request carrying the given token, the way
// the session middleware would after decoding a valid cookie.
func NewAuthenticatedRequest(method, target string, tok *auth.SessionToken) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	if tok != nil {
		r = auth.WithTestToken(r, tok)
	}
	return r
}

// AssertStatus fails the test if the recorder holds a different status code.
func AssertStatus(t interface {
	Helper()
	Errorf(format string, args ...any)
}, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Errorf("status = %d, want %d; body: %s", w.Code, want, w.Body.String())
	}
}

// AssertRedirect fails the test unless the recorder is a redirect to loc.
func AssertRedirect(t interface {
	Helper()
	Errorf(format string, args ...any)
}, w *httptest.ResponseRecorder, loc string) {
	t.Helper()
	if w.Code < 300 || w.Code >= 400 {
		t.Errorf("status = %d, want a redirect", w.Code)
		return
	}
	if got := w.Header().Get("Location"); got != loc {
		t.Errorf("Location = %q, want %q", got, loc)
	}
}
