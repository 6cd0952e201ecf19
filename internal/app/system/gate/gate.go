// Package gate classifies every request before it reaches a feature handler:
// public, unauthenticated, mid-onboarding, or fully authorized. Denials are
// always redirects; the gate itself never returns an error page.
//
// For authorized API requests the gate injects x-tenant-id and x-user-id
// request headers so JSON handlers can scope queries without re-decoding the
// session.
package gate

import (
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/dmoreira/cobrafacil/internal/app/system/auth"
)

// Headers injected into authorized /api/* requests.
const (
	HeaderTenantID = "x-tenant-id"
	HeaderUserID   = "x-user-id"
)

// Rule matches a path either exactly or by prefix.
type Rule struct {
	Pattern string
	Exact   bool
}

// Matches reports whether path falls under the rule. Prefix rules match on
// path-segment boundaries, so "/login" covers "/login/reset" but not
// "/loginfoo".
func (ru Rule) Matches(path string) bool {
	if ru.Exact {
		return path == ru.Pattern
	}
	return path == ru.Pattern || strings.HasPrefix(path, ru.Pattern+"/")
}

// State is the gate's classification of a request.
type State int

const (
	// StatePublic: path is on the public list; no token needed.
	StatePublic State = iota
	// StateUnauthenticated: protected path, no token.
	StateUnauthenticated
	// StateNeedsOnboarding: token without tenant on a non-onboarding path.
	StateNeedsOnboarding
	// StateAlreadyOnboarded: token with tenant on the onboarding path.
	StateAlreadyOnboarded
	// StateAuthorized: request may proceed to its handler.
	StateAuthorized
)

func (s State) String() string {
	switch s {
	case StatePublic:
		return "public"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateNeedsOnboarding:
		return "needs_onboarding"
	case StateAlreadyOnboarded:
		return "already_onboarded"
	case StateAuthorized:
		return "authorized"
	}
	return "unknown"
}

// Decision is the outcome of classifying one request. RedirectTo is empty
// when the request may proceed.
type Decision struct {
	State         State
	RedirectTo    string
	InjectHeaders bool
}

// Gate evaluates an ordered rule list against each request path.
type Gate struct {
	// Public is the full public set, static asset prefixes included.
	Public []Rule
	// Prefilter is the shorter public set used by the coarse Authorized
	// predicate; it deliberately omits static prefixes.
	Prefilter []Rule

	LoginPath      string
	OnboardingPath string
	DashboardPath  string
	APIPrefix      string

	log *zap.Logger
}

// New returns a Gate with the application's default route layout.
func New(logger *zap.Logger) *Gate {
	pages := []Rule{
		{Pattern: "/", Exact: true},
		{Pattern: "/login"},
		{Pattern: "/register"},
		{Pattern: "/api/auth"},
		{Pattern: "/api/register"},
	}
	static := []Rule{
		{Pattern: "/static"},
		{Pattern: "/favicon.ico", Exact: true},
		{Pattern: "/robots.txt", Exact: true},
		{Pattern: "/sitemap.xml", Exact: true},
	}
	return &Gate{
		Public:         append(append([]Rule{}, pages...), static...),
		Prefilter:      pages,
		LoginPath:      "/login",
		OnboardingPath: "/onboarding",
		DashboardPath:  "/dashboard",
		APIPrefix:      "/api/",
		log:            logger,
	}
}

// Authorized is the coarse pre-filter: public (short list) paths are always
// allowed, everything else requires a token. It knows nothing about tenants
// or onboarding; Classify refines its answer.
func (g *Gate) Authorized(path string, hasToken bool) bool {
	for _, ru := range g.Prefilter {
		if ru.Matches(path) {
			return true
		}
	}
	return hasToken
}

// Classify runs the ordered rules for one request. requestURI is the original
// path+query, preserved in the login redirect's callbackUrl.
func (g *Gate) Classify(path, requestURI string, tok *auth.SessionToken) Decision {
	for _, ru := range g.Public {
		if ru.Matches(path) {
			return Decision{State: StatePublic}
		}
	}

	if tok == nil {
		return Decision{
			State:      StateUnauthenticated,
			RedirectTo: g.LoginPath + "?callbackUrl=" + url.QueryEscape(requestURI),
		}
	}

	onOnboarding := Rule{Pattern: g.OnboardingPath}.Matches(path)
	if tok.TenantID == "" {
		if !onOnboarding {
			return Decision{State: StateNeedsOnboarding, RedirectTo: g.OnboardingPath}
		}
		return Decision{State: StateAuthorized}
	}
	if onOnboarding {
		return Decision{State: StateAlreadyOnboarded, RedirectTo: g.DashboardPath}
	}

	return Decision{
		State:         StateAuthorized,
		InjectHeaders: strings.HasPrefix(path, g.APIPrefix),
	}
}

// Middleware applies the gate to every request. It expects auth.DecodeToken
// to have run first.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, _ := auth.CurrentToken(r)
		d := g.Classify(r.URL.Path, r.URL.RequestURI(), tok)

		// Coarse tier runs behind the fine public match so unauthenticated
		// asset requests are not bounced to login.
		if d.State != StatePublic && !g.Authorized(r.URL.Path, tok != nil) {
			d = Decision{
				State:      StateUnauthenticated,
				RedirectTo: g.LoginPath + "?callbackUrl=" + url.QueryEscape(r.URL.RequestURI()),
			}
		}

		if d.RedirectTo != "" {
			g.log.Debug("gate redirect",
				zap.String("path", r.URL.Path),
				zap.String("state", d.State.String()),
				zap.String("to", d.RedirectTo))
			http.Redirect(w, r, d.RedirectTo, http.StatusSeeOther)
			return
		}

		// Inbound copies of the injected headers are never trusted.
		r.Header.Del(HeaderTenantID)
		r.Header.Del(HeaderUserID)
		if d.InjectHeaders && tok != nil {
			r.Header.Set(HeaderTenantID, tok.TenantID)
			r.Header.Set(HeaderUserID, tok.UserID)
		}

		next.ServeHTTP(w, r)
	})
}
