// Package auth owns the session token: a signed cookie claim set carrying
// identity, tenant, role, and onboarding state. The cookie is signed and
// verified locally by gorilla/securecookie; no network round trip is needed
// to authenticate a request.
//
// The SessionManager is injected into handlers explicitly. There is no
// process-wide session store.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Session value keys.
const (
	isAuthKey          = "is_authenticated"
	userIDKey          = "user_id"
	userNameKey        = "user_name"
	userRoleKey        = "user_role"
	tenantIDKey        = "tenant_id"
	isActiveKey        = "is_active"
	needsOnboardingKey = "needs_onboarding"
)

// SessionToken is the decoded, validated claim set for a request.
//
// TenantID is empty while the user is mid-onboarding; the request gate
// routes such users to the onboarding flow. NeedsOnboarding is set when an
// OAuth login had to provision a brand-new local user.
type SessionToken struct {
	UserID          string
	Name            string
	Role            string // admin | member
	TenantID        string // hex ObjectID, empty = no tenant yet
	IsActive        bool
	NeedsOnboarding bool
}

// UserObjectID parses the token's user ID. Returns false for malformed IDs.
func (t *SessionToken) UserObjectID() (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(t.UserID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// TenantObjectID parses the token's tenant ID. Returns false if the token
// has no tenant or the ID is malformed.
func (t *SessionToken) TenantObjectID() (primitive.ObjectID, bool) {
	if t.TenantID == "" {
		return primitive.NilObjectID, false
	}
	oid, err := primitive.ObjectIDFromHex(t.TenantID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

type ctxKey string

const currentTokenKey ctxKey = "currentToken"

// CurrentToken returns the request's decoded session token, if any.
func CurrentToken(r *http.Request) (*SessionToken, bool) {
	t, ok := r.Context().Value(currentTokenKey).(*SessionToken)
	return t, ok
}

// WithTestToken injects a token into the request context. Test helper only;
// production requests get their token from DecodeToken.
func WithTestToken(r *http.Request, t *SessionToken) *http.Request {
	return withToken(r, t)
}

// SessionManager mints, refreshes, and decodes session tokens. It wraps a
// gorilla cookie store configured once at startup.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager builds a SessionManager.
//
// In production (secure=true) cookies are Secure with SameSite=Lax; in local
// dev over http secure must be false so cookies are accepted.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide 32+ random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "cobrafacil-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("max_age", maxAge))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// Store exposes the underlying cookie store (logout needs its options).
func (m *SessionManager) Store() *sessions.CookieStore {
	return m.store
}

// GetSession returns the request's session, or a fresh one if the cookie is
// missing or fails signature verification. The error is informational; the
// returned session is always usable.
func (m *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return m.store.Get(r, m.name)
}

// SignIn writes the token's claims into the session and saves the cookie.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, tok SessionToken) error {
	sess, err := m.GetSession(r)
	if err != nil {
		// Invalid cookie: proceed with the fresh session Get returned.
		m.log.Warn("session cookie invalid at sign-in, using fresh session",
			zap.Error(err), zap.String("user_id", tok.UserID))
	}

	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = tok.UserID
	sess.Values[userNameKey] = tok.Name
	sess.Values[userRoleKey] = tok.Role
	sess.Values[tenantIDKey] = tok.TenantID
	sess.Values[isActiveKey] = tok.IsActive
	sess.Values[needsOnboardingKey] = tok.NeedsOnboarding

	return sess.Save(r, w)
}

// SignOut expires the session cookie.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, err := m.GetSession(r)
	if err != nil {
		m.log.Warn("session decode failed during sign-out", zap.Error(err))
	}

	// Deletion cookie must match the original store settings.
	if opts := m.store.Options; opts != nil {
		sess.Options.Domain = opts.Domain
		sess.Options.Path = opts.Path
		sess.Options.Secure = opts.Secure
		sess.Options.HttpOnly = opts.HttpOnly
		sess.Options.SameSite = opts.SameSite
	}
	sess.Options.MaxAge = -1

	return sess.Save(r, w)
}

// TokenFromSession decodes and validates the session into a SessionToken.
// Malformed claims (unknown role, bad user ID) fail closed: the request is
// treated as unauthenticated, never as an error.
func (m *SessionManager) TokenFromSession(r *http.Request) (*SessionToken, bool) {
	sess, err := m.GetSession(r)
	if err != nil {
		return nil, false
	}
	if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
		return nil, false
	}

	tok := &SessionToken{
		UserID:   getString(sess, userIDKey),
		Name:     getString(sess, userNameKey),
		Role:     getString(sess, userRoleKey),
		TenantID: getString(sess, tenantIDKey),
	}
	tok.IsActive, _ = sess.Values[isActiveKey].(bool)
	tok.NeedsOnboarding, _ = sess.Values[needsOnboardingKey].(bool)

	if _, ok := tok.UserObjectID(); !ok {
		return nil, false
	}
	if tok.Role != "admin" && tok.Role != "member" {
		return nil, false
	}
	return tok, true
}

// DecodeToken is the middleware that decodes the session token, if present,
// into the request context. It never rejects a request; the gate decides.
func (m *SessionManager) DecodeToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok, ok := m.TokenFromSession(r); ok {
			r = withToken(r, tok)
		}
		next.ServeHTTP(w, r)
	})
}

func withToken(r *http.Request, t *SessionToken) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentTokenKey, t))
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
