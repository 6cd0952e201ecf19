package login

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dmoreira/cobrafacil/internal/app/system/auditlog"
	"github.com/dmoreira/cobrafacil/internal/app/system/auth"
	"github.com/dmoreira/cobrafacil/internal/app/system/authn"
	"github.com/dmoreira/cobrafacil/internal/app/system/authutil"
	"github.com/dmoreira/cobrafacil/internal/app/system/ratelimit"
	"github.com/dmoreira/cobrafacil/internal/domain/models"

	uierrors "github.com/dmoreira/cobrafacil/internal/app/features/errors"
)

type staticUsers struct {
	user *models.User
}

func (s *staticUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if s.user != nil && s.user.Email == email {
		cp := *s.user
		return &cp, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (s *staticUsers) Create(_ context.Context, u models.User) (models.User, error) {
	return u, nil
}

func (s *staticUsers) UpdateProfile(context.Context, primitive.ObjectID, string, string) error {
	return nil
}

func newTestHandler(t *testing.T, u *models.User) *Handler {
	t.Helper()
	logger := zap.NewNop()
	mgr, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return NewHandler(
		mgr,
		uierrors.NewErrorLogger(logger),
		auditlog.New(auditlog.ModeLog, nil, logger),
		authn.NewVerifier(&staticUsers{user: u}, logger),
		ratelimit.New(5, time.Minute),
		"http://localhost:8080",
		false,
		logger,
	)
}

func activeUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := authutil.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	tenantID := primitive.NewObjectID()
	return &models.User{
		ID:           primitive.NewObjectID(),
		Name:         "Dona da Empresa",
		Email:        email,
		PasswordHash: &hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
		TenantID:     &tenantID,
	}
}

func postLogin(h *Handler, form url.Values) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	// Failure paths render templates, which need the engine booted.
	func() {
		defer func() { _ = recover() }()
		h.HandleLoginPost(w, r)
	}()
	return w
}

func TestHandleLoginPost_Success(t *testing.T) {
	u := activeUser(t, "dona@example.com", "senha-muito-forte")
	h := newTestHandler(t, u)

	w := postLogin(h, url.Values{
		"email":    {"dona@example.com"},
		"password": {"senha-muito-forte"},
	})

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", w.Code)
	}
	// Without a callback the user lands on the dashboard, same as the
	// OAuth flow.
	if loc := w.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", loc)
	}
	if len(w.Result().Cookies()) == 0 {
		t.Error("successful login must set a session cookie")
	}
}

func TestHandleLoginPost_CallbackHonored(t *testing.T) {
	u := activeUser(t, "dona@example.com", "senha-muito-forte")
	h := newTestHandler(t, u)

	w := postLogin(h, url.Values{
		"email":       {"dona@example.com"},
		"password":    {"senha-muito-forte"},
		"callbackUrl": {"/boletos"},
	})

	if loc := w.Header().Get("Location"); loc != "http://localhost:8080/boletos" {
		t.Errorf("Location = %q, want callback joined to base", loc)
	}
}

func TestHandleLoginPost_CrossOriginCallbackRejected(t *testing.T) {
	u := activeUser(t, "dona@example.com", "senha-muito-forte")
	h := newTestHandler(t, u)

	w := postLogin(h, url.Values{
		"email":       {"dona@example.com"},
		"password":    {"senha-muito-forte"},
		"callbackUrl": {"https://evil.example.com/phish"},
	})

	if loc := w.Header().Get("Location"); loc != "http://localhost:8080" {
		t.Errorf("Location = %q, want base URL for cross-origin callback", loc)
	}
}

func TestHandleLoginPost_WrongPassword(t *testing.T) {
	u := activeUser(t, "dona@example.com", "senha-muito-forte")
	h := newTestHandler(t, u)

	w := postLogin(h, url.Values{
		"email":    {"dona@example.com"},
		"password": {"senha-errada"},
	})

	if w.Code == http.StatusSeeOther {
		t.Fatal("wrong password must not redirect")
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("failed login must not set a session cookie")
	}
}

func TestHandleLoginPost_RateLimited(t *testing.T) {
	u := activeUser(t, "dona@example.com", "senha-muito-forte")
	h := newTestHandler(t, u)
	h.Limiter = ratelimit.New(1, time.Minute)

	form := url.Values{
		"email":    {"dona@example.com"},
		"password": {"senha-errada"},
	}
	postLogin(h, form)

	// Second attempt hits the limit even with the right password.
	form.Set("password", "senha-muito-forte")
	w := postLogin(h, form)
	if w.Code == http.StatusSeeOther {
		t.Fatal("rate-limited login must not succeed")
	}
}

func TestTokenFromIdentity(t *testing.T) {
	userID := primitive.NewObjectID()

	tok := tokenFromIdentity(authn.Identity{
		UserID: userID, Name: "Sem Tenant", Role: models.RoleMember, IsActive: true,
	})
	if !tok.NeedsOnboarding || tok.TenantID != "" {
		t.Errorf("tenant-less identity: token = %+v, want NeedsOnboarding", tok)
	}

	tenantID := primitive.NewObjectID()
	tok = tokenFromIdentity(authn.Identity{
		UserID: userID, Name: "Com Tenant", Role: models.RoleAdmin, IsActive: true, TenantID: &tenantID,
	})
	if tok.NeedsOnboarding || tok.TenantID != tenantID.Hex() {
		t.Errorf("tenant identity: token = %+v", tok)
	}
}
