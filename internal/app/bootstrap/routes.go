// internal/app/bootstrap/routes.go
package bootstrap

import (
	"crypto/sha256"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"

	apifeature "github.com/dmoreira/cobrafacil/internal/app/features/api"
	authgooglefeature "github.com/dmoreira/cobrafacil/internal/app/features/authgoogle"
	boletosfeature "github.com/dmoreira/cobrafacil/internal/app/features/boletos"
	clientsfeature "github.com/dmoreira/cobrafacil/internal/app/features/clients"
	dashboardfeature "github.com/dmoreira/cobrafacil/internal/app/features/dashboard"
	errorsfeature "github.com/dmoreira/cobrafacil/internal/app/features/errors"
	healthfeature "github.com/dmoreira/cobrafacil/internal/app/features/health"
	homefeature "github.com/dmoreira/cobrafacil/internal/app/features/home"
	loginfeature "github.com/dmoreira/cobrafacil/internal/app/features/login"
	logoutfeature "github.com/dmoreira/cobrafacil/internal/app/features/logout"
	onboardingfeature "github.com/dmoreira/cobrafacil/internal/app/features/onboarding"
	registerfeature "github.com/dmoreira/cobrafacil/internal/app/features/register"
	remindersfeature "github.com/dmoreira/cobrafacil/internal/app/features/reminders"
	settingsfeature "github.com/dmoreira/cobrafacil/internal/app/features/settings"
	auditstore "github.com/dmoreira/cobrafacil/internal/app/store/audit"
	boletostore "github.com/dmoreira/cobrafacil/internal/app/store/boletos"
	clientstore "github.com/dmoreira/cobrafacil/internal/app/store/clients"
	oauthstatestore "github.com/dmoreira/cobrafacil/internal/app/store/oauthstate"
	reminderstore "github.com/dmoreira/cobrafacil/internal/app/store/reminders"
	settingsstore "github.com/dmoreira/cobrafacil/internal/app/store/settings"
	tenantstore "github.com/dmoreira/cobrafacil/internal/app/store/tenants"
	userstore "github.com/dmoreira/cobrafacil/internal/app/store/users"
	"github.com/dmoreira/cobrafacil/internal/app/system/auditlog"
	"github.com/dmoreira/cobrafacil/internal/app/system/auth"
	"github.com/dmoreira/cobrafacil/internal/app/system/authn"
	"github.com/dmoreira/cobrafacil/internal/app/system/gate"
	"github.com/dmoreira/cobrafacil/internal/app/system/ratelimit"
)

// BuildHandler constructs the root HTTP handler for the app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. The middleware chain is: session token decoding,
// then the request gate (public paths, login redirects, onboarding flow,
// header injection for /api/*), then CSRF protection on the HTML routes.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"

	sessionMgr, err := auth.NewSessionManager(
		appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain,
		appCfg.SessionMaxAge, secure, logger,
	)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	db := deps.MongoDatabase
	users := userstore.New(db)
	tenants := tenantstore.New(db)
	clients := clientstore.New(db)
	boletos := boletostore.New(db)
	reminders := reminderstore.New(db)
	settings := settingsstore.New(db)
	oauthstates := oauthstatestore.New(db)
	audits := auditstore.New(db)

	errLog := errorsfeature.NewErrorLogger(logger)
	authAudit := auditlog.New(appCfg.AuditLogAuth, audits, logger)
	adminAudit := auditlog.New(appCfg.AuditLogAdmin, audits, logger)
	limiter := ratelimit.New(appCfg.RateLimitMax, appCfg.RateLimitWindow)
	verifier := authn.NewVerifier(users, logger)
	reconciler := authn.NewReconciler(users, logger)

	googleEnabled := appCfg.GoogleClientID != "" && appCfg.GoogleClientSecret != ""

	r := chi.NewRouter()
	r.Use(sessionMgr.DecodeToken)
	r.Use(gate.New(logger).Middleware)

	// Health check endpoint for load balancers and orchestrators.
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))

	// Static assets with pre-compressed file support (gzip/brotli).
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// JSON routes: no CSRF (the gate vouches for them; OAuth callbacks and
	// API clients carry no form token).
	registerHandler := registerfeature.NewHandler(users, sessionMgr, errLog, authAudit, limiter, logger)
	r.Mount("/api/register", registerfeature.APIRoutes(registerHandler))

	googleHandler := authgooglefeature.NewHandler(
		sessionMgr, authAudit, oauthstates, reconciler,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger,
	)
	r.Mount("/api/auth/google", authgooglefeature.Routes(googleHandler))

	apiHandler := apifeature.NewHandler(clients, boletos, reminders, errLog, logger)
	r.Mount("/api", apifeature.Routes(apiHandler))

	// HTML routes behind CSRF protection.
	csrfKey := sha256.Sum256([]byte(appCfg.SessionKey))
	r.Group(func(r chi.Router) {
		r.Use(csrf.Protect(csrfKey[:], csrf.Secure(secure)))

		r.Mount("/", homefeature.Routes(homefeature.NewHandler(logger)))

		loginHandler := loginfeature.NewHandler(
			sessionMgr, errLog, authAudit, verifier, limiter,
			appCfg.BaseURL, googleEnabled, logger,
		)
		r.Mount("/login", loginfeature.Routes(loginHandler))
		r.Mount("/register", registerfeature.Routes(registerHandler))
		r.Mount("/logout", logoutfeature.Routes(logoutfeature.NewHandler(sessionMgr, authAudit, logger)))

		onboardingHandler := onboardingfeature.NewHandler(
			tenants, settings, users, userstore.NewFetcher(db),
			sessionMgr, errLog, adminAudit, logger,
		)
		r.Mount("/onboarding", onboardingfeature.Routes(onboardingHandler))

		r.Mount("/dashboard", dashboardfeature.Routes(
			dashboardfeature.NewHandler(clients, boletos, reminders, errLog, logger)))
		r.Mount("/clients", clientsfeature.Routes(
			clientsfeature.NewHandler(clients, errLog, adminAudit, logger)))
		r.Mount("/boletos", boletosfeature.Routes(
			boletosfeature.NewHandler(boletos, clients, reminders, errLog, adminAudit, logger)))
		r.Mount("/reminders", remindersfeature.Routes(
			remindersfeature.NewHandler(reminders, errLog, adminAudit, logger)))
		r.Mount("/settings", settingsfeature.Routes(
			settingsfeature.NewHandler(settings, errLog, adminAudit, logger)))

		// Error pages
		errorsHandler := errorsfeature.NewHandler()
		r.Get("/forbidden", errorsHandler.Forbidden)
		r.Get("/unauthorized", errorsHandler.Unauthorized)
	})

	return r, nil
}
