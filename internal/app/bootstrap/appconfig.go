// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for CobraFácil.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS, logging,
// request limits); AppConfig is everything specific to this application.
// Values come from config files, COBRAFACIL_* environment variables, or
// command-line flags, loaded in LoadConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions
	SessionDomain string // Cookie domain (blank means current host)
	SessionMaxAge time.Duration

	// Base URL for OAuth callbacks and absolute links
	BaseURL string // e.g. "https://app.cobrafacil.com.br" or "http://localhost:3000"

	// Google OAuth configuration (login is password-only when unset)
	GoogleClientID     string
	GoogleClientSecret string

	// Audit logging: 'all' (db+log), 'db', 'log', or 'off'
	AuditLogAuth  string
	AuditLogAdmin string

	// Rate limiting for login/register POSTs
	RateLimitMax    int
	RateLimitWindow time.Duration

	// Reminder scheduler
	SchedulerInterval time.Duration
}
