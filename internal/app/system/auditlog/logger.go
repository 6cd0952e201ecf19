// Package auditlog records authentication and admin events. Events are
// written synchronously at the call site so a crash right after a denied
// login cannot lose the trail.
package auditlog

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dmoreira/cobrafacil/internal/app/store/audit"
	"github.com/dmoreira/cobrafacil/internal/app/system/ratelimit"
)

// Destination modes, set by the audit_log_auth config key.
const (
	ModeAll = "all" // structured log and database
	ModeDB  = "db"  // database only
	ModeLog = "log" // structured log only
	ModeOff = "off"
)

// Logger fans audit events out to zap and/or the audit store.
type Logger struct {
	mode  string
	store *audit.Store
	log   *zap.Logger
}

// New builds a Logger. Unknown modes behave like ModeAll.
func New(mode string, store *audit.Store, logger *zap.Logger) *Logger {
	switch mode {
	case ModeAll, ModeDB, ModeLog, ModeOff:
	default:
		mode = ModeAll
	}
	return &Logger{mode: mode, store: store, log: logger}
}

// Record writes one event per the configured mode. Store failures are logged
// and swallowed: audit must never break the login flow it observes.
func (l *Logger) Record(ctx context.Context, ev audit.Event) {
	if l.mode == ModeOff {
		return
	}

	if l.mode == ModeAll || l.mode == ModeLog {
		fields := []zap.Field{
			zap.String("category", ev.Category),
			zap.String("event", ev.EventType),
			zap.String("ip", ev.IP),
			zap.Bool("success", ev.Success),
		}
		if ev.UserID != nil {
			fields = append(fields, zap.String("user_id", ev.UserID.Hex()))
		}
		if ev.TenantID != nil {
			fields = append(fields, zap.String("tenant_id", ev.TenantID.Hex()))
		}
		if ev.FailureReason != "" {
			fields = append(fields, zap.String("reason", ev.FailureReason))
		}
		l.log.Info("audit", fields...)
	}

	if (l.mode == ModeAll || l.mode == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, ev); err != nil {
			l.log.Error("audit event not persisted", zap.Error(err),
				zap.String("event", ev.EventType))
		}
	}
}

// LoginSuccess records a successful credential or OAuth login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, eventType string, userID primitive.ObjectID, tenantID *primitive.ObjectID) {
	l.Record(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: eventType,
		UserID:    &userID,
		TenantID:  tenantID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// LoginFailure records a denied login attempt. The attempted email is kept
// for forensics; no user ID exists or is revealed.
func (l *Logger) LoginFailure(ctx context.Context, r *http.Request, eventType, email, reason string) {
	l.Record(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		Email:         email,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: reason,
	})
}

// Logout records a sign-out.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID primitive.ObjectID, tenantID *primitive.ObjectID) {
	l.Record(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    &userID,
		TenantID:  tenantID,
		IP:        ratelimit.ClientIP(r),
		Success:   true,
	})
}

// AdminAction records a tenant-scoped admin event (boleto paid, client
// disabled, settings changed).
func (l *Logger) AdminAction(ctx context.Context, r *http.Request, eventType string, actorID, tenantID primitive.ObjectID, details map[string]string) {
	l.Record(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		ActorID:   &actorID,
		TenantID:  &tenantID,
		IP:        ratelimit.ClientIP(r),
		Success:   true,
		Details:   details,
	})
}
