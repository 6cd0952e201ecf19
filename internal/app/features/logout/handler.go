// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dmoreira/cobrafacil/internal/app/system/auditlog"
	"github.com/dmoreira/cobrafacil/internal/app/system/auth"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Log: logger, SessionMgr: sessionMgr, AuditLog: auditLog}
}

// ServeLogout clears the session and sends the user to the landing page.
// GET keeps parity with the header link; POST works too.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if tok, ok := auth.CurrentToken(r); ok {
		if userID, idOK := tok.UserObjectID(); idOK {
			var tenantID *primitive.ObjectID
			if tid, tidOK := tok.TenantObjectID(); tidOK {
				tenantID = &tid
			}
			h.AuditLog.Logout(r.Context(), r, userID, tenantID)
		}
	}

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("sign-out failed", zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
