// internal/app/features/clients/handler.go
package clients

import (
	"go.uber.org/zap"

	uierrors "github.com/dmoreira/cobrafacil/internal/app/features/errors"
	clientstore "github.com/dmoreira/cobrafacil/internal/app/store/clients"
	"github.com/dmoreira/cobrafacil/internal/app/system/auditlog"
)

type Handler struct {
	Log      *zap.Logger
	Clients  *clientstore.Store
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
}

func NewHandler(clients *clientstore.Store, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		Clients:  clients,
		ErrLog:   errLog,
		AuditLog: auditLog,
	}
}
