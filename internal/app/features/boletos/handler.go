// internal/app/features/boletos/handler.go
package boletos

import (
	"go.uber.org/zap"

	uierrors "github.com/dmoreira/cobrafacil/internal/app/features/errors"
	boletostore "github.com/dmoreira/cobrafacil/internal/app/store/boletos"
	clientstore "github.com/dmoreira/cobrafacil/internal/app/store/clients"
	reminderstore "github.com/dmoreira/cobrafacil/internal/app/store/reminders"
	"github.com/dmoreira/cobrafacil/internal/app/system/auditlog"
)

type Handler struct {
	Log       *zap.Logger
	Boletos   *boletostore.Store
	Clients   *clientstore.Store
	Reminders *reminderstore.Store
	ErrLog    *uierrors.ErrorLogger
	AuditLog  *auditlog.Logger
}

func NewHandler(
	boletos *boletostore.Store,
	clients *clientstore.Store,
	reminders *reminderstore.Store,
	errLog *uierrors.ErrorLogger,
	auditLog *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:       logger,
		Boletos:   boletos,
		Clients:   clients,
		Reminders: reminders,
		ErrLog:    errLog,
		AuditLog:  auditLog,
	}
}
