// internal/app/features/boletos/boletoactions.go
package boletos

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	uierrors "github.com/dmoreira/cobrafacil/internal/app/features/errors"
	"github.com/dmoreira/cobrafacil/internal/app/store/audit"
	boletostore "github.com/dmoreira/cobrafacil/internal/app/store/boletos"
	"github.com/dmoreira/cobrafacil/internal/app/system/authz"
	"github.com/dmoreira/cobrafacil/internal/app/system/timeouts"
)

// boletoIDFromPath parses the {id} URL param.
func boletoIDFromPath(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

// HandleMarkPaid settles a boleto. An empty paid_amount settles for the full
// face value.
func (h *Handler) HandleMarkPaid(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := boletoIDFromPath(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	var paidCents int64
	if raw := r.FormValue("paid_amount"); raw != "" {
		var err error
		if paidCents, err = parseAmountCents(raw); err != nil || paidCents <= 0 {
			h.ErrLog.LogBadRequest(w, r, "bad paid amount", err, "Valor pago inválido.", "/boletos")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err := h.Boletos.MarkPaid(ctx, tenantID, id, paidCents, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			http.NotFound(w, r)
		case errors.Is(err, boletostore.ErrAlreadyPaid):
			h.ErrLog.LogBadRequest(w, r, "boleto already settled", err, "Este boleto já foi pago.", "/boletos")
		default:
			h.ErrLog.LogServerError(w, r, "mark boleto paid failed", err, "", "/boletos")
		}
		return
	}

	// A paid boleto needs no reminders; drop any still pending.
	if n, err := h.Reminders.CancelForBoleto(ctx, tenantID, id); err != nil {
		h.Log.Warn("cancel reminders for paid boleto failed",
			zap.String("boleto_id", id.Hex()), zap.Error(err))
	} else if n > 0 {
		h.Log.Info("cancelled reminders for paid boleto",
			zap.String("boleto_id", id.Hex()), zap.Int64("count", n))
	}

	if actorID, ok := authz.UserID(r); ok {
		h.AuditLog.AdminAction(r.Context(), r, audit.EventBoletoPaid, actorID, tenantID, map[string]string{
			"boleto_id": id.Hex(),
		})
	}

	http.Redirect(w, r, "/boletos", http.StatusSeeOther)
}

// HandleCancelBoleto voids an unpaid boleto and its pending reminders.
func (h *Handler) HandleCancelBoleto(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := boletoIDFromPath(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Boletos.Cancel(ctx, tenantID, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.NotFound(w, r)
			return
		}
		h.ErrLog.LogBadRequest(w, r, "cancel boleto failed", err, "Não foi possível cancelar este boleto.", "/boletos")
		return
	}

	if n, err := h.Reminders.CancelForBoleto(ctx, tenantID, id); err != nil {
		h.Log.Warn("cancel reminders for cancelled boleto failed",
			zap.String("boleto_id", id.Hex()), zap.Error(err))
	} else if n > 0 {
		h.Log.Info("cancelled reminders for cancelled boleto",
			zap.String("boleto_id", id.Hex()), zap.Int64("count", n))
	}

	if actorID, ok := authz.UserID(r); ok {
		h.AuditLog.AdminAction(r.Context(), r, audit.EventBoletoCancelled, actorID, tenantID, map[string]string{
			"boleto_id": id.Hex(),
		})
	}

	http.Redirect(w, r, "/boletos", http.StatusSeeOther)
}
