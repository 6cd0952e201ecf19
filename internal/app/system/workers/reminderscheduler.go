// internal/app/system/workers/reminderscheduler.go
package workers

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	boletostore "github.com/dmoreira/cobrafacil/internal/app/store/boletos"
	clientstore "github.com/dmoreira/cobrafacil/internal/app/store/clients"
	reminderstore "github.com/dmoreira/cobrafacil/internal/app/store/reminders"
	settingsstore "github.com/dmoreira/cobrafacil/internal/app/store/settings"
	tenantstore "github.com/dmoreira/cobrafacil/internal/app/store/tenants"
	"github.com/dmoreira/cobrafacil/internal/app/system/brformat"
	"github.com/dmoreira/cobrafacil/internal/app/system/status"
	"github.com/dmoreira/cobrafacil/internal/domain/models"
)

// ReminderScheduler is a background worker that walks active tenants each
// tick, schedules upcoming collection reminders, and flips past-due boletos
// to OVERDUE. It only writes PENDING reminder rows; dispatching them over
// WhatsApp is an external worker's job.
type ReminderScheduler struct {
	tenants   *tenantstore.Store
	settings  *settingsstore.Store
	clients   *clientstore.Store
	boletos   *boletostore.Store
	reminders *reminderstore.Store
	log       *zap.Logger
	interval  time.Duration
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewReminderScheduler creates the scheduler worker.
func NewReminderScheduler(
	tenants *tenantstore.Store,
	settings *settingsstore.Store,
	clients *clientstore.Store,
	boletos *boletostore.Store,
	reminders *reminderstore.Store,
	logger *zap.Logger,
	interval time.Duration,
) *ReminderScheduler {
	return &ReminderScheduler{
		tenants:   tenants,
		settings:  settings,
		clients:   clients,
		boletos:   boletos,
		reminders: reminders,
		log:       logger,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the background scheduling loop.
func (w *ReminderScheduler) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("reminder scheduler started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *ReminderScheduler) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("reminder scheduler stopped")
}

func (w *ReminderScheduler) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			w.RunOnce(ctx, time.Now())
			cancel()
		}
	}
}

// RunOnce executes a single scheduling pass at the given instant. Exposed so
// tests and the seed tool can drive the scheduler deterministically.
func (w *ReminderScheduler) RunOnce(ctx context.Context, now time.Time) {
	tenants, err := w.tenants.ListActive(ctx)
	if err != nil {
		w.log.Error("scheduler could not list tenants", zap.Error(err))
		return
	}

	for _, tenant := range tenants {
		if err := w.visitTenant(ctx, tenant, now); err != nil {
			w.log.Error("scheduler pass failed for tenant",
				zap.Error(err), zap.String("tenant_id", tenant.ID.Hex()))
		}
	}
}

func (w *ReminderScheduler) visitTenant(ctx context.Context, tenant models.Tenant, now time.Time) error {
	cfg, err := w.settings.Get(ctx, tenant.ID)
	if err != nil {
		return err
	}
	if !cfg.EnableAutoReminders {
		return nil
	}

	if n, err := w.boletos.MarkOverdue(ctx, tenant.ID, now); err != nil {
		return err
	} else if n > 0 {
		w.log.Info("boletos marked overdue",
			zap.Int64("count", n), zap.String("tenant_id", tenant.ID.Hex()))
	}

	due, err := w.boletos.ListDueWithin(ctx, tenant.ID, now, cfg.ReminderDaysBefore)
	if err != nil {
		return err
	}

	var scheduled int
	for _, b := range due {
		n, err := w.scheduleForBoleto(ctx, b, cfg, now)
		if err != nil {
			w.log.Warn("reminder scheduling failed for boleto",
				zap.Error(err), zap.String("boleto_id", b.ID.Hex()))
			continue
		}
		scheduled += n
	}
	if scheduled > 0 {
		w.log.Info("reminders scheduled",
			zap.Int("count", scheduled), zap.String("tenant_id", tenant.ID.Hex()))
	}
	return nil
}

// scheduleForBoleto inserts the first (and optionally second) reminder for
// one boleto. Duplicate idempotency keys mean an earlier pass already
// scheduled the reminder; those are skipped silently.
func (w *ReminderScheduler) scheduleForBoleto(ctx context.Context, b models.Boleto, cfg models.TenantSettings, now time.Time) (int, error) {
	client, err := w.clients.GetByID(ctx, b.TenantID, b.ClientID)
	if err != nil {
		return 0, err
	}
	// Disabled clients and clients without WhatsApp get no reminders.
	if client.Status != status.Active || client.WhatsApp == "" {
		return 0, nil
	}

	type slot struct {
		typ  string
		when time.Time
	}
	slots := []slot{
		{models.ReminderFirst, b.DueDate.AddDate(0, 0, -cfg.ReminderDaysBefore)},
	}
	if cfg.SendSecondReminder {
		slots = append(slots, slot{models.ReminderSecond, b.DueDate.AddDate(0, 0, -cfg.SecondReminderDays)})
	}

	var created int
	for _, sl := range slots {
		when := sl.when
		if when.Before(now) {
			when = now
		}
		daysLeft := int(b.DueDate.Sub(when).Hours() / 24)
		if daysLeft < 0 {
			daysLeft = 0
		}

		_, err := w.reminders.Create(ctx, models.Reminder{
			TenantID:    b.TenantID,
			BoletoID:    b.ID,
			Type:        sl.typ,
			ScheduledAt: when.UTC(),
			Message:     RenderTemplate(cfg.ReminderTemplate, client.Name, daysLeft, b.DueDate, b.AmountCents),
			Recipient:   client.WhatsApp,
		})
		if err == reminderstore.ErrDuplicateReminder {
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// RenderTemplate fills a tenant's reminder template. Placeholders:
// {clientName}, {daysLeft}, {dueDate}, {amount}.
func RenderTemplate(tmpl, clientName string, daysLeft int, dueDate time.Time, amountCents int64) string {
	r := strings.NewReplacer(
		"{clientName}", clientName,
		"{daysLeft}", strconv.Itoa(daysLeft),
		"{dueDate}", brformat.Date(dueDate),
		"{amount}", brformat.Amount(amountCents),
	)
	return r.Replace(tmpl)
}
