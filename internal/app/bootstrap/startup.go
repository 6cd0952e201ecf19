// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/dmoreira/cobrafacil/internal/app/resources"
	boletostore "github.com/dmoreira/cobrafacil/internal/app/store/boletos"
	clientstore "github.com/dmoreira/cobrafacil/internal/app/store/clients"
	reminderstore "github.com/dmoreira/cobrafacil/internal/app/store/reminders"
	settingsstore "github.com/dmoreira/cobrafacil/internal/app/store/settings"
	tenantstore "github.com/dmoreira/cobrafacil/internal/app/store/tenants"
	"github.com/dmoreira/cobrafacil/internal/app/system/workers"
)

// scheduler is the background reminder worker; started here, stopped in
// Shutdown.
var scheduler *workers.ReminderScheduler

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	db := deps.MongoDatabase
	scheduler = workers.NewReminderScheduler(
		tenantstore.New(db),
		settingsstore.New(db),
		clientstore.New(db),
		boletostore.New(db),
		reminderstore.New(db),
		logger,
		appCfg.SchedulerInterval,
	)
	scheduler.Start()
	logger.Info("reminder scheduler started", zap.Duration("interval", appCfg.SchedulerInterval))

	return nil
}
