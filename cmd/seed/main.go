// Command seed loads a demo tenant with clients, boletos, and scheduled
// reminders, plus an admin login. It is idempotent: rerunning against a
// seeded database exits without duplicating anything.
//
// Usage:
//
//	COBRAFACIL_MONGO_URI=mongodb://localhost:27017 go run ./cmd/seed
//
// Demo login: admin@demo-company.com / admin123
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	boletostore "github.com/dmoreira/cobrafacil/internal/app/store/boletos"
	clientstore "github.com/dmoreira/cobrafacil/internal/app/store/clients"
	reminderstore "github.com/dmoreira/cobrafacil/internal/app/store/reminders"
	settingsstore "github.com/dmoreira/cobrafacil/internal/app/store/settings"
	tenantstore "github.com/dmoreira/cobrafacil/internal/app/store/tenants"
	userstore "github.com/dmoreira/cobrafacil/internal/app/store/users"
	"github.com/dmoreira/cobrafacil/internal/app/system/authutil"
	"github.com/dmoreira/cobrafacil/internal/domain/models"
)

const (
	demoSlug     = "empresa-demo"
	adminEmail   = "admin@demo-company.com"
	adminPass    = "admin123" // demo only; authutil would reject it for real accounts
	reminderTmpl = models.DefaultReminderTemplate
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	uri := envOr("COBRAFACIL_MONGO_URI", "mongodb://localhost:27017")
	dbName := envOr("COBRAFACIL_MONGO_DATABASE", "cobrafacil")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(dbName)

	tenants := tenantstore.New(db)
	settings := settingsstore.New(db)
	users := userstore.New(db)
	clients := clientstore.New(db)
	boletos := boletostore.New(db)
	reminders := reminderstore.New(db)

	for _, ensure := range []func(context.Context) error{
		tenants.EnsureIndexes, settings.EnsureIndexes, users.EnsureIndexes,
		clients.EnsureIndexes, boletos.EnsureIndexes, reminders.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
	}

	if _, err := tenants.GetBySlug(ctx, demoSlug); err == nil {
		logger.Info("demo tenant already present, nothing to do", zap.String("slug", demoSlug))
		return nil
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("look up demo tenant: %w", err)
	}

	tenant, err := tenants.Create(ctx, models.Tenant{
		Name:    "Empresa Demo",
		Slug:    demoSlug,
		Email:   "contato@demo-company.com",
		Phone:   "+5511999999999",
		CNPJ:    "12345678000195",
		Address: "Rua Demo, 123 - São Paulo, SP",
		Plan:    models.PlanStarter,
	})
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	logger.Info("tenant created", zap.String("name", tenant.Name))

	cfg := models.DefaultTenantSettings(tenant.ID)
	cfg.ReminderTemplate = reminderTmpl
	if err := settings.Save(ctx, tenant.ID, cfg); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	hash, err := authutil.HashPassword(adminPass)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	admin, err := users.Create(ctx, models.User{
		Name:         "Administrador",
		Email:        adminEmail,
		PasswordHash: &hash,
		AuthMethod:   models.AuthPassword,
		Role:         models.RoleAdmin,
		TenantID:     &tenant.ID,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	logger.Info("admin user created", zap.String("email", admin.Email))

	seedClients := []models.Client{
		{
			Name:     "CONDOMÍNIO DO EDIFÍCIO BOULEVARD PORT RO",
			CpfCnpj:  "12345678901",
			WhatsApp: "+5511987654321",
			Email:    "financeiro@condominioport.com.br",
			Address:  "RUA MARQUES DE VALENCA, 387",
			City:     "Porto Alegre",
			State:    "RS",
			ZipCode:  "51111-080",
		},
		{
			Name:     "CONDOMÍNIO DO EDIFÍCIO JAIME MENDONÇA",
			CpfCnpj:  "98765432100",
			WhatsApp: "+5583987654321",
			Email:    "administracao@condominiojaime.com.br",
			Address:  "AVENIDA EDSON RAMALHO, 543",
			City:     "João Pessoa",
			State:    "PB",
			ZipCode:  "58038-000",
		},
		{
			Name:     "CONDOMÍNIO RESIDENCIAL JARDIM HOLANDA",
			CpfCnpj:  "11122233344",
			WhatsApp: "+5584987654321",
			Email:    "sindico@jardimholanda.com.br",
			Address:  "R PROFESSOR CLEMENTINO CAMARA, 204",
			City:     "Natal",
			State:    "RN",
			ZipCode:  "59030-330",
		},
	}
	created := make([]models.Client, 0, len(seedClients))
	for _, c := range seedClients {
		c.TenantID = tenant.ID
		out, err := clients.Create(ctx, c)
		if err != nil {
			return fmt.Errorf("create client %q: %w", c.Name, err)
		}
		created = append(created, out)
	}
	logger.Info("clients created", zap.Int("count", len(created)))

	today := time.Now().UTC()
	paidAt := today.AddDate(0, 0, -8)
	seedBoletos := []models.Boleto{
		{
			ClientID:    created[0].ID,
			NossoNumero: "000900291002667285913904937",
			AmountCents: 87551,
			DueDate:     today.AddDate(0, 0, 5),
			Description: "ROYAL 2/8 - Taxa de condomínio",
			Status:      models.BoletoPending,
		},
		{
			ClientID:    created[1].ID,
			NossoNumero: "000900291002667285914357094",
			AmountCents: 87575,
			DueDate:     today.AddDate(0, 0, 2),
			Description: "DONCA 2/10 - Taxa de condomínio",
			Status:      models.BoletoPending,
		},
		{
			ClientID:    created[2].ID,
			NossoNumero: "000900291002667285813214858",
			AmountCents: 70850,
			DueDate:     today.AddDate(0, 0, 7),
			Description: "LANDA 9/10 - Taxa de condomínio",
			Status:      models.BoletoPending,
		},
		{
			ClientID:    created[0].ID,
			NossoNumero: "000900291002667285872689663",
			AmountCents: 82050,
			DueDate:     today.AddDate(0, 0, -2),
			Description: "TILHAS 4/7 - Taxa de condomínio",
			Status:      models.BoletoOverdue,
		},
		{
			ClientID:        created[1].ID,
			NossoNumero:     "000900291002667285799285386",
			AmountCents:     68830,
			DueDate:         today.AddDate(0, 0, -10),
			Description:     "ENEE 10/11 - Taxa de condomínio",
			Status:          models.BoletoPaid,
			PaidAt:          &paidAt,
			PaidAmountCents: 68830,
		},
	}
	boletosOut := make([]models.Boleto, 0, len(seedBoletos))
	for _, b := range seedBoletos {
		b.TenantID = tenant.ID
		out, err := boletos.Create(ctx, b)
		if err != nil {
			return fmt.Errorf("create boleto %s: %w", b.NossoNumero, err)
		}
		boletosOut = append(boletosOut, out)
	}
	logger.Info("boletos created", zap.Int("count", len(boletosOut)))

	seedReminders := []models.Reminder{
		{
			BoletoID:    boletosOut[0].ID,
			Type:        models.ReminderFirst,
			ScheduledAt: today.AddDate(0, 0, 2),
			Message:     "🔔 Olá " + created[0].Name + "! Seu boleto vence em 3 dias. Valor: R$ 875,51",
			Recipient:   created[0].WhatsApp,
		},
		{
			BoletoID:    boletosOut[1].ID,
			Type:        models.ReminderSecond,
			ScheduledAt: today.AddDate(0, 0, 1),
			Message:     "🔔 Olá " + created[1].Name + "! Seu boleto vence amanhã. Valor: R$ 875,75",
			Recipient:   created[1].WhatsApp,
		},
	}
	for _, rem := range seedReminders {
		rem.TenantID = tenant.ID
		if _, err := reminders.Create(ctx, rem); err != nil {
			return fmt.Errorf("create reminder for boleto %s: %w", rem.BoletoID.Hex(), err)
		}
	}
	logger.Info("reminders scheduled", zap.Int("count", len(seedReminders)))

	logger.Info("seed complete",
		zap.String("login", adminEmail),
		zap.String("password", adminPass),
	)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
