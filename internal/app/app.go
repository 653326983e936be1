// Package app wires configuration into the running service graph.
package app

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/xelth-com/receivinggo/internal/backlog"
	"github.com/xelth-com/receivinggo/internal/config"
	"github.com/xelth-com/receivinggo/internal/database"
	"github.com/xelth-com/receivinggo/internal/handlers"
	"github.com/xelth-com/receivinggo/internal/ledger"
	"github.com/xelth-com/receivinggo/internal/notify"
	"github.com/xelth-com/receivinggo/internal/receiving"
	"github.com/xelth-com/receivinggo/internal/services/hubspot"
	"github.com/xelth-com/receivinggo/internal/services/mailer"
	"github.com/xelth-com/receivinggo/internal/services/sheets"
	"github.com/xelth-com/receivinggo/internal/services/sportsinc"
	"github.com/xelth-com/receivinggo/internal/tabular"
	"github.com/xelth-com/receivinggo/internal/websocket"
)

// App holds every long-lived collaborator
type App struct {
	Config *config.Config

	Ledger     *ledger.Ledger
	Receiving  *receiving.Service
	Backlog    *backlog.Store
	Sweeper    *backlog.Sweeper
	Scheduler  *backlog.Scheduler
	Dispatcher *notify.Dispatcher
	Vendor     *sportsinc.Client
	CRM        *hubspot.Client
	Hub        *websocket.Hub

	// Optional infrastructure; nil when not configured or unreachable
	DB            *database.DB
	Redis         *redis.Client
	Notifications notify.LogStore
	SweepHistory  backlog.History
}

// Options select which optional parts Build brings up
type Options struct {
	// Database connects Postgres for the notification log and sweep history
	Database bool
}

// Build constructs the service graph from cfg
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg, Hub: websocket.NewHub()}

	ledgerTable, backlogTable, err := openTables(ctx, cfg.Sheets)
	if err != nil {
		return nil, err
	}
	a.Ledger = ledger.New(ledgerTable)
	a.Backlog = backlog.NewStore(backlogTable)

	if opts.Database && cfg.Database.Enabled {
		a.connectDatabase()
	}
	a.connectRedis(ctx)

	recipients, err := config.LoadRecipients(cfg.Email.RecipientsFile, cfg.Email.To)
	if err != nil {
		return nil, err
	}
	mail := mailer.New(cfg.Email.Host, cfg.Email.Port, cfg.Email.User, cfg.Email.AppPassword, cfg.Email.FromName)
	if !mail.Configured() {
		log.Println("📭 Email not configured: notifications will be logged only")
	}
	a.Dispatcher = notify.NewDispatcher(mail, notify.NewResolver(recipients.Base, recipients.Prefixes), cfg.PortalURL)
	if a.Notifications != nil {
		a.Dispatcher.WithLog(a.Notifications)
	}

	a.Vendor = sportsinc.NewClient(cfg.SportsInc.BaseURL, cfg.SportsInc.APIKey, cfg.SportsInc.RateLimitPerMin)
	a.CRM = hubspot.NewClient(cfg.HubSpot.BaseURL, cfg.HubSpot.AccessToken, cfg.HubSpot.POProperty)

	a.Receiving = receiving.NewService(a.Ledger, a.Vendor, a.Dispatcher).
		WithDeals(a.CRM).
		WithEvents(a.Hub)
	if a.Redis != nil && cfg.Redis.CompletionDedup {
		a.Receiving.WithCompletionGuard(notify.NewRedisGuard(a.Redis, cfg.Redis.CompletionTTL))
		log.Println("✅ Completion notices deduplicated via Redis")
	}

	a.Sweeper = backlog.NewSweeper(a.Backlog, a.Vendor, a.Dispatcher, cfg.Backlog.CheckDelay)
	if a.SweepHistory != nil {
		a.Sweeper.WithHistory(a.SweepHistory)
	}
	if a.Redis != nil {
		a.Sweeper.WithLocker(backlog.NewRedisLocker(a.Redis))
	}
	hour, minute, err := config.ParseClock(cfg.Backlog.CheckTime)
	if err != nil {
		return nil, fmt.Errorf("invalid backlog check time: %w", err)
	}
	a.Scheduler = backlog.NewScheduler(a.Sweeper, hour, minute, cfg.Backlog.Location())

	return a, nil
}

// Router builds the HTTP API over the app
func (a *App) Router(static fs.FS) *handlers.Router {
	return handlers.NewRouter(handlers.Deps{
		Config:        a.Config,
		Receiving:     a.Receiving,
		Backlog:       a.Backlog,
		Sweeps:        a.Scheduler,
		SweepHistory:  a.SweepHistory,
		CRM:           a.CRM,
		Notifications: a.Notifications,
		Hub:           a.Hub,
		Static:        static,
	})
}

// Close releases clients and connections
func (a *App) Close() {
	if a.Vendor != nil {
		a.Vendor.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Printf("Redis close error: %v", err)
		}
	}
	if a.DB != nil {
		log.Println("🛑 Closing database connection...")
		if err := a.DB.Close(); err != nil {
			log.Printf("Database close error: %v", err)
		}
	}
}

func openTables(ctx context.Context, cfg config.SheetsConfig) (tabular.Table, tabular.Table, error) {
	if cfg.Backend == config.LedgerBackendMemory {
		log.Println("⚠️  Ledger backend: in-memory (data is lost on restart)")
		return tabular.NewMemoryTable(), tabular.NewMemoryTable(), nil
	}

	client, err := sheets.NewClient(ctx, cfg.SpreadsheetID, sheets.Credentials{
		ClientEmail:     cfg.ServiceAccountEmail,
		PrivateKey:      cfg.PrivateKey,
		CredentialsFile: cfg.CredentialsFile,
	})
	if err != nil {
		return nil, nil, err
	}
	return client.Table(cfg.LedgerSheet, ledger.Width()), client.Table(cfg.BacklogSheet, len(backlog.Header)), nil
}

func (a *App) connectDatabase() {
	db, err := database.Connect(a.Config.Database)
	if err != nil {
		log.Printf("⚠️  Database unavailable, notification log and sweep history disabled: %v", err)
		return
	}
	log.Println("🚀 Synchronizing database schema...")
	if err := db.Migrate(); err != nil {
		log.Printf("⚠️ Migration warning: %v", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}
	a.DB = db
	a.Notifications = notify.NewGormLog(db)
	a.SweepHistory = backlog.NewGormHistory(db)
}

func (a *App) connectRedis(ctx context.Context) {
	rc := a.Config.Redis
	if rc.Address == "" {
		return
	}
	client := redis.NewClient(&redis.Options{Addr: rc.Address, Password: rc.Password, DB: rc.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("⚠️  Redis unavailable at %s: %v", rc.Address, err)
		client.Close()
		return
	}
	log.Printf("✅ Redis connected at %s", rc.Address)
	a.Redis = client
}
