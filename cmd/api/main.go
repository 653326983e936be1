package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/xelth-com/receivinggo/internal/app"
	"github.com/xelth-com/receivinggo/internal/buildinfo"
	"github.com/xelth-com/receivinggo/internal/config"
	"github.com/xelth-com/receivinggo/web"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config.SetupLogging(cfg.Logging)
	log.Printf("📦 receivinggo %s", buildinfo.String())

	// 2. Build services (ledger, vendor, CRM, notifications, optional DB and Redis)
	ctx := context.Background()
	application, err := app.Build(ctx, cfg, app.Options{Database: true})
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	// 3. Live updates hub
	go application.Hub.Run()

	// 4. Backlog checker (Background)
	if cfg.Backlog.Enabled {
		application.Scheduler.Start()
	} else {
		log.Println("Backlog checker disabled: BACKLOG_ENABLED=false")
	}

	// 5. Set up HTTP router
	static, err := web.GetFileSystem()
	if err != nil {
		log.Printf("⚠️  Portal files unavailable: %v", err)
	}
	router := application.Router(static)

	// 6. Start server with graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.Printf("🚀 Receiving server (%s) starting on port %s", cfg.NodeEnv, cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Printf("⚠️  Received signal: %v. Shutting down gracefully...", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Waits for a running sweep to finish
	application.Scheduler.Stop()
	application.Hub.Stop()
	application.Close()

	log.Println("✅ Shutdown complete")
}
