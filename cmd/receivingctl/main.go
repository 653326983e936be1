package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/xelth-com/receivinggo/internal/app"
	"github.com/xelth-com/receivinggo/internal/cli"
	"github.com/xelth-com/receivinggo/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config.SetupLogging(cfg.Logging)

	load := func(ctx context.Context, withDB bool) (*app.App, error) {
		return app.Build(ctx, cfg, app.Options{Database: withDB})
	}

	if err := cli.NewRootCommand(load).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
