package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/freightwise/cargodesk/internal/config"
	"github.com/freightwise/cargodesk/internal/dispatch"
	"github.com/freightwise/cargodesk/internal/event"
	"github.com/freightwise/cargodesk/internal/eventbus"
	"github.com/freightwise/cargodesk/internal/forms"
	"github.com/freightwise/cargodesk/internal/schema"
	"github.com/freightwise/cargodesk/internal/server"
	"github.com/freightwise/cargodesk/internal/store"
	"github.com/freightwise/cargodesk/internal/wizard"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}

	if err := forms.Init(); err != nil {
		return fmt.Errorf("wizard definitions: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.OpenSQLite(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	validator, err := schema.NewValidator()
	if err != nil {
		return fmt.Errorf("payload contracts: %w", err)
	}

	// Without an upstream freight API, submissions land in the local
	// submissions table and notifications are log-only.
	var dispatcher wizard.Dispatcher
	var notifier eventbus.Notifier
	if cfg.UpstreamBaseURL != "" {
		client := dispatch.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamTimeout)
		dispatcher, notifier = client, client
	} else {
		log.Printf("no upstream configured, dispatching locally")
		local := dispatch.NewLocal(db)
		dispatcher, notifier = local, local
	}

	bus := eventbus.New(64)
	bus.Subscribe("log", eventbus.LogConsumer())
	bus.Subscribe("notify", eventbus.NotifyConsumer(notifier))
	bus.Start(ctx)

	recorder := event.NewAuditRecorder(db)
	recorder.SetPublisher(bus)

	sessions := wizard.NewManager(cfg.SessionMaxAge, cfg.SessionIdle)

	err = server.Run(ctx, server.Config{
		Port:       cfg.HTTPPort,
		Store:      db,
		Sessions:   sessions,
		Validator:  validator,
		Dispatcher: dispatcher,
		Recorder:   recorder,
	})
	stop()
	bus.Wait()
	return err
}
