package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"maintenance-backend/config"
	"maintenance-backend/internal/api"
	"maintenance-backend/internal/auth"
	"maintenance-backend/internal/db"
	"maintenance-backend/internal/docs"
	"maintenance-backend/internal/model"
	"maintenance-backend/internal/mw"
	"maintenance-backend/internal/notification"
	"maintenance-backend/internal/store"
	"maintenance-backend/internal/sweeper"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetPrefix("maintd ")

	root := &cli.Command{
		Name:  "maintd",
		Usage: "Maintenance management backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "./config/config.yaml",
				Usage:   "path to the YAML configuration file",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			syncDocumentsCommand(),
			createAdminCommand(),
		},
		Action: serve,
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Command) (*config.Config, string, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load configuration from %s: %w", path, err)
	}
	log.Printf("configuration loaded from %s", path)
	return cfg, path, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP API, mail workers and background sweeper",
		Action: serve,
	}
}

func serve(ctx context.Context, c *cli.Command) error {
	cfg, cfgPath, err := loadConfig(c)
	if err != nil {
		return err
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	if err := bootstrapAdmin(ctx, appStore, cfg.Auth); err != nil {
		return err
	}

	smtpSender := notification.NewSMTPSender(cfg.SMTP)
	if !cfg.SMTP.Enabled() {
		log.Println("SMTP is not configured; emails will be dropped")
	}
	mailPool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, smtpSender)
	mailPool.Start(ctx)

	metrics := mw.NewMetrics("maintd")
	metrics.Gauge("maintd_mail_queue_length", "Emails waiting for a worker.", func() float64 {
		return float64(mailPool.Pending())
	})

	sweeperSvc := sweeper.NewService(cfg.Sweeper, appStore, mailPool)
	go sweeperSvc.Run(ctx)

	handler := api.NewHandler(api.Deps{
		Store:      appStore,
		Config:     cfg,
		ConfigPath: cfgPath,
		Mailer:     mailPool,
		SMTP:       smtpSender,
	})
	go handler.ForgetIdleClients(ctx, 10*time.Minute)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(handler, metrics),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP server starting on port %d", cfg.Server.Port)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Printf("received %s, stopping services...", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	log.Println("Server gracefully stopped")
	return nil
}

// bootstrapAdmin creates the configured administrator when there are no users yet.
func bootstrapAdmin(ctx context.Context, st store.Store, cfg config.AuthConfig) error {
	if cfg.BootstrapUsername == "" || cfg.BootstrapPassword == "" {
		return nil
	}
	n, err := st.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if n > 0 {
		return nil
	}
	u, err := createAdmin(ctx, st, cfg.BootstrapUsername, cfg.BootstrapEmail, cfg.BootstrapPassword)
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	log.Printf("created initial administrator %q", u.Username)
	return nil
}

func createAdmin(ctx context.Context, st store.Store, username, email, password string) (model.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		Username:          username,
		EmailAddress:      email,
		Password:          hash,
		Admin:             true,
		TicketPermissions: true,
	}
	if err := st.CreateUser(ctx, &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or update the database schema and exit",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, _, err := loadConfig(c)
			if err != nil {
				return err
			}
			if _, err := db.Init(&cfg.Database); err != nil {
				return err
			}
			log.Println("migrations applied")
			return nil
		},
	}
}

func syncDocumentsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync-documents",
		Usage: "Reconcile the document folder with the database",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, _, err := loadConfig(c)
			if err != nil {
				return err
			}
			gormDB, err := db.Init(&cfg.Database)
			if err != nil {
				return err
			}
			appStore := store.NewGormStore(gormDB)
			machines, err := appStore.ListMachines(ctx, store.MachineFilter{})
			if err != nil {
				return err
			}
			ids := make([]int64, 0, len(machines))
			for _, m := range machines {
				ids = append(ids, m.ID)
			}
			syncer := docs.NewSyncer(docs.NewFolderStore(cfg.Storage.UploadFolder), appStore)
			results, err := syncer.SyncAll(ctx, ids)
			added, removed := 0, 0
			for _, r := range results {
				added += r.Added
				removed += r.Removed
			}
			fmt.Printf("synced %d machines: %d documents added, %d removed\n", len(results), added, removed)
			return err
		},
	}
}

func createAdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-admin",
		Usage: "Create an administrator account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, _, err := loadConfig(c)
			if err != nil {
				return err
			}
			gormDB, err := db.Init(&cfg.Database)
			if err != nil {
				return err
			}
			u, err := createAdmin(ctx, store.NewGormStore(gormDB), c.String("username"), c.String("email"), c.String("password"))
			if err != nil {
				return err
			}
			fmt.Printf("created administrator %q (id %d)\n", u.Username, u.ID)
			return nil
		},
	}
}
