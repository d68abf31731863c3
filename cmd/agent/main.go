package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"axiapac.com/punchclock/agent"
	"axiapac.com/punchclock/config"
	"axiapac.com/punchclock/geo"
	"axiapac.com/punchclock/infrastructure/communication"
	"axiapac.com/punchclock/infrastructure/devops"
	"axiapac.com/punchclock/logging"
	"axiapac.com/punchclock/security"
	"axiapac.com/punchclock/session"
	"axiapac.com/punchclock/store"
	"axiapac.com/punchclock/web"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	secret, err := security.DecodeSecret(cfg.Server.SigningSecret)
	if err != nil {
		log.Fatal("Failed to decode JWT secret:", err)
	}

	loc := cfg.TimeZone()
	opts := agent.Options{
		NewBackend:            agent.RemoteBackends(cfg.Backend.BaseURL, loc),
		Location:              loc,
		ExcludedDeviceClasses: cfg.Punch.ExcludedDeviceClasses,
		DeviceClass:           cfg.Punch.DeviceClass,
		TickInterval:          cfg.Timer.TickInterval,
		LocationMaxAge:        cfg.Location.MaxAge,
		Logger:                logger,
	}

	if cfg.Database.Enabled() {
		db, err := openDatabase(ctx, cfg.Database)
		if err != nil {
			log.Fatal(err)
		}
		defer store.Close(db)
		opts.Store = store.NewSessionStore(db)
		opts.Journal = store.NewJournal(db)
		logger.Info("sessions stored in MySQL", "database", cfg.Database.Name)
	} else {
		logger.Warn("no database configured, sessions are kept in memory")
	}

	if cfg.Slack.Enabled() {
		opts.Notifier = communication.NewSlack(cfg.Slack.Token, communication.SlackOption{
			InfoChannelID:  cfg.Slack.InfoChannel,
			ErrorChannelID: cfg.Slack.ErrorChannel,
		})
	}

	if cfg.Punch.OfficesFile != "" {
		offices, err := loadOffices(cfg.Punch.OfficesFile)
		if err != nil {
			log.Fatal(err)
		}
		opts.Offices = offices
		logger.Info("office registry loaded", "offices", len(offices))
	}

	svc := agent.New(opts)

	go logging.RunTask(logger, "timer", func() error {
		return svc.Timer().Run(ctx)
	})
	go logging.RunTask(logger, "clock_sync", func() error {
		return svc.RunClockSync(ctx, cfg.Timer.ClockSyncInterval)
	})
	if cfg.Timer.IdentityFile != "" {
		src := session.FileIdentity{Path: cfg.Timer.IdentityFile}
		go logging.RunTask(logger, "identity_watch", func() error {
			return session.WatchIdentity(ctx, src, cfg.Timer.IdentityPoll, svc.IdentityChanged)
		})
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           web.NewRouter(svc, secret, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("punch clock agent listening", "addr", server.Addr, "timezone", loc.String())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		client, err := devops.NewParameterGetter(ctx)
		if err != nil {
			return nil, err
		}
		dsn, err = devops.LookupDSN(ctx, client, cfg.SSMName, cfg.Name)
		if err != nil {
			return nil, err
		}
	}

	db, err := store.Open(dsn, cfg.MaxConnections, store.ParseLogLevel(cfg.LogLevel))
	if err != nil {
		return nil, err
	}
	if err := store.AutoMigrate(db); err != nil {
		store.Close(db)
		return nil, err
	}
	return db, nil
}

func loadOffices(path string) ([]geo.Office, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return geo.LoadOfficesCSV(f)
}
