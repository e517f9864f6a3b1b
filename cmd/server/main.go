package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"squad/internal/adapters/broker"
	"squad/internal/adapters/email"
	web "squad/internal/adapters/http"
	"squad/internal/adapters/http/metrics"
	"squad/internal/adapters/http/middleware"
	"squad/internal/adapters/storage"
	coachStore "squad/internal/adapters/storage/coach"
	eventStore "squad/internal/adapters/storage/event"
	playerStore "squad/internal/adapters/storage/player"
	teamStore "squad/internal/adapters/storage/team"
	planStore "squad/internal/adapters/storage/trainingplan"
	userStore "squad/internal/adapters/storage/user"
	"squad/internal/application/orchestrators"
	"squad/internal/application/querycache"
	"squad/internal/config"
	"squad/internal/logging"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, syncLogs, err := logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cfg.LogOutput})
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer syncLogs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("server_exit", "error", err)
		stop()
		syncLogs()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	clock := clockwork.NewRealClock()
	reg := metrics.New()

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := storage.MigrateDB(db); err != nil {
		return err
	}
	slog.Info("database_ready", "path", cfg.DBPath)

	timedDB := storage.NewTimedDB(db, reg, cfg.SlowQuery())
	stores := web.Stores{
		Teams:         teamStore.NewSQLiteStore(timedDB, clock),
		Users:         userStore.NewSQLiteStore(timedDB, clock),
		Coaches:       coachStore.NewSQLiteStore(timedDB, clock),
		Players:       playerStore.NewSQLiteStore(timedDB, clock),
		Events:        eventStore.NewSQLiteStore(timedDB, clock),
		TrainingPlans: planStore.NewSQLiteStore(timedDB, clock),
	}

	// Seed the first admin, then demo data outside production. Both are no-ops
	// on a populated database.
	if _, err := orchestrators.ExecuteSeedAdmin(ctx,
		orchestrators.SeedAdminInput{Email: cfg.AdminEmail, Password: cfg.AdminPassword},
		orchestrators.SeedAdminDeps{UserStore: stores.Users},
	); err != nil {
		return err
	}
	if cfg.SeedDemo && !cfg.IsProduction() {
		n, err := orchestrators.ExecuteSeedDemo(ctx, orchestrators.SeedDemoDeps{
			Users:         stores.Users,
			Teams:         stores.Teams,
			Coaches:       stores.Coaches,
			Players:       stores.Players,
			Events:        stores.Events,
			TrainingPlans: stores.TrainingPlans,
			Clock:         clock,
		})
		if err != nil {
			return err
		}
		if n > 0 {
			slog.Info("demo_seeded", "teams", n)
		}
	}

	cacheOpts := []querycache.Option{
		querycache.WithClock(clock),
		querycache.WithMaxAge(cfg.CacheMaxAge),
		querycache.WithObserver(reg),
	}
	if cfg.NATSURL != "" {
		bus, err := broker.DialNATS(cfg.NATSURL, broker.DefaultSubject)
		if err != nil {
			return err
		}
		defer bus.Close()
		cacheOpts = append(cacheOpts, querycache.WithBus(bus))
	}
	cache := querycache.New(cacheOpts...)
	if err := cache.Listen(); err != nil {
		return err
	}
	defer cache.Close()

	var mailer email.Sender
	if cfg.ResendKey != "" {
		mailer = email.NewResendSender(cfg.ResendKey, cfg.EmailFrom, clock)
		slog.Info("email_configured", "provider", "resend")
	} else {
		mailer = email.NewNoopSender(clock)
		if cfg.IsProduction() {
			slog.Warn("email_disabled", "reason", "SQUAD_RESEND_KEY is not set")
		}
	}

	policy, err := cfg.AccessPolicy()
	if err != nil {
		return err
	}
	csrfKey, err := cfg.CSRFKeyBytes()
	if err != nil {
		return err
	}

	srv := web.NewServer(web.Deps{
		Stores:   stores,
		Policy:   policy,
		Sessions: middleware.NewSessionStore(clock, cfg.SessionTTL),
		Cache:    cache,
		Metrics:  reg,
		Mailer:   mailer,
		Clock:    clock,
		Options: web.Options{
			Secure:         cfg.IsProduction(),
			CSRFKey:        csrfKey,
			TrustedOrigins: cfg.TrustedOriginList(),
			CORSOrigins:    cfg.CORSOriginList(),
			RateLimit:      cfg.RateLimit,
			SlowRequest:    cfg.SlowRequest(),
			BaseURL:        cfg.BaseURL,
		},
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_start", "version", version, "addr", cfg.Addr, "env", cfg.Env)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("server_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
