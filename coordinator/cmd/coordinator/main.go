package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"

	"github.com/sizzlebits/layerlens/common/logging"
	"github.com/sizzlebits/layerlens/common/messaging"
	natsclient "github.com/sizzlebits/layerlens/common/messaging/nats"
	"github.com/sizzlebits/layerlens/common/router"
	"github.com/sizzlebits/layerlens/common/settings"
	"github.com/sizzlebits/layerlens/coordinator/internal/config"
	"github.com/sizzlebits/layerlens/coordinator/internal/handlers"
	"github.com/sizzlebits/layerlens/coordinator/internal/relay"
	"github.com/sizzlebits/layerlens/coordinator/internal/repository"
	"github.com/sizzlebits/layerlens/coordinator/internal/server"
	"github.com/sizzlebits/layerlens/coordinator/internal/service"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("coordinator"))
	logging.SetDefault(logger)

	slog.Info("Starting coordinator",
		slog.Int("port", cfg.Server.Port),
		slog.String("storage", cfg.Storage.Driver),
		slog.Bool("nats", cfg.NATS.Enabled),
	)

	ctx := context.Background()

	// Settings storage backend
	var repo repository.Repository
	switch cfg.Storage.Driver {
	case "memory":
		repo = repository.NewMemoryRepository()
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		repo = repository.NewRedisRepository(rdb)
	case "postgres":
		connString := cfg.PostgresDSN()
		m, err := migrate.New("file://migrations", connString)
		if err != nil {
			log.Fatalf("Failed to initialize migrations: %v", err)
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Database migrations completed")

		repo, err = repository.NewPostgresRepository(ctx, connString)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
	default:
		log.Fatalf("Unknown storage driver %q", cfg.Storage.Driver)
	}
	defer repo.Close()

	// Bus connection
	var bus messaging.Client
	if cfg.NATS.Enabled {
		natsCfg := natsclient.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.Name = "layerlens-coordinator"
		bus, err = natsclient.NewClient(natsCfg)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer bus.Close()
	}

	svc := service.New(repo, bus, logger)

	if bus != nil {
		rt := router.New(bus, logger)
		registerBusHandlers(rt, svc, relay.New(bus, logger))

		subjects := []string{
			messaging.SubjectSettingsGet,
			messaging.SubjectSettingsUpdate,
			messaging.SubjectSettingsExport,
			messaging.SubjectSettingsImport,
			messaging.SubjectSettingsDomainsList,
			messaging.SubjectSettingsDomainsDelete,
			messaging.SubjectRelay,
			messaging.SubjectPing,
		}
		for _, subject := range subjects {
			if _, err := rt.Bind(subject, messaging.QueueCoordinatorWorkers); err != nil {
				log.Fatalf("Failed to bind %s: %v", subject, err)
			}
		}
	}

	// HTTP surface
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewRouter(handlers.NewSettingsHandler(svc, logger)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Coordinator listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server failed", logging.Error(err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down coordinator")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", logging.Error(err))
	}
}

// registerBusHandlers maps envelope types onto the settings service and the
// relay. Shared with tests, which drive the same handlers over the in-memory
// bus.
func registerBusHandlers(rt *router.Router, svc *service.Service, rl *relay.Relay) {
	rt.Handle(router.TypeGetSettings, func(ctx context.Context, env *router.Envelope) (interface{}, error) {
		eff, err := svc.GetEffective(ctx, env.Domain)
		if err != nil {
			return nil, err
		}
		return settings.GetResponse{Settings: eff, Domain: env.Domain}, nil
	})
	rt.Handle(router.TypeUpdateSettings, func(ctx context.Context, env *router.Envelope) (interface{}, error) {
		var req settings.UpdateRequest
		if err := env.DecodePayload(&req); err != nil {
			return nil, err
		}
		if _, err := svc.Update(ctx, env.Domain, req.Settings, req.SaveGlobal); err != nil {
			return nil, err
		}
		return settings.UpdateResponse{Success: true, Domain: env.Domain}, nil
	})
	rt.Handle(router.TypeGetDomainSettings, func(ctx context.Context, env *router.Envelope) (interface{}, error) {
		domains, err := svc.ListDomains(ctx)
		if err != nil {
			return nil, err
		}
		return settings.DomainsResponse{DomainSettings: domains}, nil
	})
	rt.Handle(router.TypeDeleteDomainSettings, func(ctx context.Context, env *router.Envelope) (interface{}, error) {
		return nil, svc.DeleteDomain(ctx, env.Domain)
	})
	rt.Handle(router.TypeExportSettings, func(ctx context.Context, env *router.Envelope) (interface{}, error) {
		return svc.Export(ctx)
	})
	rt.Handle(router.TypeImportSettings, func(ctx context.Context, env *router.Envelope) (interface{}, error) {
		if len(env.Payload) == 0 {
			return nil, fmt.Errorf("import payload required")
		}
		return nil, svc.Import(ctx, env.Payload)
	})
	rt.Handle(router.TypeRelay, rl.Handle)
	rt.Handle(router.TypePing, func(ctx context.Context, env *router.Envelope) (interface{}, error) {
		return nil, nil
	})
}
