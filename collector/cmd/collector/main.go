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
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sizzlebits/layerlens/collector/internal/archive"
	"github.com/sizzlebits/layerlens/collector/internal/bridge"
	"github.com/sizzlebits/layerlens/collector/internal/config"
	"github.com/sizzlebits/layerlens/collector/internal/handlers"
	"github.com/sizzlebits/layerlens/collector/internal/server"
	"github.com/sizzlebits/layerlens/collector/internal/service"
	"github.com/sizzlebits/layerlens/collector/internal/store"
	"github.com/sizzlebits/layerlens/common/logging"
	"github.com/sizzlebits/layerlens/common/messaging"
	natsclient "github.com/sizzlebits/layerlens/common/messaging/nats"
	"github.com/sizzlebits/layerlens/common/models"
	"github.com/sizzlebits/layerlens/common/router"
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
	).With(logging.Service("collector"))
	logging.SetDefault(logger)

	slog.Info("Starting collector",
		slog.Int("port", cfg.Server.Port),
		slog.Bool("nats", cfg.NATS.Enabled),
		slog.Bool("redis", cfg.Redis.Enabled),
		slog.Bool("archive", cfg.Archive.Enabled),
	)

	ctx := context.Background()

	// Bus connection for coordinator requests and tab-scoped serving
	var bus messaging.Client
	if cfg.NATS.Enabled {
		natsCfg := natsclient.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.Name = "layerlens-collector"
		bus, err = natsclient.NewClient(natsCfg)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer bus.Close()
	}

	// Snapshot backend for persistent event buffers
	var snap *store.Snapshotter
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
		snap = store.NewSnapshotter(rdb, cfg.Collection.SnapshotMaxAge, logger)
	}

	// Long-term event archive
	var indexer *archive.Indexer
	if cfg.Archive.Enabled {
		indexer, err = archive.New(archive.Config{
			URL:      cfg.Archive.URL,
			Username: cfg.Archive.Username,
			Password: cfg.Archive.Password,
			Insecure: cfg.Archive.Insecure,
			Index:    cfg.Archive.Index,
		}, logger)
		if err != nil {
			log.Fatalf("Failed to connect to event archive: %v", err)
		}
	}

	svc := service.New(store.New(cfg.Collection.MaxEvents), snap, indexer, bus, logger)
	if snap != nil && cfg.Collection.RestoreOnStartup {
		svc.RestoreSnapshots(ctx)
	}

	br := bridge.NewServer(svc, logger)

	if bus != nil {
		rt := router.New(bus, logger)
		rt.Handle(router.TypeGetEvents, func(ctx context.Context, env *router.Envelope) (interface{}, error) {
			if env.TabID == nil {
				return nil, fmt.Errorf("tab_id required")
			}
			return models.EventsResponse{Events: svc.Events(*env.TabID)}, nil
		})
		rt.Handle(router.TypeClearEvents, func(ctx context.Context, env *router.Envelope) (interface{}, error) {
			if env.TabID == nil {
				return nil, fmt.Errorf("tab_id required")
			}
			svc.Clear(ctx, *env.TabID)
			return nil, nil
		})
		rt.Handle(router.TypePing, func(ctx context.Context, env *router.Envelope) (interface{}, error) {
			return nil, nil
		})

		for _, subject := range []string{messaging.SubjectEventsGet, messaging.SubjectEventsClear} {
			if _, err := rt.Bind(subject, messaging.QueueCollectorWorkers); err != nil {
				log.Fatalf("Failed to bind %s: %v", subject, err)
			}
		}

		// A bridge attachment makes this instance the authority for the
		// tab, so it claims the tab-scoped subject for relayed requests.
		var tabSubsMu sync.Mutex
		tabSubs := make(map[int]messaging.Subscription)
		br.OnAttach(func(tabID int) {
			sub, err := rt.Bind(messaging.TabEventsSubject(tabID), "")
			if err != nil {
				slog.Warn("Failed to bind tab subject", logging.TabID(tabID), logging.Error(err))
				return
			}
			tabSubsMu.Lock()
			if prev, ok := tabSubs[tabID]; ok {
				prev.Unsubscribe()
			}
			tabSubs[tabID] = sub
			tabSubsMu.Unlock()
		})
		br.OnDetach(func(tabID int) {
			tabSubsMu.Lock()
			if sub, ok := tabSubs[tabID]; ok {
				sub.Unsubscribe()
				delete(tabSubs, tabID)
			}
			tabSubsMu.Unlock()
		})

		// Settings changes invalidate the cache and push fresh capture
		// configs down every attached bridge.
		_, err = bus.Subscribe(messaging.SubjectSettingsChanged, func(ctx context.Context, msg *messaging.Message) error {
			eff := svc.ApplySettingsChange(ctx)
			slog.Info("Settings changed, reconfiguring bridges",
				slog.Int("max_events", eff.MaxEvents))
			br.BroadcastConfig(func(tabID int, host string) models.CaptureConfig {
				return svc.CaptureConfigFor(ctx, host)
			})
			return nil
		})
		if err != nil {
			log.Fatalf("Failed to subscribe to settings changes: %v", err)
		}
	}

	// HTTP surface: bridge endpoint, event API, metrics
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewRouter(handlers.NewEventsHandler(svc, indexer, logger), br),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Collector listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server failed", logging.Error(err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down collector")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", logging.Error(err))
	}
}
