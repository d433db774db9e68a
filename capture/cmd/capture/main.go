package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sizzlebits/layerlens/capture/internal/bridge"
	"github.com/sizzlebits/layerlens/capture/internal/config"
	"github.com/sizzlebits/layerlens/capture/internal/handlers"
	"github.com/sizzlebits/layerlens/capture/internal/interceptor"
	"github.com/sizzlebits/layerlens/capture/internal/server"
	"github.com/sizzlebits/layerlens/capture/pkg/queue"
	"github.com/sizzlebits/layerlens/common/logging"
	"github.com/sizzlebits/layerlens/common/models"
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
	).With(logging.Service("capture"))
	logging.SetDefault(logger)

	slog.Info("Starting capture agent",
		slog.Int("port", cfg.Server.Port),
		slog.String("bridge_url", cfg.Bridge.URL),
		slog.Int("tab_id", cfg.Bridge.TabID),
		slog.String("host", cfg.Bridge.Host),
	)

	// Bridge to the collector
	bridgeClient := bridge.NewClient(cfg.BridgeURL(), logger)

	// Queue registry and interceptor; captured events go down the bridge
	registry := queue.NewRegistry()
	ic := interceptor.New(registry, bridgeClient.SendEvent, logger)

	// Collector pushes reconfiguration after settings changes
	bridgeClient.Handle(models.BridgeTypeUpdateConfig, func(payload json.RawMessage) {
		var update models.CaptureConfig
		if err := json.Unmarshal(payload, &update); err != nil {
			slog.Warn("Invalid capture config update", logging.Error(err))
			return
		}
		slog.Info("Capture config updated", slog.Any("queue_names", update.QueueNames))
		ic.UpdateMonitoring(update.QueueNames)
	})

	dialCtx, cancelDial := context.WithTimeout(context.Background(), cfg.Bridge.DialTimeout)
	if err := bridgeClient.Attach(dialCtx); err != nil {
		// The collector may come up later; capture still works locally.
		slog.Warn("Bridge attach failed, events will not be forwarded", logging.Error(err))
	}
	cancelDial()
	defer bridgeClient.Close()

	bridgeClient.SendInit(models.CaptureConfig{
		QueueNames:     cfg.Capture.QueueNames,
		ConsoleLogging: cfg.Capture.ConsoleLogging,
		DebugLogging:   cfg.Capture.DebugLogging,
	})

	ic.UpdateMonitoring(cfg.Capture.QueueNames)

	// HTTP push surface
	router := server.NewRouter(handlers.NewPushHandler(registry, logger))
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Capture agent listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server failed", logging.Error(err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down capture agent")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", logging.Error(err))
	}
}
