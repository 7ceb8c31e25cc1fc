package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/veesix-networks/osvolt/internal/accessdevice"
	"github.com/veesix-networks/osvolt/internal/watchdog"
	"github.com/veesix-networks/osvolt/pkg/component"
	"github.com/veesix-networks/osvolt/pkg/config"
	"github.com/veesix-networks/osvolt/pkg/events"
	"github.com/veesix-networks/osvolt/pkg/events/local"
	"github.com/veesix-networks/osvolt/pkg/logger"
	"github.com/veesix-networks/osvolt/pkg/metrics"
	"github.com/veesix-networks/osvolt/pkg/opdb"
	"github.com/veesix-networks/osvolt/pkg/opdb/sqlite"
	"github.com/veesix-networks/osvolt/pkg/version"
	_ "github.com/veesix-networks/osvolt/plugins/all"
)

const eventQueueSize = 1024

func main() {
	configPath := flag.String("config", "configs/osvolt.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("osvoltd", version.Full())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Configure(cfg.Logging.Format, cfg.Logging.Level, cfg.Logging.Components)

	mainLog := logger.Get(logger.Main)
	mainLog.Info("Starting osvolt", "version", version.Version, "devices", len(cfg.Access.Devices))

	eventBus := local.NewBus(eventQueueSize)
	if cfg.Logging.DebugEvents {
		eventBus.SetDebugTopics([]string{events.TopicProvisioning})
	}

	store, err := sqlite.Open(cfg.OpDB.Path)
	if err != nil {
		log.Fatalf("Failed to open opdb: %v", err)
	}

	inventory, err := accessdevice.NewInventory(cfg.Access.Devices)
	if err != nil {
		log.Fatalf("Failed to build device inventory: %v", err)
	}

	accessSvc := accessdevice.New(inventory, store, eventBus, cfg.Access.QueueSize)

	ctx := context.Background()

	providers := opdb.NewProviderRegistry().WithLogger(logger.Get(logger.OpDB))
	providers.Register(accessSvc)
	if err := providers.RestoreAll(ctx, store); err != nil {
		log.Fatalf("Failed to restore state from opdb: %v", err)
	}

	deps := component.Dependencies{
		Config:   cfg,
		EventBus: eventBus,
		Access:   accessSvc,
		Metrics:  metrics.New(),
	}

	orch := component.NewOrchestrator()
	orch.Register(accessSvc)

	if cfg.Watchdog.Enabled {
		runnerCfg := watchdog.RunnerConfig{
			CheckInterval:    cfg.Watchdog.CheckInterval,
			Timeout:          cfg.Watchdog.Timeout,
			FailureThreshold: cfg.Watchdog.FailureThreshold,
		}

		wd := watchdog.New()
		wd.Register(watchdog.NewOpDBTarget(store), runnerCfg)
		wd.Register(watchdog.NewAccessTarget(accessSvc), runnerCfg)

		deps.Health = wd
		orch.Register(wd)
	}

	pluginComponents, err := component.LoadAll(deps)
	if err != nil {
		log.Fatalf("Failed to load plugin components: %v", err)
	}
	mainLog.Debug("Registered plugins", "namespaces", component.Plugins(), "enabled", len(pluginComponents))

	for _, comp := range pluginComponents {
		mainLog.Info("Loaded plugin component", "name", comp.Name())
		orch.Register(comp)
	}

	if err := orch.Start(ctx); err != nil {
		log.Fatalf("Failed to start components: %v", err)
	}

	mainLog.Info("osvolt started successfully")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	mainLog.Info("Shutting down osvolt", "signal", sig.String())

	if err := orch.Stop(ctx); err != nil {
		mainLog.Error("Error stopping components", "error", err)
	}

	if err := eventBus.Close(); err != nil {
		mainLog.Error("Error closing event bus", "error", err)
	}

	if err := store.Close(); err != nil {
		mainLog.Error("Error closing opdb", "error", err)
	}

	mainLog.Info("osvolt stopped")
}
