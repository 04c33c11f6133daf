package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nats-io/nats.go"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/luhit123/neolink123-sub008/internal/engine"
	"github.com/luhit123/neolink123-sub008/internal/escalation"
	"github.com/luhit123/neolink123-sub008/internal/ingest"
	"github.com/luhit123/neolink123-sub008/internal/institution"
	"github.com/luhit123/neolink123-sub008/internal/model"
	"github.com/luhit123/neolink123-sub008/internal/monitor"
	"github.com/luhit123/neolink123-sub008/internal/notify"
	"github.com/luhit123/neolink123-sub008/internal/rules"
	"github.com/luhit123/neolink123-sub008/internal/storage"
)

func main() {
	// Load configuration
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.SetDefault("engine.sweep_interval", 30*time.Second)
	viper.SetDefault("engine.health_interval", time.Minute)
	viper.SetDefault("journal.path", "alert_journal.db")
	viper.SetDefault("journal.retention_days", 90)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	// Initialize logger
	var logger *zap.Logger
	var err error
	if viper.GetBool("log.development") {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Connect to NATS with more options
	opts := []nats.Option{
		nats.Name(viper.GetString("app.name")),
		nats.MaxReconnects(viper.GetInt("nats.max_reconnects")),
		nats.ReconnectWait(viper.GetDuration("nats.reconnect_wait")),
		nats.Timeout(viper.GetDuration("nats.connect_timeout")),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Error("NATS connection error",
				zap.String("subject", sub.Subject),
				zap.Error(err))
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected",
				zap.String("url", nc.ConnectedUrl()))
		}),
	}

	// Connect with retry
	var nc *nats.Conn
	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		nc, err = nats.Connect(viper.GetString("nats.urls.0"), opts...)
		if err == nil {
			break
		}
		logger.Warn("Failed to connect to NATS, retrying...",
			zap.Int("attempt", i+1),
			zap.Error(err))
		time.Sleep(time.Second * time.Duration(i+1))
	}
	if err != nil {
		logger.Fatal("Failed to connect to NATS after retries", zap.Error(err))
	}
	defer nc.Close()

	logger.Info("Connected to NATS successfully",
		zap.String("url", nc.ConnectedUrl()))

	// Create JetStream context
	js, err := nc.JetStream()
	if err != nil {
		logger.Fatal("Failed to create JetStream context", zap.Error(err))
	}

	// Institution configurations, reloaded live on config changes
	registry := institution.NewRegistry(logger)
	loadInstitutions(registry, logger)
	viper.OnConfigChange(func(in fsnotify.Event) {
		logger.Info("Configuration file changed", zap.String("file", in.Name))
		loadInstitutions(registry, logger)
	})
	viper.WatchConfig()

	// Core engine: bus, lifecycle store, evaluator, factory
	bus := engine.NewBus(logger)
	store := engine.NewStore(bus, logger)
	evaluator := rules.NewEvaluator(logger)
	factory := engine.NewFactory(store, bus, logger)

	// Durable audit journal, fed from the bus
	journal, err := storage.NewSQLiteAlertJournal(logger, viper.GetString("journal.path"))
	if err != nil {
		logger.Fatal("Failed to open alert journal", zap.Error(err))
	}
	defer journal.Close()
	detachJournal := storage.AttachJournal(bus, journal, logger)
	defer detachJournal()

	// Relay lifecycle events to JetStream for external consumers
	relay := notify.NewRelay(js, logger)
	if err := relay.Start(bus); err != nil {
		logger.Fatal("Failed to start alert relay", zap.Error(err))
	}
	defer relay.Stop()

	// Escalation delivery: routed by notify method, journaled, swept on a timer
	natsEscalator := notify.NewNATSEscalator(js, logger)
	router := notify.NewRouter(natsEscalator, logger)
	router.Register(model.NotifyInApp, natsEscalator)
	router.Register(model.NotifySMS, natsEscalator)
	if viper.GetString("smtp.host") != "" {
		var emailCfg notify.EmailConfig
		if err := viper.UnmarshalKey("smtp", &emailCfg); err != nil {
			logger.Fatal("Failed to parse smtp configuration", zap.Error(err))
		}
		router.Register(model.NotifyEmail, notify.NewEmailEscalator(emailCfg, logger))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := escalation.NewScheduler(store, registry,
		storage.NewJournalingEscalator(journal, router, logger),
		viper.GetDuration("engine.sweep_interval"), logger)
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal("Failed to start escalation scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	// Inbound feeds: vital observations and AI findings
	consumer := ingest.NewConsumer(js, evaluator, factory, registry, logger)
	if err := consumer.Start(); err != nil {
		logger.Fatal("Failed to start feed consumers", zap.Error(err))
	}
	defer consumer.Stop()

	// Host health reporting
	health := monitor.NewHealthReporter(js, store, viper.GetDuration("engine.health_interval"), logger)
	if err := health.Start(ctx); err != nil {
		logger.Fatal("Failed to start health reporter", zap.Error(err))
	}
	defer health.Stop()

	// Journal retention
	go func() {
		retention := time.Duration(viper.GetInt("journal.retention_days")) * 24 * time.Hour
		cleanupTicker := time.NewTicker(24 * time.Hour)
		defer cleanupTicker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-cleanupTicker.C:
				if err := journal.DeleteBefore(ctx, time.Now().Add(-retention)); err != nil {
					logger.Error("Failed to clean up alert journal", zap.Error(err))
				}
			}
		}
	}()

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	cancel()

	logger.Info("Server shutting down gracefully")
}

// loadInstitutions replaces the registry contents from the institutions
// section of the configuration file.
func loadInstitutions(registry *institution.Registry, logger *zap.Logger) {
	var configs []model.AlertConfiguration
	if err := viper.UnmarshalKey("institutions", &configs); err != nil {
		logger.Error("Failed to parse institution configurations", zap.Error(err))
		return
	}
	registry.Replace(configs)
}
