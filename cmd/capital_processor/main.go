package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/equity-capital-ledger/internal/capital/fx"
	capital "github.com/equity-capital-ledger/internal/capital/service"
	"github.com/equity-capital-ledger/internal/capital_processor/components"
	"github.com/equity-capital-ledger/internal/capital_processor/consumer"
	"github.com/equity-capital-ledger/internal/capital_processor/outbox_poller"
	"github.com/equity-capital-ledger/internal/capital_processor/service"
	"github.com/equity-capital-ledger/internal/config"
	"github.com/equity-capital-ledger/internal/data/mongo"
	"github.com/equity-capital-ledger/internal/data/postgres"
	"github.com/equity-capital-ledger/internal/logger"
	"github.com/equity-capital-ledger/internal/platform/messaging/consumers"
	"github.com/equity-capital-ledger/internal/platform/messaging/producers"
	"github.com/equity-capital-ledger/internal/platform/persistence"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("capital_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Capital Processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}
	if err := mongo.EnsureIndexes(appCtx, mongoDB.Database()); err != nil {
		log.Error("Failed to create MongoDB indexes", "error", err)
		os.Exit(1)
	}

	repos := capital.Repositories{
		Companies:    postgres.NewCompanyRepository(log, postgresDB),
		Accounts:     postgres.NewAccountRepository(log, postgresDB),
		Shareholders: postgres.NewShareholderRepository(log, postgresDB),
		Agreements:   postgres.NewAgreementRepository(log, postgresDB),
		LoanNotes:    postgres.NewLoanNoteRepository(log, postgresDB),
		Movements:    postgres.NewMovementRepository(log, postgresDB),
		Postings:     postgres.NewPostingRepository(log, postgresDB),
		Outbox:       postgres.NewOutboxRepository(log, postgresDB),
	}
	rates := fx.NewConverter(log, postgres.NewExchangeRateRepository(log, postgresDB), cfg.FX.CacheTTL, cfg.FX.CacheCleanupInterval)
	capitalService := capital.NewCapitalService(log, postgresDB, repos, rates)

	accrualRuns := mongo.NewAccrualRunRepository(log, mongoDB.Database())
	generalLedger := mongo.NewGeneralLedgerRepository(log, mongoDB.Database())

	if err := producers.EnsureTopic(cfg.Kafka.Brokers, cfg.Kafka.AccrualTopic, cfg.Kafka.NumPartitions, cfg.Kafka.ReplicationFactor, log); err != nil {
		log.Error("Failed to ensure accrual topic exists", "topic", cfg.Kafka.AccrualTopic, "error", err)
		os.Exit(1)
	}
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	// dlqProducer is nil when no DLQ topic is configured; the handler drops unparseable messages then
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}

	processingService := components.CreateProcessingService(capitalService, accrualRuns, log, cfg)
	accrualEventHandler := consumer.NewAccrualEventHandler(log, processingService, dlqProducer)

	ledgerPublisher := outbox_poller.NewLedgerPublisher(repos.Outbox, generalLedger, log)
	poller := outbox_poller.NewPoller(&cfg.Outbox, repos.Outbox, ledgerPublisher, log)

	errChan := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.AccrualTopic, cfg.Kafka.ConsumerGroup, accrualEventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	cancelAppCtx()

	if wpService, ok := processingService.(*service.WorkerPoolProcessingService); ok {
		wpService.Shutdown()
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	if err = dlqProducer.Close(); err != nil {
		log.Error("Error closing DLQ Kafka producer", "error", err)
	}

	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serviceErr != nil {
		log.Error("Capital Processor shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Capital Processor shutdown completed with errors")
	} else {
		log.Info("Capital Processor shutdown completed successfully")
	}
}
